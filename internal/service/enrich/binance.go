package enrich

import (
	"context"
	"strconv"
	"time"

	"SignalDesk/internal/service/cache"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

const binanceFuturesBase = "https://fapi.binance.com"

// BinanceClient pulls free futures data: funding rate, top trader
// long/short account ratio and a whale-trade liquidation proxy.
type BinanceClient struct {
	client *xhttp.Client
	cache  *cache.TTLCache
	log    *applogger.Logger
}

func NewBinanceClient(client *xhttp.Client, log *applogger.Logger) *BinanceClient {
	if log == nil {
		log = applogger.Nop()
	}
	return &BinanceClient{client: client, cache: cache.NewTTLCache(), log: log}
}

// FundingRate returns the last funding rate for a symbol, or nil when the
// endpoint fails. Enrichment is best-effort.
func (b *BinanceClient) FundingRate(ctx context.Context, symbol string) *float64 {
	var resp struct {
		LastFundingRate string `json:"lastFundingRate"`
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         binanceFuturesBase + "/fapi/v1/premiumIndex",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &resp)
	if err != nil {
		b.log.Warn("funding fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
		return nil
	}
	v, err := strconv.ParseFloat(resp.LastFundingRate, 64)
	if err != nil {
		return nil
	}
	return &v
}

// LongShortRatio returns the latest top-trader long/short account ratio
// for BTCUSDT at the given interval.
func (b *BinanceClient) LongShortRatio(ctx context.Context, interval string) *float64 {
	var resp []struct {
		LongAccount  string `json:"longAccount"`
		ShortAccount string `json:"shortAccount"`
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    binanceFuturesBase + "/futures/data/topLongShortAccountRatio",
		QueryParams: map[string][]string{
			"period": {interval},
			"symbol": {"BTCUSDT"},
			"limit":  {"1"},
		},
	}, &resp)
	if err != nil || len(resp) == 0 {
		b.log.Warn("long/short ratio fetch failed", applogger.Error(err))
		return nil
	}
	last := resp[len(resp)-1]
	long, err1 := strconv.ParseFloat(last.LongAccount, 64)
	short, err2 := strconv.ParseFloat(last.ShortAccount, 64)
	if err1 != nil || err2 != nil || short == 0 {
		return nil
	}
	ratio := long / short
	return &ratio
}

// RecentLiquidations counts recent BTCUSDT aggregate trades above $2M
// notional as a crude liquidation proxy. Cached for a minute.
func (b *BinanceClient) RecentLiquidations(ctx context.Context) *int {
	if v, ok := b.cache.Get("liq_recent"); ok {
		n := v.(int)
		return &n
	}

	var trades []struct {
		Price string `json:"p"`
		Qty   string `json:"q"`
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    binanceFuturesBase + "/fapi/v1/aggTrades",
		QueryParams: map[string][]string{
			"symbol": {"BTCUSDT"},
			"limit":  {"50"},
		},
	}, &trades)
	if err != nil {
		b.log.Warn("liquidation proxy fetch failed", applogger.Error(err))
		return nil
	}

	count := 0
	for _, t := range trades {
		p, _ := strconv.ParseFloat(t.Price, 64)
		q, _ := strconv.ParseFloat(t.Qty, 64)
		if p*q > 2_000_000 {
			count++
		}
	}
	b.cache.Set("liq_recent", count, time.Minute)
	return &count
}
