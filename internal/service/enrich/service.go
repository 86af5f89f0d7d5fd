package enrich

import (
	"context"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
)

// Service bundles the free-data and news clients behind the domain
// Enricher interface.
type Service struct {
	binance      *BinanceClient
	news         *NewsClient
	blockEnabled bool
}

func NewService(binance *BinanceClient, news *NewsClient, blockEnabled bool) *Service {
	return &Service{binance: binance, news: news, blockEnabled: blockEnabled}
}

var _ repository.Enricher = (*Service)(nil)

// Enrich collects funding, positioning, liquidation and news context for
// a symbol. Individual fetch failures leave the field nil; the guard
// skips checks whose inputs are missing.
func (s *Service) Enrich(ctx context.Context, symbol, setup string) (*models.Enrichment, error) {
	enr := &models.Enrichment{}
	enr.Funding = s.binance.FundingRate(ctx, symbol)
	enr.LSRatio5m = s.binance.LongShortRatio(ctx, "5m")
	enr.LiqRecent = s.binance.RecentLiquidations(ctx)

	news := s.news.Sentiment(ctx, symbol)
	enr.NewsScore = news.Score
	enr.NewsBrief = news.Brief
	enr.NewsBlock = s.blockEnabled && news.Score <= -2

	return enr, nil
}
