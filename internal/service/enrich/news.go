package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/service/cache"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

const cryptoPanicURL = "https://cryptopanic.com/api/v1/posts/"

// NewsClient scores rising CryptoPanic headlines for a symbol. A strongly
// negative aggregate can block publication upstream.
type NewsClient struct {
	token    string
	cacheTTL time.Duration
	client   *xhttp.Client
	cache    *cache.TTLCache
	log      *applogger.Logger
}

// NewsResult is the aggregated sentiment for one symbol.
type NewsResult struct {
	Score int
	Brief string
}

func NewNewsClient(token string, cacheTTL time.Duration, client *xhttp.Client, log *applogger.Logger) *NewsClient {
	if log == nil {
		log = applogger.Nop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &NewsClient{
		token:    token,
		cacheTTL: cacheTTL,
		client:   client,
		cache:    cache.NewTTLCache(),
		log:      log,
	}
}

// Sentiment fetches and scores up to ten rising posts for the symbol.
// Without a token it reports a neutral score.
func (n *NewsClient) Sentiment(ctx context.Context, symbol string) NewsResult {
	if n.token == "" {
		return NewsResult{}
	}

	key := strings.ToUpper(symbol)
	if v, ok := n.cache.Get(key); ok {
		return v.(NewsResult)
	}

	var resp struct {
		Results []struct {
			Title  string   `json:"title"`
			Kind   string   `json:"kind"`
			Labels []string `json:"labels"`
		} `json:"results"`
	}
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    cryptoPanicURL,
		QueryParams: map[string][]string{
			"auth_token": {n.token},
			"currencies": {key},
			"filter":     {"rising"},
			"regions":    {"en"},
			"public":     {"true"},
		},
	}, &resp)
	if err != nil {
		n.log.Warn("cryptopanic fetch failed", applogger.String("symbol", key), applogger.Error(err))
		return NewsResult{}
	}

	posts := resp.Results
	if len(posts) > 10 {
		posts = posts[:10]
	}

	total := 0
	briefs := make([]string, 0, 5)
	for i, p := range posts {
		title := p.Title
		if len(title) > 200 {
			title = title[:200]
		}
		text := strings.ToLower(title + " " + strings.Join(append(p.Labels, p.Kind), " "))
		score := 0
		if strings.Contains(text, "bullish") {
			score++
		}
		if strings.Contains(text, "bearish") {
			score--
		}
		if strings.Contains(text, "important") {
			score++
		}
		total += score
		if i < 5 {
			short := title
			if len(short) > 80 {
				short = short[:80]
			}
			briefs = append(briefs, fmt.Sprintf("%s(%+d)", short, score))
		}
	}

	res := NewsResult{Score: total, Brief: strings.Join(briefs, "; ")}
	n.cache.Set(key, res, n.cacheTTL)
	return res
}
