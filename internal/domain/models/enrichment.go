package models

// Enrichment bundles the free-data and news context for one signal.
type Enrichment struct {
	Funding   *float64 `json:"funding,omitempty"`
	LSRatio5m *float64 `json:"lsr_5m,omitempty"`
	LiqRecent *int     `json:"liq_recent,omitempty"`
	NewsScore int      `json:"news_score"`
	NewsBrief string   `json:"news_brief,omitempty"`
	NewsBlock bool     `json:"news_block"`
}

const (
	DecisionLong  = "LONG"
	DecisionShort = "SHORT"
	DecisionWait  = "WAIT"
)

// Decision is the strict schema the LLM analyst must return.
type Decision struct {
	Decision string  `json:"decision"` // LONG, SHORT or WAIT
	Entry    float64 `json:"entry"`
	SL       float64 `json:"sl"`
	TP1      float64 `json:"tp1"`
	TP2      float64 `json:"tp2"`
	RR       float64 `json:"rr"`
	Why      string  `json:"why"`
	Risk     string  `json:"risk"`
}
