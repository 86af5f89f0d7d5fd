package models

import "time"

// Status is the lifecycle state of a journal entry.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusActive    Status = "ACTIVE"
	StatusTP1Hit    Status = "TP1_HIT"
	StatusTP2Hit    Status = "TP2_HIT"
	StatusSLHit     Status = "SL_HIT"
	StatusExited    Status = "EXITED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further mutation is accepted for the status.
func (s Status) Terminal() bool {
	return s == StatusExited || s == StatusCancelled
}

// JournalEntry is the durable record of one trade's lifecycle, keyed by
// TradeID. Optional fields are pointers: a nil incoming value never
// overwrites a recorded one.
type JournalEntry struct {
	TradeID   string `json:"trade_id"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Setup     string `json:"setup"`
	Status    Status `json:"status"`

	EntryMin *float64 `json:"entry_min,omitempty"`
	EntryMax *float64 `json:"entry_max,omitempty"`
	SL       *float64 `json:"sl,omitempty"`
	TP1      *float64 `json:"tp1,omitempty"`
	TP2      *float64 `json:"tp2,omitempty"`
	RR       *float64 `json:"rr,omitempty"`
	RiskPct  *float64 `json:"risk_pct,omitempty"`

	TP1Price  *float64 `json:"tp1_price,omitempty"`
	TP2Price  *float64 `json:"tp2_price,omitempty"`
	FillPrice *float64 `json:"fill_price,omitempty"`
	ExitPrice *float64 `json:"exit_price,omitempty"`
	PnL       *float64 `json:"pnl,omitempty"`

	Decision string `json:"decision,omitempty"`
	Why      string `json:"why,omitempty"`
	RiskNote string `json:"risk_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot mutate the store's view.
func (e *JournalEntry) Clone() *JournalEntry {
	cp := *e
	cp.EntryMin = copyFloat(e.EntryMin)
	cp.EntryMax = copyFloat(e.EntryMax)
	cp.SL = copyFloat(e.SL)
	cp.TP1 = copyFloat(e.TP1)
	cp.TP2 = copyFloat(e.TP2)
	cp.RR = copyFloat(e.RR)
	cp.RiskPct = copyFloat(e.RiskPct)
	cp.TP1Price = copyFloat(e.TP1Price)
	cp.TP2Price = copyFloat(e.TP2Price)
	cp.FillPrice = copyFloat(e.FillPrice)
	cp.ExitPrice = copyFloat(e.ExitPrice)
	cp.PnL = copyFloat(e.PnL)
	return &cp
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
