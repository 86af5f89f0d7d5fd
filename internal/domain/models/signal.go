package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// Setup labels emitted by TradingView strategies. Callers may send other
// labels; these two are the ones the quality scorer biases on.
const (
	SetupStrongLong  = "strong_long"
	SetupStrongShort = "strong_short"
	SetupNeutral     = "neutral"
)

// SignalDescriptor is the ephemeral view of one inbound trading signal.
// It exists for a single admission decision and journal write; it is not
// persisted.
type SignalDescriptor struct {
	TradeID   string
	Symbol    string
	Timeframe string
	Setup     string
	Context   string

	Close    *float64
	EntryMin *float64
	EntryMax *float64
	SL       *float64
	TP1      *float64
	TP2      *float64
	RR       *float64
	RiskPct  *float64

	// Quality is the confluence score derived by the enrichment step.
	// Nil means no score could be computed and the quality check is skipped.
	Quality *int
}

// Normalize uppercases the symbol and fills defaults for missing hints.
func (s *SignalDescriptor) Normalize() {
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	if s.Symbol == "" {
		s.Symbol = "BTCUSDT"
	}
	if s.Timeframe == "" {
		s.Timeframe = "15m"
	}
	if s.Setup == "" {
		s.Setup = SetupNeutral
	}
}

// Fingerprint returns a deterministic content hash over the identifying
// fields, with the close price rounded to two decimals so jittery webhook
// repeats collapse onto the same fingerprint.
func (s *SignalDescriptor) Fingerprint() string {
	price := 0.0
	if s.Close != nil {
		price = *s.Close
	}
	payload := fmt.Sprintf("%s|%s|%s|%.2f", s.Symbol, s.Timeframe, s.Setup, price)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Float returns a pointer to v. Convenience for optional numeric fields.
func Float(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
