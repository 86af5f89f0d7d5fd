package guard

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// StateStore is the shared backing store for guard state. Deployments
// running a single process can use MemoryStore; anything with more than
// one instance must use a shared store (RedisStore) or the cooldown,
// dedup and risk-cap guarantees silently become per-process.
type StateStore interface {
	// LastAdmitted returns the last admission time for a symbol.
	LastAdmitted(ctx context.Context, symbol string) (time.Time, bool, error)
	// FingerprintSeen returns when a fingerprint was last admitted.
	FingerprintSeen(ctx context.Context, fp string) (time.Time, bool, error)
	// DailyRiskUsed returns the risk percentage admitted on the given UTC day.
	DailyRiskUsed(ctx context.Context, day string) (float64, error)
	// RecordAdmission commits the admit-side state transition.
	RecordAdmission(ctx context.Context, symbol, fp string, riskPct float64, now time.Time) error
}

// MemoryStore keeps guard state in process memory. The daily risk
// accumulator is summed with decimals so repeated small additions do not
// drift, and dedup fingerprints are pruned past the window.
type MemoryStore struct {
	mu           sync.Mutex
	dedupWindow  time.Duration
	lastAdmitted map[string]time.Time
	fingerprints map[string]time.Time
	riskDay      string
	riskUsed     decimal.Decimal
}

// NewMemoryStore creates an empty in-process state store.
func NewMemoryStore(dedupWindow time.Duration) *MemoryStore {
	return &MemoryStore{
		dedupWindow:  dedupWindow,
		lastAdmitted: make(map[string]time.Time),
		fingerprints: make(map[string]time.Time),
	}
}

func (s *MemoryStore) LastAdmitted(_ context.Context, symbol string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastAdmitted[symbol]
	return t, ok, nil
}

func (s *MemoryStore) FingerprintSeen(_ context.Context, fp string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.fingerprints[fp]
	return t, ok, nil
}

func (s *MemoryStore) DailyRiskUsed(_ context.Context, day string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.riskDay != day {
		return 0, nil
	}
	f, _ := s.riskUsed.Float64()
	return f, nil
}

func (s *MemoryStore) RecordAdmission(_ context.Context, symbol, fp string, riskPct float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastAdmitted[symbol] = now
	s.fingerprints[fp] = now
	s.prune(now)

	day := now.Format("2006-01-02")
	if s.riskDay != day {
		s.riskDay = day
		s.riskUsed = decimal.Zero
	}
	s.riskUsed = s.riskUsed.Add(decimal.NewFromFloat(riskPct))
	return nil
}

// prune drops fingerprints older than the dedup window. The window never
// retains stale entries, so the set stays bounded.
func (s *MemoryStore) prune(now time.Time) {
	if s.dedupWindow <= 0 {
		return
	}
	for fp, t := range s.fingerprints {
		if now.Sub(t) > s.dedupWindow {
			delete(s.fingerprints, fp)
		}
	}
}
