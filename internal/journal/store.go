package journal

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"SignalDesk/internal/command"
	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"
)

// Store is the durable, keyed trade ledger. All mutations run under one
// lock and are persisted before the caller is acknowledged; the in-memory
// index and the durable CSV never diverge for an acknowledged write.
type Store struct {
	persister Persister
	mirror    repository.Mirror
	metrics   repository.Metrics
	log       *applogger.Logger
	nowFn     func() time.Time

	mu      sync.Mutex
	entries map[string]*models.JournalEntry
}

// Option configures a Store.
type Option func(*Store)

// WithMirror attaches a fire-and-forget mutation mirror.
func WithMirror(m repository.Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m repository.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides the timestamp source. Tests inject synthetic clocks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFn = now }
}

// NewStore creates a journal over the given persister, rebuilding the
// in-memory index from the durable copy.
func NewStore(persister Persister, log *applogger.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = applogger.Nop()
	}
	s := &Store{
		persister: persister,
		log:       log,
		nowFn:     func() time.Time { return time.Now().UTC() },
		entries:   make(map[string]*models.JournalEntry),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := persister.Load()
	if err != nil {
		return nil, err
	}
	for _, e := range loaded {
		s.entries[e.TradeID] = e
	}
	if len(loaded) > 0 {
		log.Info("journal restored", applogger.Int("entries", len(loaded)))
	}
	return s, nil
}

// Upsert creates the entry if the trade id is unseen, otherwise merges the
// non-null fields of patch into it. A present field is never overwritten
// by an absent one. Terminal entries refuse the merge.
func (s *Store) Upsert(ctx context.Context, tradeID string, patch *models.JournalEntry) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	existing, ok := s.entries[tradeID]
	if ok && existing.Status.Terminal() {
		return nil, ErrTerminal
	}

	var prev *models.JournalEntry
	var entry *models.JournalEntry
	if ok {
		prev = existing.Clone()
		entry = existing
		mergeEntry(entry, patch)
	} else {
		entry = patch.Clone()
		entry.TradeID = tradeID
		if entry.Status == "" {
			entry.Status = models.StatusNew
		}
		entry.CreatedAt = now
		s.entries[tradeID] = entry
	}
	entry.UpdatedAt = now

	if err := s.persist(); err != nil {
		s.revert(tradeID, prev)
		return nil, err
	}

	s.mirrorAsync(ctx, "upsert", entry)
	return entry.Clone(), nil
}

// ApplyCommand applies a parsed lifecycle command. The status verb is a
// pure read; every other verb mutates, persists and mirrors.
func (s *Store) ApplyCommand(ctx context.Context, cmd command.Command) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[cmd.TradeID]
	if !ok {
		s.record(cmd.Verb, "not_found")
		return nil, ErrNotFound
	}

	if cmd.Verb == command.VerbStatus {
		s.record(cmd.Verb, "ok")
		return entry.Clone(), nil
	}

	if entry.Status.Terminal() {
		s.record(cmd.Verb, "terminal")
		return nil, ErrTerminal
	}

	prev := entry.Clone()
	switch cmd.Verb {
	case command.VerbTP1:
		entry.TP1Price = models.Float(cmd.Value)
		entry.Status = models.StatusTP1Hit
	case command.VerbTP2:
		entry.TP2Price = models.Float(cmd.Value)
		entry.Status = models.StatusTP2Hit
	case command.VerbSL:
		entry.Status = models.StatusSLHit
	case command.VerbFill:
		if entry.FillPrice != nil && *entry.FillPrice != cmd.Value {
			s.record(cmd.Verb, "conflict")
			return nil, ErrAlreadyFilled
		}
		entry.FillPrice = models.Float(cmd.Value)
		if entry.Status == models.StatusNew {
			entry.Status = models.StatusActive
		}
	case command.VerbExit:
		entry.PnL = models.Float(cmd.Value)
		entry.Status = models.StatusExited
	case command.VerbCancel:
		entry.Status = models.StatusCancelled
	default:
		s.record(cmd.Verb, "unknown")
		return nil, ErrNotFound
	}
	entry.UpdatedAt = s.nowFn()

	if err := s.persist(); err != nil {
		s.revert(cmd.TradeID, prev)
		s.record(cmd.Verb, "persist_error")
		return nil, err
	}

	s.record(cmd.Verb, "ok")
	s.mirrorAsync(ctx, string(cmd.Verb), entry)
	return entry.Clone(), nil
}

// Get returns a single entry.
func (s *Store) Get(tradeID string) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[tradeID]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.Clone(), nil
}

// Recent returns the n most recently updated entries, newest first.
// n <= 0 returns everything.
func (s *Store) Recent(n int) []*models.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].TradeID < out[j].TradeID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// ExportCSV writes the full ledger in the persisted tabular format.
func (s *Store) ExportCSV(w io.Writer) error {
	entries := s.Recent(0)
	// Export in creation order for a stable diff-friendly dump.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return writeCSV(w, entries)
}

// Len returns the number of ledger entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// persist writes the full snapshot, retrying once to absorb transient
// lock contention on the ledger file.
func (s *Store) persist() error {
	snapshot := make([]*models.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		snapshot = append(snapshot, e)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt)
	})

	err := s.persister.Persist(snapshot)
	if err != nil {
		s.log.Warn("journal persist failed, retrying", applogger.Error(err))
		err = s.persister.Persist(snapshot)
	}
	if err != nil {
		s.log.Error("journal persist failed after retry", applogger.Error(err))
		return &PersistError{Err: err}
	}
	return nil
}

// revert restores the pre-mutation view after a failed persist so the
// unacknowledged change does not linger in memory.
func (s *Store) revert(tradeID string, prev *models.JournalEntry) {
	if prev == nil {
		delete(s.entries, tradeID)
		return
	}
	s.entries[tradeID] = prev
}

// mirrorAsync sends the mutation to the mirror without blocking the
// caller. Mirror failure never rolls back the journal write.
func (s *Store) mirrorAsync(ctx context.Context, verb string, entry *models.JournalEntry) {
	if s.mirror == nil {
		return
	}
	snapshot := entry.Clone()
	go func() {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.mirror.MirrorMutation(mctx, verb, snapshot); err != nil {
			s.log.Warn("journal mirror failed",
				applogger.String("verb", verb),
				applogger.String("trade_id", snapshot.TradeID),
				applogger.Error(err),
			)
		}
	}()
}

func (s *Store) record(verb command.Verb, result string) {
	if s.metrics != nil {
		s.metrics.RecordJournalMutation(string(verb), result)
	}
}

// mergeEntry overlays the non-null fields of patch onto dst.
func mergeEntry(dst, patch *models.JournalEntry) {
	if patch.Symbol != "" {
		dst.Symbol = patch.Symbol
	}
	if patch.Timeframe != "" {
		dst.Timeframe = patch.Timeframe
	}
	if patch.Setup != "" {
		dst.Setup = patch.Setup
	}
	if patch.Status != "" {
		dst.Status = patch.Status
	}
	if patch.Decision != "" {
		dst.Decision = patch.Decision
	}
	if patch.Why != "" {
		dst.Why = patch.Why
	}
	if patch.RiskNote != "" {
		dst.RiskNote = patch.RiskNote
	}
	mergeFloat(&dst.EntryMin, patch.EntryMin)
	mergeFloat(&dst.EntryMax, patch.EntryMax)
	mergeFloat(&dst.SL, patch.SL)
	mergeFloat(&dst.TP1, patch.TP1)
	mergeFloat(&dst.TP2, patch.TP2)
	mergeFloat(&dst.RR, patch.RR)
	mergeFloat(&dst.RiskPct, patch.RiskPct)
	mergeFloat(&dst.TP1Price, patch.TP1Price)
	mergeFloat(&dst.TP2Price, patch.TP2Price)
	mergeFloat(&dst.FillPrice, patch.FillPrice)
	mergeFloat(&dst.ExitPrice, patch.ExitPrice)
	mergeFloat(&dst.PnL, patch.PnL)
}

func mergeFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
