package journal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/command"
	"SignalDesk/internal/domain/models"
)

type stubPersister struct {
	mu       sync.Mutex
	failures int
	persists int
	loaded   []*models.JournalEntry
}

func (p *stubPersister) Persist([]*models.JournalEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persists++
	if p.failures > 0 {
		p.failures--
		return errors.New("disk full")
	}
	return nil
}

func (p *stubPersister) Load() ([]*models.JournalEntry, error) {
	return p.loaded, nil
}

type chanMirror struct {
	verbs chan string
}

func (m *chanMirror) MirrorMutation(_ context.Context, verb string, _ *models.JournalEntry) error {
	m.verbs <- verb
	return nil
}

func (m *chanMirror) Close() error { return nil }

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(&stubPersister{}, nil, opts...)
	require.NoError(t, err)
	return s
}

func patchFor(symbol string) *models.JournalEntry {
	return &models.JournalEntry{
		Symbol:    symbol,
		Timeframe: "15m",
		Setup:     models.SetupStrongLong,
		SL:        models.Float(67000),
		TP1:       models.Float(69000),
	}
}

func TestUpsertCreatesWithDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)
	assert.Equal(t, "t1", e.TradeID)
	assert.Equal(t, models.StatusNew, e.Status)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, 1, s.Len())
}

func TestUpsertMergesNonNullOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)

	// A sparse patch updates what it carries and nothing else.
	e, err := s.Upsert(ctx, "t1", &models.JournalEntry{TP2: models.Float(70000)})
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", e.Symbol)
	require.NotNil(t, e.SL)
	assert.Equal(t, 67000.0, *e.SL)
	require.NotNil(t, e.TP2)
	assert.Equal(t, 70000.0, *e.TP2)

	// Re-sending the original patch is idempotent.
	again, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)
	assert.Equal(t, e.Symbol, again.Symbol)
	assert.Equal(t, *e.TP2, *again.TP2)
	assert.Equal(t, 1, s.Len())
}

func TestTP1CommandMarksTarget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)

	e, err := s.ApplyCommand(ctx, command.Command{Verb: command.VerbTP1, TradeID: "t1", Value: 68900, HasVal: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTP1Hit, e.Status)
	require.NotNil(t, e.TP1Price)
	assert.Equal(t, 68900.0, *e.TP1Price)
}

func TestExitIsTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)

	e, err := s.ApplyCommand(ctx, command.Command{Verb: command.VerbExit, TradeID: "t1", Value: -1.2, HasVal: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusExited, e.Status)
	require.NotNil(t, e.PnL)
	assert.Equal(t, -1.2, *e.PnL)

	// Closed trades refuse every further mutation.
	_, err = s.ApplyCommand(ctx, command.Command{Verb: command.VerbTP1, TradeID: "t1", Value: 69000, HasVal: true})
	assert.ErrorIs(t, err, ErrTerminal)

	_, err = s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	assert.ErrorIs(t, err, ErrTerminal)

	// But status stays readable.
	read, err := s.ApplyCommand(ctx, command.Command{Verb: command.VerbStatus, TradeID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusExited, read.Status)
}

func TestCancelIsTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)

	e, err := s.ApplyCommand(ctx, command.Command{Verb: command.VerbCancel, TradeID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, e.Status)

	_, err = s.ApplyCommand(ctx, command.Command{Verb: command.VerbFill, TradeID: "t1", Value: 68000, HasVal: true})
	assert.ErrorIs(t, err, ErrTerminal)
}

func TestFillActivatesAndConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)

	e, err := s.ApplyCommand(ctx, command.Command{Verb: command.VerbFill, TradeID: "t1", Value: 68000, HasVal: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, e.Status)

	// Same price: idempotent.
	_, err = s.ApplyCommand(ctx, command.Command{Verb: command.VerbFill, TradeID: "t1", Value: 68000, HasVal: true})
	require.NoError(t, err)

	// Different price: conflict.
	_, err = s.ApplyCommand(ctx, command.Command{Verb: command.VerbFill, TradeID: "t1", Value: 68100, HasVal: true})
	assert.ErrorIs(t, err, ErrAlreadyFilled)
}

func TestUnknownTradeID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ApplyCommand(context.Background(), command.Command{Verb: command.VerbSL, TradeID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistRetriesOnce(t *testing.T) {
	p := &stubPersister{failures: 1}
	s, err := NewStore(p, nil)
	require.NoError(t, err)

	_, err = s.Upsert(context.Background(), "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.persists)
}

func TestPersistFailureRevertsCreate(t *testing.T) {
	p := &stubPersister{failures: 2}
	s, err := NewStore(p, nil)
	require.NoError(t, err)

	_, err = s.Upsert(context.Background(), "t1", patchFor("BTCUSDT"))
	var perr *PersistError
	require.ErrorAs(t, err, &perr)

	// The unacknowledged entry must not linger in memory.
	_, err = s.Get("t1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestPersistFailureRevertsCommand(t *testing.T) {
	p := &stubPersister{}
	s, err := NewStore(p, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)

	p.mu.Lock()
	p.failures = 2
	p.mu.Unlock()

	_, err = s.ApplyCommand(ctx, command.Command{Verb: command.VerbExit, TradeID: "t1", Value: 1.0, HasVal: true})
	var perr *PersistError
	require.ErrorAs(t, err, &perr)

	e, err := s.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, e.Status)
	assert.Nil(t, e.PnL)
}

func TestRecentOrdering(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Upsert(ctx, id, patchFor("BTCUSDT"))
		require.NoError(t, err)
		now = now.Add(time.Minute)
	}

	// Touch "a" so it becomes the most recent.
	_, err := s.ApplyCommand(ctx, command.Command{Verb: command.VerbFill, TradeID: "a", Value: 68000, HasVal: true})
	require.NoError(t, err)

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "a", recent[0].TradeID)
	assert.Equal(t, "c", recent[1].TradeID)

	all := s.Recent(0)
	assert.Len(t, all, 3)
}

func TestMirrorReceivesMutations(t *testing.T) {
	m := &chanMirror{verbs: make(chan string, 4)}
	s := newTestStore(t, WithMirror(m))
	ctx := context.Background()

	_, err := s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)
	_, err = s.ApplyCommand(ctx, command.Command{Verb: command.VerbCancel, TradeID: "t1"})
	require.NoError(t, err)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case v := <-m.verbs:
			got[v] = true
		case <-time.After(2 * time.Second):
			t.Fatal("mirror not invoked")
		}
	}
	assert.True(t, got["upsert"])
	assert.True(t, got["cancel"])
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.csv")
	p, err := NewCSVPersister(path)
	require.NoError(t, err)

	s, err := NewStore(p, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Upsert(ctx, "t1", patchFor("BTCUSDT"))
	require.NoError(t, err)
	_, err = s.ApplyCommand(ctx, command.Command{Verb: command.VerbFill, TradeID: "t1", Value: 68000, HasVal: true})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "t2", patchFor("ETHUSDT"))
	require.NoError(t, err)

	// A fresh store over the same file sees the same ledger.
	reloaded, err := NewStore(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	e, err := reloaded.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, e.Status)
	require.NotNil(t, e.FillPrice)
	assert.Equal(t, 68000.0, *e.FillPrice)

	var sb strings.Builder
	require.NoError(t, reloaded.ExportCSV(&sb))
	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "trade_id,symbol,tf,setup,status"))
	assert.Contains(t, out, "t1,BTCUSDT")
	assert.Contains(t, out, "t2,ETHUSDT")
}
