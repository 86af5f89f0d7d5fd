package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/guard"
	"SignalDesk/internal/journal"
)

type fakeEnricher struct {
	enrichment *models.Enrichment
}

func (f *fakeEnricher) Enrich(context.Context, string, string) (*models.Enrichment, error) {
	return f.enrichment, nil
}

type fakeAnalyst struct {
	decision *models.Decision
}

func (f *fakeAnalyst) Analyze(context.Context, *models.SignalDescriptor, *models.Enrichment) (*models.Decision, error) {
	return f.decision, nil
}

func (f *fakeAnalyst) AnalyzeImage(context.Context, string, string) (*models.Decision, error) {
	return f.decision, nil
}

type fakeNotifier struct {
	published []string
	archived  []string
	replies   []string
}

func (f *fakeNotifier) Publish(_ context.Context, text string) error {
	f.published = append(f.published, text)
	return nil
}

func (f *fakeNotifier) PublishArchive(_ context.Context, text string) error {
	f.archived = append(f.archived, text)
	return nil
}

func (f *fakeNotifier) Reply(_ context.Context, _ int64, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeNotifier) FileURL(context.Context, string) (string, error) {
	return "https://example.test/file.jpg", nil
}

type fakeMetrics struct {
	signals    []string
	admissions []string
}

func (f *fakeMetrics) RecordSignal(source string) { f.signals = append(f.signals, source) }
func (f *fakeMetrics) RecordAdmission(admitted bool, reason string) {
	if admitted {
		reason = "admit"
	}
	f.admissions = append(f.admissions, reason)
}
func (f *fakeMetrics) RecordJournalMutation(string, string) {}
func (f *fakeMetrics) RecordPublishFailure()                {}
func (f *fakeMetrics) RecordDailyRiskUsed(float64)          {}
func (f *fakeMetrics) RecordLatency(string, float64)        {}

type pipelineFixture struct {
	pipeline *Pipeline
	journal  *journal.Store
	notifier *fakeNotifier
	metrics  *fakeMetrics
}

func newFixture(t *testing.T, gcfg guard.Config, enr *models.Enrichment, dec *models.Decision) *pipelineFixture {
	t.Helper()

	g, err := guard.New(gcfg, guard.NewMemoryStore(time.Duration(gcfg.DedupWindowSeconds)*time.Second), nil)
	require.NoError(t, err)

	persister, err := journal.NewCSVPersister(filepath.Join(t.TempDir(), "journal.csv"))
	require.NoError(t, err)
	store, err := journal.NewStore(persister, nil)
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	metrics := &fakeMetrics{}
	p := NewPipeline(g, store, &fakeEnricher{enrichment: enr}, &fakeAnalyst{decision: dec}, notifier, metrics, nil)

	return &pipelineFixture{pipeline: p, journal: store, notifier: notifier, metrics: metrics}
}

func testSignal() *models.SignalDescriptor {
	return &models.SignalDescriptor{
		Symbol:    "btcusdt",
		Timeframe: "15m",
		Setup:     models.SetupStrongLong,
		Close:     models.Float(68000),
	}
}

func TestProcessAdmitsJournalsAndPublishes(t *testing.T) {
	fx := newFixture(t,
		guard.Config{CooldownSeconds: 300},
		&models.Enrichment{Funding: models.Float(-0.0001)},
		&models.Decision{Decision: models.DecisionLong, Entry: 68100, SL: 67000, TP1: 69000, TP2: 70000, RR: 2.1, Why: "demand zone"},
	)

	res, err := fx.pipeline.Process(context.Background(), testSignal(), "api")
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	require.NotEmpty(t, res.TradeID)
	assert.Contains(t, res.TradeID, "BTCUSDT-")
	assert.True(t, res.Published)

	// The journal entry carries the merged decision and is live.
	e, err := fx.journal.Get(res.TradeID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, e.Status)
	assert.Equal(t, models.DecisionLong, e.Decision)
	require.NotNil(t, e.SL)
	assert.Equal(t, 67000.0, *e.SL)

	// Main channel and archive both got the alert.
	require.Len(t, fx.notifier.published, 1)
	assert.Contains(t, fx.notifier.published[0], "LONG")
	assert.Contains(t, fx.notifier.published[0], res.TradeID)
	assert.Len(t, fx.notifier.archived, 1)

	assert.Equal(t, []string{"api"}, fx.metrics.signals)
	assert.Equal(t, []string{"admit"}, fx.metrics.admissions)
}

func TestProcessGuardRejectionIsSideEffectFree(t *testing.T) {
	fx := newFixture(t,
		guard.Config{CooldownSeconds: 300},
		&models.Enrichment{},
		&models.Decision{Decision: models.DecisionLong},
	)
	ctx := context.Background()

	first, err := fx.pipeline.Process(ctx, testSignal(), "api")
	require.NoError(t, err)
	require.True(t, first.Admitted)

	second, err := fx.pipeline.Process(ctx, testSignal(), "api")
	require.NoError(t, err)
	assert.False(t, second.Admitted)
	assert.Equal(t, string(guard.ReasonCooldown), second.Reason)

	// Rejection leaves no journal entry and publishes nothing new.
	assert.Equal(t, 1, fx.journal.Len())
	assert.Len(t, fx.notifier.published, 1)
}

func TestProcessNegativeNewsBlocksBeforeGuard(t *testing.T) {
	fx := newFixture(t,
		guard.Config{},
		&models.Enrichment{NewsScore: -3, NewsBrief: "exchange hack(-2)", NewsBlock: true},
		&models.Decision{Decision: models.DecisionLong},
	)

	res, err := fx.pipeline.Process(context.Background(), testSignal(), "tradingview")
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Equal(t, ReasonNegativeNews, res.Reason)

	assert.Zero(t, fx.journal.Len())
	assert.Empty(t, fx.notifier.published)
	assert.Equal(t, []string{ReasonNegativeNews}, fx.metrics.admissions)
}

func TestProcessWaitDecisionStaysNew(t *testing.T) {
	fx := newFixture(t,
		guard.Config{},
		&models.Enrichment{},
		&models.Decision{Decision: models.DecisionWait, Why: "chop"},
	)

	res, err := fx.pipeline.Process(context.Background(), testSignal(), "api")
	require.NoError(t, err)
	require.True(t, res.Admitted)

	e, err := fx.journal.Get(res.TradeID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, e.Status)
}

func TestProcessComputesQualityWhenMissing(t *testing.T) {
	// Quality 0 from empty enrichment, min score 1: rejected by the guard.
	fx := newFixture(t,
		guard.Config{QualityMinScore: 1},
		&models.Enrichment{},
		&models.Decision{Decision: models.DecisionLong},
	)

	res, err := fx.pipeline.Process(context.Background(), testSignal(), "api")
	require.NoError(t, err)
	assert.False(t, res.Admitted)
	assert.Equal(t, string(guard.ReasonLowQuality), res.Reason)

	// A caller-supplied score passes straight through.
	sig := testSignal()
	sig.Quality = models.IntPtr(2)
	res, err = fx.pipeline.Process(context.Background(), sig, "api")
	require.NoError(t, err)
	assert.True(t, res.Admitted)
}

func TestProcessExplicitTradeIDIsKept(t *testing.T) {
	fx := newFixture(t, guard.Config{}, &models.Enrichment{}, &models.Decision{Decision: models.DecisionShort})

	sig := testSignal()
	sig.TradeID = "manual-42"
	res, err := fx.pipeline.Process(context.Background(), sig, "api")
	require.NoError(t, err)
	assert.Equal(t, "manual-42", res.TradeID)

	_, err = fx.journal.Get("manual-42")
	assert.NoError(t, err)
}

func TestProcessImagePublishesActionableReads(t *testing.T) {
	fx := newFixture(t, guard.Config{}, &models.Enrichment{},
		&models.Decision{Decision: models.DecisionLong, Entry: 68000, SL: 67000, TP1: 69000, Why: "breakout retest"})

	d, err := fx.pipeline.ProcessImage(context.Background(), "https://example.test/chart.jpg", "scalp idea")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionLong, d.Decision)
	require.Len(t, fx.notifier.published, 1)
	assert.Contains(t, fx.notifier.published[0], "Chart read")

	// WAIT reads are not broadcast.
	fx2 := newFixture(t, guard.Config{}, &models.Enrichment{}, &models.Decision{Decision: models.DecisionWait})
	_, err = fx2.pipeline.ProcessImage(context.Background(), "https://example.test/chart.jpg", "")
	require.NoError(t, err)
	assert.Empty(t, fx2.notifier.published)
}
