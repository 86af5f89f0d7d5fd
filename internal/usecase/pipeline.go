package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/guard"
	"SignalDesk/internal/journal"
	"SignalDesk/internal/service/enrich"
	applogger "SignalDesk/pkg/logger"
)

// ReasonNegativeNews rejects a signal before the guard when the news
// sentiment for its symbol is strongly negative.
const ReasonNegativeNews = "negative_news"

// Result is the outcome of one signal run, echoed back to the caller.
type Result struct {
	TradeID   string           `json:"trade_id,omitempty"`
	Admitted  bool             `json:"admitted"`
	Reason    string           `json:"reason,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	Decision  *models.Decision `json:"decision,omitempty"`
	Published bool             `json:"published"`
}

// Pipeline runs one inbound signal end to end: enrich, admit, journal,
// analyze, publish. Collaborator failures after admission degrade the
// run but never lose the journal entry.
type Pipeline struct {
	guard    *guard.Guard
	journal  *journal.Store
	enricher repository.Enricher
	analyst  repository.Analyst
	notifier repository.Notifier
	metrics  repository.Metrics
	log      *applogger.Logger
	nowFn    func() time.Time
}

func NewPipeline(
	g *guard.Guard,
	j *journal.Store,
	enricher repository.Enricher,
	analyst repository.Analyst,
	notifier repository.Notifier,
	metrics repository.Metrics,
	log *applogger.Logger,
) *Pipeline {
	if log == nil {
		log = applogger.Nop()
	}
	return &Pipeline{
		guard:    g,
		journal:  j,
		enricher: enricher,
		analyst:  analyst,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the pipeline's timestamp source for tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.nowFn = now
	return p
}

// Process runs the full flow for one signal. source labels where the
// signal came from (api, tradingview, telegram) for metrics only.
func (p *Pipeline) Process(ctx context.Context, sig *models.SignalDescriptor, source string) (*Result, error) {
	start := p.nowFn()
	sig.Normalize()
	p.metrics.RecordSignal(source)

	enr, err := p.enricher.Enrich(ctx, sig.Symbol, sig.Setup)
	if err != nil {
		p.log.Warn("enrichment failed", applogger.String("symbol", sig.Symbol), applogger.Error(err))
		enr = &models.Enrichment{}
	}
	if sig.Quality == nil {
		sig.Quality = models.IntPtr(qualityOf(sig.Setup, enr))
	}

	if enr.NewsBlock {
		p.metrics.RecordAdmission(false, ReasonNegativeNews)
		p.log.Info("signal blocked by news",
			applogger.String("symbol", sig.Symbol),
			applogger.Int("news_score", enr.NewsScore))
		return &Result{Reason: ReasonNegativeNews, Detail: enr.NewsBrief}, nil
	}

	now := p.nowFn()
	adm, err := p.guard.Evaluate(ctx, sig, now)
	if err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}
	p.metrics.RecordAdmission(adm.Admitted, string(adm.Reason))
	if !adm.Admitted {
		p.log.Info("signal rejected",
			applogger.String("symbol", sig.Symbol),
			applogger.String("reason", string(adm.Reason)),
			applogger.String("detail", adm.Detail))
		return &Result{Reason: string(adm.Reason), Detail: adm.Detail}, nil
	}

	if used, rerr := p.guard.DailyRiskUsed(ctx, now); rerr == nil {
		p.metrics.RecordDailyRiskUsed(used)
	}

	tradeID := sig.TradeID
	if tradeID == "" {
		tradeID = fmt.Sprintf("%s-%s", sig.Symbol, now.Format("20060102-150405"))
	}

	if _, err := p.journal.Upsert(ctx, tradeID, entryFromSignal(sig)); err != nil {
		return nil, fmt.Errorf("journal upsert: %w", err)
	}

	decision, err := p.analyst.Analyze(ctx, sig, enr)
	if err != nil {
		p.log.Error("analysis failed", applogger.String("trade_id", tradeID), applogger.Error(err))
		decision = &models.Decision{Decision: models.DecisionWait, Why: "analysis failed"}
	}

	result := &Result{TradeID: tradeID, Admitted: true, Decision: decision}

	patch := entryFromDecision(decision)
	if decision.Decision != models.DecisionWait {
		patch.Status = models.StatusActive
	}
	if _, err := p.journal.Upsert(ctx, tradeID, patch); err != nil {
		p.log.Error("decision merge failed", applogger.String("trade_id", tradeID), applogger.Error(err))
		return result, nil
	}

	text := FormatAlert(tradeID, sig, enr, decision)
	if err := p.notifier.Publish(ctx, text); err != nil {
		p.metrics.RecordPublishFailure()
		p.log.Error("publish failed", applogger.String("trade_id", tradeID), applogger.Error(err))
	} else {
		result.Published = true
		if err := p.notifier.PublishArchive(ctx, text); err != nil {
			p.log.Warn("archive publish failed", applogger.Error(err))
		}
	}

	p.metrics.RecordLatency("process_signal", p.nowFn().Sub(start).Seconds())
	return result, nil
}

// ProcessImage runs the chart-screenshot flow: vision analysis and
// publication, with no guard or journal involvement since the image
// carries no machine-readable signal identity.
func (p *Pipeline) ProcessImage(ctx context.Context, imageURL, caption string) (*models.Decision, error) {
	p.metrics.RecordSignal("telegram_photo")

	decision, err := p.analyst.AnalyzeImage(ctx, imageURL, caption)
	if err != nil {
		return nil, fmt.Errorf("vision analysis: %w", err)
	}

	if decision.Decision != models.DecisionWait {
		if err := p.notifier.Publish(ctx, FormatChartAlert(decision)); err != nil {
			p.metrics.RecordPublishFailure()
			p.log.Error("chart publish failed", applogger.Error(err))
		}
	}
	return decision, nil
}

// DailyRiskUsed exposes the guard accumulator for diagnostics.
func (p *Pipeline) DailyRiskUsed(ctx context.Context) (float64, error) {
	return p.guard.DailyRiskUsed(ctx, p.nowFn())
}

func qualityOf(setup string, enr *models.Enrichment) int {
	return enrich.QualityScore(setup, enr.Funding, enr.LSRatio5m, enr.LiqRecent)
}

func entryFromSignal(sig *models.SignalDescriptor) *models.JournalEntry {
	return &models.JournalEntry{
		Symbol:    sig.Symbol,
		Timeframe: sig.Timeframe,
		Setup:     sig.Setup,
		EntryMin:  sig.EntryMin,
		EntryMax:  sig.EntryMax,
		SL:        sig.SL,
		TP1:       sig.TP1,
		TP2:       sig.TP2,
		RR:        sig.RR,
		RiskPct:   sig.RiskPct,
	}
}

func entryFromDecision(d *models.Decision) *models.JournalEntry {
	patch := &models.JournalEntry{
		Decision: d.Decision,
		Why:      d.Why,
		RiskNote: d.Risk,
	}
	if d.Entry != 0 {
		patch.EntryMin = models.Float(d.Entry)
		patch.EntryMax = models.Float(d.Entry)
	}
	if d.SL != 0 {
		patch.SL = models.Float(d.SL)
	}
	if d.TP1 != 0 {
		patch.TP1 = models.Float(d.TP1)
	}
	if d.TP2 != 0 {
		patch.TP2 = models.Float(d.TP2)
	}
	if d.RR != 0 {
		patch.RR = models.Float(d.RR)
	}
	return patch
}
