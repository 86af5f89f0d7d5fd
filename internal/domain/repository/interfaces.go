package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// Enricher provides the free market data and news sentiment the pipeline
// feeds into the quality scorer and the LLM prompt.
type Enricher interface {
	Enrich(ctx context.Context, symbol, setup string) (*models.Enrichment, error)
}

// Analyst turns an enriched signal into the strict decision schema.
type Analyst interface {
	Analyze(ctx context.Context, sig *models.SignalDescriptor, enr *models.Enrichment) (*models.Decision, error)
	AnalyzeImage(ctx context.Context, imageURL, caption string) (*models.Decision, error)
}

// Notifier publishes formatted alerts outward. Failures are reported but
// never block the journal.
type Notifier interface {
	Publish(ctx context.Context, text string) error
	PublishArchive(ctx context.Context, text string) error
	Reply(ctx context.Context, chatID int64, text string) error
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Mirror receives a copy of every journal mutation. Fire-and-forget.
type Mirror interface {
	MirrorMutation(ctx context.Context, verb string, entry *models.JournalEntry) error
	Close() error
}

// Metrics records operational counters for the signal flow.
type Metrics interface {
	RecordSignal(source string)
	RecordAdmission(admitted bool, reason string)
	RecordJournalMutation(verb, result string)
	RecordPublishFailure()
	RecordDailyRiskUsed(pct float64)
	RecordLatency(op string, seconds float64)
}
