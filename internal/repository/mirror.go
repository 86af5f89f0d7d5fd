package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
)

// NopMirror discards mutations. Used when no mirror backend is configured.
type NopMirror struct{}

func (NopMirror) MirrorMutation(context.Context, string, *models.JournalEntry) error { return nil }
func (NopMirror) Close() error                                                      { return nil }

// mutationEvent is the wire shape shared by both mirror backends.
type mutationEvent struct {
	Verb      string               `json:"verb"`
	Entry     *models.JournalEntry `json:"entry"`
	Timestamp time.Time            `json:"ts"`
}

// KafkaMirror publishes each journal mutation to a topic, keyed by
// trade_id so a consumer sees one trade's events in order.
type KafkaMirror struct {
	producer *kafka.Producer
	topic    string
	log      *applogger.Logger
}

var _ repository.Mirror = (*KafkaMirror)(nil)

func NewKafkaMirror(producer *kafka.Producer, topic string, log *applogger.Logger) *KafkaMirror {
	if log == nil {
		log = applogger.Nop()
	}
	return &KafkaMirror{producer: producer, topic: topic, log: log}
}

func (m *KafkaMirror) MirrorMutation(ctx context.Context, verb string, entry *models.JournalEntry) error {
	event := mutationEvent{Verb: verb, Entry: entry, Timestamp: time.Now().UTC()}
	if err := m.producer.Publish(ctx, m.topic, []byte(entry.TradeID), event); err != nil {
		m.log.Warn("kafka mirror publish failed",
			applogger.String("trade_id", entry.TradeID),
			applogger.Error(err))
		return err
	}
	return nil
}

func (m *KafkaMirror) Close() error {
	return m.producer.Close()
}

// ClickHouseMirror appends journal mutations to an events table for
// offline analysis.
type ClickHouseMirror struct {
	client *clickhouse.Client
	table  string
	log    *applogger.Logger
}

var _ repository.Mirror = (*ClickHouseMirror)(nil)

func NewClickHouseMirror(ctx context.Context, client *clickhouse.Client, table string, log *applogger.Logger) (*ClickHouseMirror, error) {
	if log == nil {
		log = applogger.Nop()
	}
	if table == "" {
		table = "journal_events"
	}
	m := &ClickHouseMirror{client: client, table: table, log: log}
	if err := client.InitSchema(ctx, []string{m.schema()}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ClickHouseMirror) schema() string {
	return `CREATE TABLE IF NOT EXISTS ` + m.table + ` (
		ts        DateTime64(3, 'UTC'),
		verb      LowCardinality(String),
		trade_id  String,
		symbol    LowCardinality(String),
		timeframe LowCardinality(String),
		setup     LowCardinality(String),
		status    LowCardinality(String),
		pnl       Nullable(Float64),
		decision  String
	) ENGINE = MergeTree()
	ORDER BY (trade_id, ts)`
}

func (m *ClickHouseMirror) MirrorMutation(ctx context.Context, verb string, entry *models.JournalEntry) error {
	query := `INSERT INTO ` + m.table +
		` (ts, verb, trade_id, symbol, timeframe, setup, status, pnl, decision)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := m.client.DB().ExecContext(ctx, query,
		time.Now().UTC(), verb, entry.TradeID, entry.Symbol, entry.Timeframe,
		entry.Setup, string(entry.Status), entry.PnL, entry.Decision)
	if err != nil {
		m.log.Warn("clickhouse mirror insert failed",
			applogger.String("trade_id", entry.TradeID),
			applogger.Error(err))
		return err
	}
	return nil
}

func (m *ClickHouseMirror) Close() error {
	return m.client.Close()
}
