package di

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/guard"
	"SignalDesk/internal/handler/api"
	"SignalDesk/internal/journal"
	internalrepo "SignalDesk/internal/repository"
	"SignalDesk/internal/service/enrich"
	"SignalDesk/internal/service/llm"
	"SignalDesk/internal/service/telegram"
	"SignalDesk/internal/usecase"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStateStore selects the guard state backend.
func ProvideStateStore(cfg *config.Config) (guard.StateStore, error) {
	dedup := time.Duration(cfg.Guard.DedupWindowSeconds) * time.Second
	switch cfg.Guard.StateBackend {
	case "redis":
		return guard.NewRedisStore(
			cfg.Guard.Redis.Addr,
			cfg.Guard.Redis.Password,
			cfg.Guard.Redis.DB,
			cfg.Guard.Redis.Prefix,
			time.Duration(cfg.Guard.CooldownSeconds)*time.Second,
			dedup,
		)
	default:
		return guard.NewMemoryStore(dedup), nil
	}
}

// ProvideGuard creates the admission guard.
func ProvideGuard(cfg *config.Config, store guard.StateStore, log *applogger.Logger) (*guard.Guard, error) {
	return guard.New(guard.Config{
		CooldownSeconds:    cfg.Guard.CooldownSeconds,
		DedupWindowSeconds: cfg.Guard.DedupWindowSeconds,
		QualityMinScore:    cfg.Guard.QualityMinScore,
		ForbiddenUTCHours:  cfg.Guard.ForbiddenUTCHours,
		RiskPerTradePct:    cfg.Guard.RiskPerTradePct,
		MaxDailyRiskPct:    cfg.Guard.MaxDailyRiskPct,
	}, store, log)
}

// ProvideMirror selects the journal mutation mirror backend.
func ProvideMirror(cfg *config.Config, log *applogger.Logger) (repository.Mirror, error) {
	switch cfg.Journal.MirrorBackend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Journal.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Journal.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Journal.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Journal.Kafka.MaxAttempts),
			pkgkafka.WithTimeouts(cfg.Journal.Kafka.WriteTimeout, cfg.Journal.Kafka.ReadTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka mirror: %w", err)
		}
		return internalrepo.NewKafkaMirror(producer, cfg.Journal.Kafka.Topic, log), nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Journal.ClickHouse.Host),
			pkgch.WithPort(cfg.Journal.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Journal.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Journal.ClickHouse.User, cfg.Journal.ClickHouse.Password),
			pkgch.WithDialTimeout(cfg.Journal.ClickHouse.DialTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse mirror: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return internalrepo.NewClickHouseMirror(ctx, client, cfg.Journal.ClickHouse.Table, log)

	default:
		return internalrepo.NopMirror{}, nil
	}
}

// ProvideJournal creates the durable trade journal.
func ProvideJournal(cfg *config.Config, mirror repository.Mirror, m repository.Metrics, log *applogger.Logger) (*journal.Store, error) {
	persister, err := journal.NewCSVPersister(cfg.Journal.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("journal persister: %w", err)
	}
	return journal.NewStore(persister, log,
		journal.WithMirror(mirror),
		journal.WithMetrics(m),
	)
}

// ProvideEnricher creates the market data and news enricher.
func ProvideEnricher(cfg *config.Config, log *applogger.Logger) repository.Enricher {
	client := xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	binance := enrich.NewBinanceClient(client, log)
	news := enrich.NewNewsClient(cfg.News.CryptoPanicToken, cfg.News.CacheTTL, client, log)
	return enrich.NewService(binance, news, cfg.News.BlockEnabled)
}

// ProvideAnalyst creates the OpenAI analyst.
func ProvideAnalyst(cfg *config.Config, log *applogger.Logger) repository.Analyst {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.OpenAI.Timeout))
	return llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, client, log)
}

// ProvideNotifier creates the Telegram notifier.
func ProvideNotifier(cfg *config.Config, log *applogger.Logger) repository.Notifier {
	client := xhttp.NewClient(xhttp.WithTimeout(15 * time.Second))
	archiveID := cfg.Telegram.JournalChannelID
	if !cfg.Telegram.ForwardToChannel {
		archiveID = ""
	}
	return telegram.NewClient(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChannelID,
		archiveID,
		client,
		log,
	)
}

// ProvidePipeline creates the signal pipeline.
func ProvidePipeline(
	g *guard.Guard,
	j *journal.Store,
	enricher repository.Enricher,
	analyst repository.Analyst,
	notifier repository.Notifier,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(g, j, enricher, analyst, notifier, m, log)
}

// ProvideHTTPHandler bundles the route groups behind one registration.
func ProvideHTTPHandler(
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	store *journal.Store,
	notifier repository.Notifier,
	cfg *config.Config,
) xhttp.Handler {
	return &routeSet{
		signals:  api.NewSignalHandler(log, pipeline, store, cfg.TradingView.Secret, Version, cfg.Journal.RecentWindow),
		telegram: api.NewTelegramHandler(log, pipeline, store, notifier),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	mirror repository.Mirror,
) *server.App {
	return server.New(cfg, log, handler, mirror)
}
