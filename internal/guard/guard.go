package guard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	applogger "SignalDesk/pkg/logger"
)

// Reason is a stable machine-readable rejection code.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonForbiddenHours Reason = "forbidden_hours"
	ReasonCooldown       Reason = "cooldown"
	ReasonDuplicate      Reason = "duplicate"
	ReasonLowQuality     Reason = "low_quality"
	ReasonRiskCap        Reason = "risk_cap"
)

// Admission is the outcome of one guard evaluation.
type Admission struct {
	Admitted bool
	Reason   Reason
	Detail   string
}

// Config holds the guard thresholds. A zero value disables the
// corresponding check.
type Config struct {
	CooldownSeconds    int
	DedupWindowSeconds int
	QualityMinScore    int
	ForbiddenUTCHours  string
	RiskPerTradePct    float64
	MaxDailyRiskPct    float64
}

// Guard decides whether an incoming signal may proceed to publication.
// Evaluation and the admit-side state commit run under one lock so two
// concurrent signals for the same symbol cannot both slip through.
type Guard struct {
	cfg   Config
	hours []hourRange
	store StateStore
	log   *applogger.Logger

	mu sync.Mutex
}

// New creates a guard over the given state store.
func New(cfg Config, store StateStore, log *applogger.Logger) (*Guard, error) {
	hours, err := parseForbiddenHours(cfg.ForbiddenUTCHours)
	if err != nil {
		return nil, fmt.Errorf("forbidden hours: %w", err)
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &Guard{cfg: cfg, hours: hours, store: store, log: log}, nil
}

// Evaluate runs the fixed-order check pipeline. The first failing check
// wins; rejections never touch state. On admit the cooldown stamp, dedup
// fingerprint and daily risk accumulator are committed together.
func (g *Guard) Evaluate(ctx context.Context, sig *models.SignalDescriptor, now time.Time) (Admission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now = now.UTC()

	if adm := g.checkForbiddenHours(now); !adm.Admitted {
		return adm, nil
	}

	if g.cfg.CooldownSeconds > 0 {
		last, seen, err := g.store.LastAdmitted(ctx, sig.Symbol)
		if err != nil {
			return Admission{}, fmt.Errorf("cooldown lookup: %w", err)
		}
		if seen {
			elapsed := now.Sub(last)
			window := time.Duration(g.cfg.CooldownSeconds) * time.Second
			if elapsed < window {
				left := int((window - elapsed).Seconds())
				return Admission{Reason: ReasonCooldown, Detail: strconv.Itoa(left) + "s left"}, nil
			}
		}
	}

	fp := sig.Fingerprint()
	if g.cfg.DedupWindowSeconds > 0 {
		seenAt, seen, err := g.store.FingerprintSeen(ctx, fp)
		if err != nil {
			return Admission{}, fmt.Errorf("dedup lookup: %w", err)
		}
		if seen && now.Sub(seenAt) < time.Duration(g.cfg.DedupWindowSeconds)*time.Second {
			return Admission{Reason: ReasonDuplicate, Detail: fp}, nil
		}
	}

	if g.cfg.QualityMinScore > 0 && sig.Quality != nil && *sig.Quality < g.cfg.QualityMinScore {
		return Admission{
			Reason: ReasonLowQuality,
			Detail: fmt.Sprintf("score %d < %d", *sig.Quality, g.cfg.QualityMinScore),
		}, nil
	}

	risk := g.cfg.RiskPerTradePct
	if sig.RiskPct != nil {
		risk = *sig.RiskPct
	}
	if g.cfg.MaxDailyRiskPct > 0 {
		used, err := g.store.DailyRiskUsed(ctx, dayKey(now))
		if err != nil {
			return Admission{}, fmt.Errorf("risk lookup: %w", err)
		}
		if used+risk > g.cfg.MaxDailyRiskPct {
			return Admission{
				Reason: ReasonRiskCap,
				Detail: fmt.Sprintf("used %.2f + %.2f > %.2f", used, risk, g.cfg.MaxDailyRiskPct),
			}, nil
		}
	}

	if err := g.store.RecordAdmission(ctx, sig.Symbol, fp, risk, now); err != nil {
		return Admission{}, fmt.Errorf("record admission: %w", err)
	}

	g.log.Debug("signal admitted",
		applogger.String("symbol", sig.Symbol),
		applogger.Float64("risk_pct", risk),
	)
	return Admission{Admitted: true}, nil
}

// DailyRiskUsed reports the accumulated risk for the UTC day of now.
func (g *Guard) DailyRiskUsed(ctx context.Context, now time.Time) (float64, error) {
	return g.store.DailyRiskUsed(ctx, dayKey(now.UTC()))
}

func (g *Guard) checkForbiddenHours(now time.Time) Admission {
	h := now.Hour()
	for _, r := range g.hours {
		if r.contains(h) {
			return Admission{Reason: ReasonForbiddenHours, Detail: r.String()}
		}
	}
	return Admission{Admitted: true}
}

func dayKey(now time.Time) string {
	return now.Format("2006-01-02")
}

// hourRange is an inclusive UTC hour range. From > To wraps past midnight,
// e.g. 22-3 covers 22,23,0,1,2,3.
type hourRange struct {
	From, To int
}

func (r hourRange) contains(h int) bool {
	if r.From <= r.To {
		return h >= r.From && h <= r.To
	}
	return h >= r.From || h <= r.To
}

func (r hourRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

func parseForbiddenHours(spec string) ([]hourRange, error) {
	var out []hourRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if a, b, ok := strings.Cut(part, "-"); ok {
			from, err := parseHour(a)
			if err != nil {
				return nil, err
			}
			to, err := parseHour(b)
			if err != nil {
				return nil, err
			}
			out = append(out, hourRange{From: from, To: to})
			continue
		}
		h, err := parseHour(part)
		if err != nil {
			return nil, err
		}
		out = append(out, hourRange{From: h, To: h})
	}
	return out, nil
}

func parseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d out of range", h)
	}
	return h, nil
}
