package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDesk/internal/domain/models"
)

func sig(symbol string, price float64) *models.SignalDescriptor {
	return &models.SignalDescriptor{
		Symbol:    symbol,
		Timeframe: "15m",
		Setup:     models.SetupStrongLong,
		Close:     models.Float(price),
	}
}

func newGuard(t *testing.T, cfg Config) *Guard {
	t.Helper()
	g, err := New(cfg, NewMemoryStore(time.Duration(cfg.DedupWindowSeconds)*time.Second), nil)
	require.NoError(t, err)
	return g
}

func TestCooldownRejectsSecondSignal(t *testing.T) {
	g := newGuard(t, Config{CooldownSeconds: 300})
	ctx := context.Background()
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	adm, err := g.Evaluate(ctx, sig("BTCUSDT", 68000), t0)
	require.NoError(t, err)
	assert.True(t, adm.Admitted)

	// Different price, same symbol, 200s later: blocked by cooldown.
	adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68100), t0.Add(200*time.Second))
	require.NoError(t, err)
	assert.False(t, adm.Admitted)
	assert.Equal(t, ReasonCooldown, adm.Reason)

	// Other symbols are unaffected.
	adm, err = g.Evaluate(ctx, sig("ETHUSDT", 3200), t0.Add(200*time.Second))
	require.NoError(t, err)
	assert.True(t, adm.Admitted)

	// Past the window the symbol admits again.
	adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68100), t0.Add(301*time.Second))
	require.NoError(t, err)
	assert.True(t, adm.Admitted)
}

func TestDuplicateFingerprintWithinWindow(t *testing.T) {
	g := newGuard(t, Config{DedupWindowSeconds: 180})
	ctx := context.Background()
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	adm, err := g.Evaluate(ctx, sig("BTCUSDT", 68000), t0)
	require.NoError(t, err)
	assert.True(t, adm.Admitted)

	adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68000), t0.Add(60*time.Second))
	require.NoError(t, err)
	assert.False(t, adm.Admitted)
	assert.Equal(t, ReasonDuplicate, adm.Reason)

	// Sub-cent jitter rounds onto the same fingerprint.
	adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68000.001), t0.Add(60*time.Second))
	require.NoError(t, err)
	assert.Equal(t, ReasonDuplicate, adm.Reason)

	// Expired fingerprint admits again.
	adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68000), t0.Add(181*time.Second))
	require.NoError(t, err)
	assert.True(t, adm.Admitted)
}

func TestForbiddenHoursWraparound(t *testing.T) {
	g := newGuard(t, Config{ForbiddenUTCHours: "22-3"})
	ctx := context.Background()

	for _, h := range []int{22, 23, 0, 1, 3} {
		now := time.Date(2026, 8, 31, h, 30, 0, 0, time.UTC)
		adm, err := g.Evaluate(ctx, sig("BTCUSDT", 68000), now)
		require.NoError(t, err)
		assert.Equal(t, ReasonForbiddenHours, adm.Reason, "hour %d", h)
	}

	adm, err := g.Evaluate(ctx, sig("BTCUSDT", 68000), time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, adm.Admitted)
}

func TestForbiddenHoursList(t *testing.T) {
	g := newGuard(t, Config{ForbiddenUTCHours: "0-3,14"})
	ctx := context.Background()

	adm, err := g.Evaluate(ctx, sig("BTCUSDT", 68000), time.Date(2026, 8, 31, 14, 5, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, ReasonForbiddenHours, adm.Reason)

	adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68000), time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, adm.Admitted)
}

func TestInvalidForbiddenHours(t *testing.T) {
	_, err := New(Config{ForbiddenUTCHours: "25"}, NewMemoryStore(0), nil)
	assert.Error(t, err)

	_, err = New(Config{ForbiddenUTCHours: "a-b"}, NewMemoryStore(0), nil)
	assert.Error(t, err)
}

func TestLowQualityRejected(t *testing.T) {
	g := newGuard(t, Config{QualityMinScore: 2})
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	s := sig("BTCUSDT", 68000)
	s.Quality = models.IntPtr(1)
	adm, err := g.Evaluate(ctx, s, now)
	require.NoError(t, err)
	assert.Equal(t, ReasonLowQuality, adm.Reason)

	// No score computed: the check is skipped.
	s2 := sig("ETHUSDT", 3200)
	adm, err = g.Evaluate(ctx, s2, now)
	require.NoError(t, err)
	assert.True(t, adm.Admitted)

	s3 := sig("SOLUSDT", 150)
	s3.Quality = models.IntPtr(2)
	adm, err = g.Evaluate(ctx, s3, now)
	require.NoError(t, err)
	assert.True(t, adm.Admitted)
}

func TestDailyRiskCapAndMidnightReset(t *testing.T) {
	g := newGuard(t, Config{RiskPerTradePct: 2.0, MaxDailyRiskPct: 6.0})
	ctx := context.Background()
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	for i, sym := range symbols {
		adm, err := g.Evaluate(ctx, sig(sym, float64(1000+i)), t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.True(t, adm.Admitted, "signal %d", i)
	}

	used, err := g.DailyRiskUsed(ctx, t0)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, used, 1e-9)

	adm, err := g.Evaluate(ctx, sig("XRPUSDT", 2.5), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, adm.Admitted)
	assert.Equal(t, ReasonRiskCap, adm.Reason)

	// The accumulator belongs to the UTC day; next day it starts at zero.
	nextDay := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	adm, err = g.Evaluate(ctx, sig("XRPUSDT", 2.5), nextDay)
	require.NoError(t, err)
	assert.True(t, adm.Admitted)

	used, err = g.DailyRiskUsed(ctx, nextDay)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, used, 1e-9)
}

func TestSignalRiskOverridesDefault(t *testing.T) {
	g := newGuard(t, Config{RiskPerTradePct: 2.0, MaxDailyRiskPct: 6.0})
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	s := sig("BTCUSDT", 68000)
	s.RiskPct = models.Float(5.0)
	adm, err := g.Evaluate(ctx, s, now)
	require.NoError(t, err)
	assert.True(t, adm.Admitted)

	// 5 used; another 2 would breach the cap.
	adm, err = g.Evaluate(ctx, sig("ETHUSDT", 3200), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, ReasonRiskCap, adm.Reason)
}

func TestRejectionsLeaveStateUntouched(t *testing.T) {
	g := newGuard(t, Config{CooldownSeconds: 300, DedupWindowSeconds: 180, RiskPerTradePct: 2.0, MaxDailyRiskPct: 6.0})
	ctx := context.Background()
	t0 := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	adm, err := g.Evaluate(ctx, sig("BTCUSDT", 68000), t0)
	require.NoError(t, err)
	require.True(t, adm.Admitted)

	// A cooldown rejection must not charge risk or refresh the stamp.
	for i := 0; i < 5; i++ {
		adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68000), t0.Add(time.Duration(i+1)*time.Second))
		require.NoError(t, err)
		require.False(t, adm.Admitted)
	}

	used, err := g.DailyRiskUsed(ctx, t0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, used, 1e-9)

	// The original stamp still governs the window end.
	adm, err = g.Evaluate(ctx, sig("BTCUSDT", 68500), t0.Add(301*time.Second))
	require.NoError(t, err)
	assert.True(t, adm.Admitted)
}

func TestDisabledChecks(t *testing.T) {
	g := newGuard(t, Config{})
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)

	// Same signal three times in a row: every check is disabled.
	for i := 0; i < 3; i++ {
		adm, err := g.Evaluate(ctx, sig("BTCUSDT", 68000), now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.True(t, adm.Admitted)
	}
}
