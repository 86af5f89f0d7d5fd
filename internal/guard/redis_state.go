package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs guard state with Redis so that multiple SignalDesk
// instances share one cooldown/dedup/risk view. Cooldown stamps and
// fingerprints expire via key TTLs; the risk accumulator lives in a
// per-UTC-day key so midnight reset is a key change, not a mutation.
type RedisStore struct {
	rdb         *redis.Client
	prefix      string
	cooldown    time.Duration
	dedupWindow time.Duration
}

// NewRedisStore creates a Redis-backed state store and verifies the
// connection.
func NewRedisStore(addr, password string, db int, prefix string, cooldown, dedupWindow time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if prefix == "" {
		prefix = "signaldesk"
	}
	return &RedisStore{
		rdb:         rdb,
		prefix:      prefix,
		cooldown:    cooldown,
		dedupWindow: dedupWindow,
	}, nil
}

func (s *RedisStore) LastAdmitted(ctx context.Context, symbol string) (time.Time, bool, error) {
	v, err := s.rdb.Get(ctx, s.key("cooldown", symbol)).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(v, 0).UTC(), true, nil
}

func (s *RedisStore) FingerprintSeen(ctx context.Context, fp string) (time.Time, bool, error) {
	v, err := s.rdb.Get(ctx, s.key("fp", fp)).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(v, 0).UTC(), true, nil
}

func (s *RedisStore) DailyRiskUsed(ctx context.Context, day string) (float64, error) {
	v, err := s.rdb.Get(ctx, s.key("risk", day)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = 0
	}
	return v, nil
}

func (s *RedisStore) RecordAdmission(ctx context.Context, symbol, fp string, riskPct float64, now time.Time) error {
	day := now.Format("2006-01-02")

	pipe := s.rdb.TxPipeline()
	if s.cooldown > 0 {
		pipe.Set(ctx, s.key("cooldown", symbol), now.Unix(), s.cooldown)
	}
	if s.dedupWindow > 0 {
		pipe.Set(ctx, s.key("fp", fp), now.Unix(), s.dedupWindow)
	}
	riskKey := s.key("risk", day)
	pipe.IncrByFloat(ctx, riskKey, riskPct)
	// Keep the day key past midnight for diagnostics, then drop it.
	pipe.Expire(ctx, riskKey, 48*time.Hour)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis admission commit: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) key(kind, id string) string {
	return fmt.Sprintf("%s:guard:%s:%s", s.prefix, kind, id)
}
