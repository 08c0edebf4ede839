// Package dedupe flags re-uploaded media through a RedisBloom filter keyed by
// content hash. It is a probabilistic fast path: a hit means "probably seen
// before", so callers may annotate but never skip analysis on it.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cybershield/config"
	"cybershield/logging"
)

// Config configures the RedisBloom connection and filter shape.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Key       string
	TTL       time.Duration
	Capacity  int
	ErrorRate float64
}

// ConfigFromEnv reads the bloom settings, sharing the Redis connection
// variables with the report store.
func ConfigFromEnv() Config {
	return Config{
		Addr:      config.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        config.GetEnvIntOrDefault("REDIS_DB", 0),
		Key:       config.GetEnvOrDefault("BLOOM_KEY", "cybershield:uploads:bloom"),
		TTL:       time.Duration(config.GetEnvIntOrDefault("BLOOM_TTL_SECONDS", 7*24*3600)) * time.Second,
		Capacity:  config.GetEnvIntOrDefault("BLOOM_CAPACITY", 100000),
		ErrorRate: 0.001,
	}
}

// Filter is a minimal RedisBloom wrapper. A nil *Filter is valid and disables
// duplicate detection entirely.
type Filter struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewFromEnv returns nil unless BLOOM_ENABLED=true; detection is then skipped.
func NewFromEnv() *Filter {
	if !config.GetEnvBool("BLOOM_ENABLED") {
		return nil
	}

	f, err := New(ConfigFromEnv())
	if err != nil {
		logger := logging.WithComponent("dedupe")
		logger.Warn().Err(err).Msg("bloom filter unavailable, duplicate detection disabled")
		return nil
	}
	return f
}

// New connects and reserves the filter if it does not exist yet. A failed
// BF.RESERVE is non-fatal since BF.ADD auto-creates with server defaults.
func New(cfg Config) (*Filter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	f := &Filter{client: client, key: cfg.Key, ttl: cfg.TTL, logger: logging.WithComponent("dedupe")}

	exists, err := client.Exists(ctx, cfg.Key).Result()
	if err == nil && exists == 0 {
		if err := client.Do(ctx, "BF.RESERVE", cfg.Key, fmt.Sprintf("%f", cfg.ErrorRate), cfg.Capacity).Err(); err != nil {
			f.logger.Warn().Err(err).Msg("BF.RESERVE failed, relying on auto-create")
		}
	}
	return f, nil
}

// Close closes the underlying Redis client.
func (f *Filter) Close() error {
	if f == nil {
		return nil
	}
	return f.client.Close()
}

// Seen reports whether the hash has probably been uploaded before. Errors are
// swallowed into false: a broken filter must never block analysis.
func (f *Filter) Seen(ctx context.Context, hash string) bool {
	if f == nil || hash == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := f.client.Do(ctx, "BF.EXISTS", f.key, hash).Result()
	if err != nil {
		f.logger.Warn().Err(err).Msg("bloom exists check failed")
		return false
	}
	switch v := res.(type) {
	case int64:
		return v == 1
	case string:
		return v == "1"
	default:
		return false
	}
}

// Mark records the hash and refreshes the filter's sliding TTL window.
func (f *Filter) Mark(ctx context.Context, hash string) {
	if f == nil || hash == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := f.client.Do(ctx, "BF.ADD", f.key, hash).Err(); err != nil {
		f.logger.Warn().Err(err).Msg("bloom add failed")
		return
	}
	if err := f.client.Expire(ctx, f.key, f.ttl).Err(); err != nil {
		f.logger.Warn().Err(err).Msg("bloom expire failed")
	}
}

// FileHash returns the SHA-256 hex digest of a file's content. Identical media
// re-uploaded under a different name still hashes the same.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
