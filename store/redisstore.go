package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cybershield/config"
	"cybershield/logging"
	"cybershield/types"
)

const (
	reportIDKey  = "cybershield:reports:next_id"
	reportLogKey = "cybershield:reports:log"
)

// RedisStore keeps reports in a Redis list. LPUSH makes LRANGE naturally
// newest-first, and a single LPUSH is the run's one transactional write.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// RedisConfig holds connection settings for the report store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisConfigFromEnv reads REDIS_ADDR / REDIS_PASSWORD / REDIS_DB.
func RedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Addr:     config.GetEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: config.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       config.GetEnvIntOrDefault("REDIS_DB", 0),
	}
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{
		client: rdb,
		logger: logging.WithComponent("report-store"),
	}, nil
}

// Create assigns an ID via INCR and pushes the serialized report onto the log.
func (s *RedisStore) Create(ctx context.Context, report types.Report) (int64, error) {
	id, err := s.client.Incr(ctx, reportIDKey).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate report id: %w", err)
	}
	report.ID = id

	payload, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}

	if err := s.client.LPush(ctx, reportLogKey, payload).Err(); err != nil {
		return 0, fmt.Errorf("persist report: %w", err)
	}

	s.logger.Info().Int64("id", id).Str("filename", report.Filename).Msg("report persisted")
	return id, nil
}

// List returns up to limit reports, newest first.
func (s *RedisStore) List(ctx context.Context, limit int) ([]types.Report, error) {
	if limit <= 0 {
		limit = 50
	}

	raw, err := s.client.LRange(ctx, reportLogKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]types.Report, 0, len(raw))
	for _, item := range raw {
		var r types.Report
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable report entry")
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
