package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/config"
	"github.com/Aquil1401/resume-reviewer/internal/metrics"
	"github.com/Aquil1401/resume-reviewer/internal/models"
)

// ResultCache stores parsed model results keyed by task and prompt. Only
// results that parsed cleanly are cached, and request metadata is never part
// of a cached value.
type ResultCache interface {
	Get(ctx context.Context, task models.AnalysisTask, prompt PromptPayload) (map[string]any, bool)
	Set(ctx context.Context, task models.AnalysisTask, prompt PromptPayload, data map[string]any)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewResultCache(client *redis.Client, ttl time.Duration, log *zap.Logger) ResultCache {
	return &redisCache{
		client: client,
		ttl:    ttl,
		logger: log.Named("cache"),
	}
}

func CacheKey(task models.AnalysisTask, prompt PromptPayload) string {
	h := sha256.New()
	h.Write([]byte(prompt.SystemInstruction))
	h.Write([]byte{0})
	h.Write([]byte(prompt.UserContent))
	return "resume:result:" + string(task) + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get treats every redis failure as a miss.
func (c *redisCache) Get(ctx context.Context, task models.AnalysisTask, prompt PromptPayload) (map[string]any, bool) {
	raw, err := c.client.Get(ctx, CacheKey(task, prompt)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache lookup failed", zap.String("task", string(task)), zap.Error(err))
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		c.logger.Warn("discarding corrupt cache entry", zap.String("task", string(task)), zap.Error(err))
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return data, true
}

func (c *redisCache) Set(ctx context.Context, task models.AnalysisTask, prompt PromptPayload, data map[string]any) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("failed to encode cache entry", zap.String("task", string(task)), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, CacheKey(task, prompt), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to write cache entry", zap.String("task", string(task)), zap.Error(err))
	}
}
