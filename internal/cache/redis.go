package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/psi-indicator-engine/internal/domain"
)

const (
	defaultTTL       = 24 * time.Hour
	breakerThreshold = 5
	breakerTimeout   = 30 * time.Second
	breakerInterval  = time.Minute
)

// cachedVerdicts is the JSON value stored in Redis
type cachedVerdicts struct {
	Verdicts  []domain.Verdict `json:"verdicts"`
	CachedAt  time.Time        `json:"cached_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// RedisCache stores verdicts in Redis behind a circuit breaker. While the
// breaker is open every Get is a miss and every Set is dropped.
type RedisCache struct {
	redis   *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// NewRedisCache connects to config.RedisURL and checks the connection
func NewRedisCache(config domain.CacheConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	if config.MaxRetries != 0 {
		opts.MaxRetries = config.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, config.DefaultTTL, logger), nil
}

// NewRedisCacheFromClient wraps an existing client without checking it
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	settings := gobreaker.Settings{
		Name:        "verdict-cache",
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &RedisCache{
		redis:   client,
		ttl:     ttl,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Get returns the cached verdicts for key. Corrupted entries are deleted.
func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.Verdict, bool) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.redis.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("Verdict cache read failed")
		return nil, false
	}
	data, ok := result.([]byte)
	if !ok {
		return nil, false
	}

	var entry cachedVerdicts
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Deleting corrupted verdict cache entry")
		c.redis.Del(ctx, key)
		return nil, false
	}
	return entry.Verdicts, true
}

// Set stores verdicts under key with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, verdicts []domain.Verdict) {
	now := time.Now().UTC()
	data, err := json.Marshal(cachedVerdicts{
		Verdicts:  verdicts,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode verdicts for cache")
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.redis.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("Verdict cache write failed")
	}
}

// State returns the circuit breaker state
func (c *RedisCache) State() gobreaker.State {
	return c.breaker.State()
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
