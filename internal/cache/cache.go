// Package cache stores the verdicts of an encounter keyed by its content and
// the reference version it was evaluated against.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/domain"
)

const keyPrefix = "psi"

// Cache is a verdict cache. Implementations never fail a caller: any backend
// problem is reported as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.Verdict, bool)
	Set(ctx context.Context, key string, verdicts []domain.Verdict)
}

// Key derives the cache key of enc under scope, which names the reference
// data and the rule set. The encounter identifier is left out since verdicts
// do not depend on it.
func Key(enc *domain.Encounter, scope string) (string, error) {
	if enc == nil {
		return "", fmt.Errorf("nil encounter")
	}
	canonical := *enc
	canonical.ID = ""

	data, err := json.Marshal(&canonical)
	if err != nil {
		return "", fmt.Errorf("failed to encode encounter: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(scope))
	h.Write([]byte{0})
	h.Write(data)
	return fmt.Sprintf("%s:verdicts:%x", keyPrefix, h.Sum(nil)), nil
}

// New builds the cache described by config. It returns nil when caching is
// disabled. A Redis URL puts Redis behind the in-memory tier.
func New(config domain.CacheConfig, logger *logrus.Logger) (Cache, error) {
	if !config.Enabled {
		return nil, nil
	}

	memory, err := NewMemoryCache(config.MaxItems)
	if err != nil {
		return nil, err
	}
	if config.RedisURL == "" {
		return memory, nil
	}

	remote, err := NewRedisCache(config, logger)
	if err != nil {
		return nil, err
	}
	return NewTiered(memory, remote), nil
}

// Close releases the backend of c when it holds one
func Close(c Cache) error {
	if closer, ok := c.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// cloneVerdicts copies verdicts so cached entries cannot be mutated through
// the slices handed to callers
func cloneVerdicts(in []domain.Verdict) []domain.Verdict {
	if in == nil {
		return nil
	}
	out := make([]domain.Verdict, len(in))
	for i, v := range in {
		v.Reasons = append([]domain.ReasonCode{}, v.Reasons...)
		out[i] = v
	}
	return out
}
