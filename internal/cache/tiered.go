package cache

import (
	"context"
	"errors"

	"github.com/psi-indicator-engine/internal/domain"
)

// Tiered answers from near first and falls back to far, copying far hits
// into near
type Tiered struct {
	near Cache
	far  Cache
}

// NewTiered composes two caches
func NewTiered(near, far Cache) *Tiered {
	return &Tiered{near: near, far: far}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]domain.Verdict, bool) {
	if verdicts, ok := t.near.Get(ctx, key); ok {
		return verdicts, true
	}
	verdicts, ok := t.far.Get(ctx, key)
	if !ok {
		return nil, false
	}
	t.near.Set(ctx, key, verdicts)
	return verdicts, true
}

func (t *Tiered) Set(ctx context.Context, key string, verdicts []domain.Verdict) {
	t.near.Set(ctx, key, verdicts)
	t.far.Set(ctx, key, verdicts)
}

// Close closes both tiers
func (t *Tiered) Close() error {
	return errors.Join(Close(t.near), Close(t.far))
}
