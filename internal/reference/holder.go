package reference

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/sirupsen/logrus"
)

// Validator checks a freshly loaded reference before it is published
type Validator func(*Reference) error

// Holder publishes the current Reference. A batch takes one snapshot with
// Current and keeps it for its whole run, so a reload never mixes versions.
type Holder struct {
	current   atomic.Pointer[Reference]
	mu        sync.Mutex // serializes reloads
	validator Validator
	logger    *logrus.Logger
}

// NewHolder creates an empty holder. validator may be nil.
func NewHolder(logger *logrus.Logger, validator Validator) *Holder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Holder{validator: validator, logger: logger}
}

// Current returns the published reference
func (h *Holder) Current() (*Reference, error) {
	ref := h.current.Load()
	if ref == nil {
		return nil, domain.ErrReferenceNotReady
	}
	return ref, nil
}

// Ready reports whether a reference has been published
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Set validates and publishes ref, replacing whatever was there
func (h *Holder) Set(ref *Reference) error {
	if ref == nil {
		return domain.NewReferenceLoadError("holder", "nil reference", nil)
	}
	if h.validator != nil {
		if err := h.validator(ref); err != nil {
			return domain.NewReferenceLoadError(ref.source, "reference rejected", err)
		}
	}
	h.current.Store(ref)
	return nil
}

// Reload loads from source and swaps only on success. On failure the
// previously published reference stays in service.
func (h *Holder) Reload(ctx context.Context, source Source) (*Reference, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ref, err := source.Load(ctx)
	if err != nil {
		h.logger.WithError(err).WithField("source", source.Name()).Error("Reference reload failed")
		return nil, fmt.Errorf("failed to load reference from %s: %w", source.Name(), err)
	}
	if err := h.Set(ref); err != nil {
		h.logger.WithError(err).WithField("source", source.Name()).Error("Reference rejected")
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{
		"source":    source.Name(),
		"version":   ref.Version(),
		"digest":    ref.Digest(),
		"code_sets": len(ref.sets),
	}).Info("Reference loaded")
	return ref, nil
}
