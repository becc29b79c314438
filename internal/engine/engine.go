// Package engine runs the indicator registry over batches of encounters.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/cache"
	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/encounter"
	"github.com/psi-indicator-engine/internal/indicator"
	"github.com/psi-indicator-engine/internal/reference"
)

// Engine evaluates encounters against every registered rule. It holds no
// state between batches; the reference is snapshotted once per batch.
type Engine struct {
	registry *indicator.Registry
	holder   *reference.Holder
	workers  int
	cache    cache.Cache
	logger   *logrus.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers bounds the number of encounters evaluated concurrently.
// Zero or less selects runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCache consults c before evaluating each encounter
func WithCache(c cache.Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// New creates an engine. It fails unless the holder already publishes a
// reference defining every code set the registry needs.
func New(registry *indicator.Registry, holder *reference.Holder, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if holder == nil {
		return nil, fmt.Errorf("reference holder is required")
	}

	e := &Engine{
		registry: registry,
		holder:   holder,
		logger:   logrus.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}

	ref, err := holder.Current()
	if err != nil {
		return nil, err
	}
	if err := ReferenceValidator(registry)(ref); err != nil {
		return nil, domain.NewReferenceLoadError(ref.Info().Source, "reference does not cover the registry", err)
	}
	return e, nil
}

// ReferenceValidator rejects any reference missing a set the registry needs.
// Install it on the holder so reloads keep the engine's guarantee.
func ReferenceValidator(registry *indicator.Registry) reference.Validator {
	required := registry.RequiredCodeSets()
	return func(ref *reference.Reference) error {
		missing := ref.Missing(required)
		if len(missing) == 0 {
			return nil
		}
		errs := make([]error, 0, len(missing))
		for _, name := range missing {
			errs = append(errs, &domain.UnknownCodeSetError{Set: name, Version: ref.Version()})
		}
		return errors.Join(errs...)
	}
}

// Registry returns the rules the engine runs
func (e *Engine) Registry() *indicator.Registry {
	return e.registry
}

// Reference returns the currently published reference
func (e *Engine) Reference() (*reference.Reference, error) {
	return e.holder.Current()
}

// Workers returns the concurrency bound
func (e *Engine) Workers() int {
	return e.workers
}

// job is one validated encounter waiting for evaluation
type job struct {
	index int
	enc   *domain.Encounter
}

// Evaluate validates and evaluates structured encounters. When ctx is
// cancelled the partial result is returned together with ctx.Err().
func (e *Engine) Evaluate(ctx context.Context, encounters []*domain.Encounter) (*Result, error) {
	results := make([]EncounterResult, len(encounters))
	validated := make([]*domain.Encounter, len(encounters))
	for i, in := range encounters {
		results[i] = EncounterResult{Index: i}
		if in != nil {
			results[i].EncounterID = in.ID
		}
		enc, err := encounter.ValidateEncounter(in)
		if err != nil {
			results[i].Unevaluable = invalid(err)
			continue
		}
		validated[i] = enc
	}
	return e.run(ctx, results, validated)
}

// EvaluateRows validates and evaluates raw claim-template rows
func (e *Engine) EvaluateRows(ctx context.Context, rows []encounter.RawRow) (*Result, error) {
	results := make([]EncounterResult, len(rows))
	validated := make([]*domain.Encounter, len(rows))
	for i, row := range rows {
		results[i] = EncounterResult{Index: i, EncounterID: row.EncounterID()}
		enc, err := encounter.Validate(row)
		if err != nil {
			results[i].Unevaluable = invalid(err)
			continue
		}
		validated[i] = enc
	}
	return e.run(ctx, results, validated)
}

func (e *Engine) run(ctx context.Context, results []EncounterResult, validated []*domain.Encounter) (*Result, error) {
	ref, err := e.holder.Current()
	if err != nil {
		return nil, err
	}

	result := &Result{
		BatchID:          uuid.New(),
		ReferenceVersion: ref.Version(),
		ReferenceDigest:  ref.Digest(),
		StartedAt:        time.Now().UTC(),
		Encounters:       results,
	}
	logger := e.logger.WithFields(logrus.Fields{
		"batch_id":          result.BatchID.String(),
		"reference_version": ref.Version(),
	})
	logger.WithFields(logrus.Fields{
		"batch_size": len(results),
		"workers":    e.workers,
	}).Info("Starting batch evaluation")

	jobs := make([]job, 0, len(validated))
	seen := make(map[string]int, len(validated))
	for i, enc := range validated {
		if enc == nil {
			continue
		}
		results[i].EncounterID = enc.ID
		if first, dup := seen[enc.ID]; dup {
			results[i].Unevaluable = &Unevaluable{Reason: fmt.Sprintf("duplicate encounter id, first seen at index %d", first)}
			continue
		}
		seen[enc.ID] = i
		jobs = append(jobs, job{index: i, enc: enc})
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, e.workers)
		configErr = make(map[string]*domain.UnknownCodeSetError)
		runErr    error
	)

	for n, j := range jobs {
		acquired := false
		select {
		case semaphore <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
		if acquired && ctx.Err() != nil {
			<-semaphore
			acquired = false
		}
		if !acquired {
			runErr = ctx.Err()
			for _, rest := range jobs[n:] {
				results[rest.index].Unevaluable = &Unevaluable{Reason: runErr.Error()}
			}
			break
		}

		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer func() { <-semaphore }()

			er, unknown := e.evaluate(ctx, ref, j.enc)
			er.Index = j.index
			results[j.index] = er

			if len(unknown) > 0 {
				mu.Lock()
				for _, u := range unknown {
					configErr[string(u.Indicator)+"/"+u.Set] = u
				}
				mu.Unlock()
			}
		}(j)
	}
	wg.Wait()

	result.ConfigurationErrors = sortedConfigErrors(configErr)
	result.FinishedAt = time.Now().UTC()

	entry := logger.WithFields(logrus.Fields{
		"batch_size":           len(results),
		"unevaluable":          result.UnevaluableCount(),
		"configuration_errors": len(result.ConfigurationErrors),
		"duration":             result.FinishedAt.Sub(result.StartedAt).String(),
	})
	if runErr != nil {
		entry.WithError(runErr).Warn("Batch evaluation cancelled")
		return result, runErr
	}
	entry.Info("Completed batch evaluation")
	return result, nil
}

// evaluate runs every rule on one encounter, consulting the cache first.
// Verdicts with failures are never cached.
func (e *Engine) evaluate(ctx context.Context, ref *reference.Reference, enc *domain.Encounter) (EncounterResult, []*domain.UnknownCodeSetError) {
	er := EncounterResult{EncounterID: enc.ID}

	var key string
	if e.cache != nil {
		k, err := cache.Key(enc, ref.Version()+":"+ref.Digest()+":"+e.registry.Fingerprint())
		if err == nil {
			key = k
			if verdicts, ok := e.cache.Get(ctx, key); ok && e.matchesRegistry(verdicts) {
				er.Verdicts = verdicts
				er.Cached = true
				return er, nil
			}
		}
	}

	var unknown []*domain.UnknownCodeSetError
	failed := false
	er.Verdicts = make([]domain.Verdict, 0, e.registry.Len())
	for _, rule := range e.registry.All() {
		v, err := e.evaluateRule(rule, enc, ref)
		if err != nil {
			failed = true
			var u *domain.UnknownCodeSetError
			if errors.As(err, &u) {
				unknown = append(unknown, u)
			}
			e.logger.WithError(err).WithFields(logrus.Fields{
				"encounter_id": enc.ID,
				"indicator":    rule.ID(),
			}).Warn("Indicator evaluation failed")
		}
		er.Verdicts = append(er.Verdicts, v)
	}

	if key != "" && !failed {
		e.cache.Set(ctx, key, er.Verdicts)
	}
	return er, unknown
}

// matchesRegistry reports whether cached verdicts line up with the registry
func (e *Engine) matchesRegistry(verdicts []domain.Verdict) bool {
	rules := e.registry.All()
	if len(verdicts) != len(rules) {
		return false
	}
	for i, rule := range rules {
		if verdicts[i].Indicator != rule.ID() {
			return false
		}
	}
	return true
}

// evaluateRule isolates one rule. Errors and panics become an UNEVALUABLE
// verdict carrying an EvaluationFailure.
func (e *Engine) evaluateRule(rule indicator.Rule, enc *domain.Encounter, ref domain.CodeSetLookup) (v domain.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.EvaluationFailure{EncounterID: enc.ID, Indicator: rule.ID(), Err: fmt.Errorf("panic: %v", r)}
			v = domain.Unevaluable(rule.ID(), err)
		}
	}()

	v, err = rule.Evaluate(enc, ref)
	if err != nil {
		err = &domain.EvaluationFailure{EncounterID: enc.ID, Indicator: rule.ID(), Err: err}
		v = domain.Unevaluable(rule.ID(), err)
	}
	return v, err
}

func invalid(err error) *Unevaluable {
	u := &Unevaluable{Reason: err.Error()}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		u.Reason = "validation failed"
		u.Problems = vErr.Problems
	}
	return u
}
