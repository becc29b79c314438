// Package indicator implements the AHRQ PSI 02-19 rules and their registry.
//
// After the ungroupable DRG check every rule follows the same three steps: a
// population test, an ordered list of exclusions where the first one that
// fires is the reported reason, and a numerator test. Rules are pure
// functions of an encounter and a reference.
package indicator

import (
	"errors"

	"github.com/psi-indicator-engine/internal/domain"
)

// Rule evaluates one indicator
type Rule interface {
	ID() domain.IndicatorID
	Name() string
	// CodeSets lists every code set the rule may look up
	CodeSets() []string
	Evaluate(enc *domain.Encounter, ref domain.CodeSetLookup) (domain.Verdict, error)
}

// rule is the common Rule implementation; each indicator supplies its evaluator
type rule struct {
	id        domain.IndicatorID
	name      string
	sets      []string
	evaluator func(c *check) domain.Verdict
}

func (r *rule) ID() domain.IndicatorID { return r.id }
func (r *rule) Name() string           { return r.name }

func (r *rule) CodeSets() []string {
	return append([]string(nil), r.sets...)
}

// Evaluate runs the evaluator. A failed lookup discards the verdict and is
// returned with the indicator id attached. MS-DRG 999 is a data exclusion
// for every indicator and is reported ahead of the population test.
func (r *rule) Evaluate(enc *domain.Encounter, ref domain.CodeSetLookup) (domain.Verdict, error) {
	c := &check{id: r.id, enc: enc, ref: ref}
	if enc.Ungroupable() {
		return c.excluded(domain.EXCL_UNGROUPABLE_DRG), nil
	}
	v := r.evaluator(c)
	if c.err == nil {
		return v, nil
	}

	err := c.err
	var unknown *domain.UnknownCodeSetError
	if errors.As(err, &unknown) && unknown.Indicator == "" {
		err = &domain.UnknownCodeSetError{Indicator: r.id, Set: unknown.Set, Version: unknown.Version}
	}
	return domain.Unevaluable(r.id, err), err
}

// exclusion is one named step of an ordered exclusion list
type exclusion struct {
	reason domain.ReasonCode
	fires  func() bool
}

// firstExclusion returns the reason of the first exclusion that fires.
// Later exclusions are not evaluated.
func (c *check) firstExclusion(steps ...exclusion) (domain.ReasonCode, bool) {
	for _, step := range steps {
		if step.fires() {
			return step.reason, true
		}
		if c.err != nil {
			return "", false
		}
	}
	return "", false
}

// agePolicy is the age restriction of an indicator's population
type agePolicy int

const (
	ageAdult agePolicy = iota
	ageAdultOrObstetric
	ageAdultTo89OrObstetric
	ageAny
)

const (
	adultAge    = 18
	maxAgePSI04 = 89
)

func newRule(id domain.IndicatorID, name string, sets []string, evaluator func(c *check) domain.Verdict) Rule {
	return &rule{id: id, name: name, sets: sets, evaluator: evaluator}
}
