package engine

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/psi-indicator-engine/internal/domain"
)

// Result is the outcome of one batch
type Result struct {
	BatchID             uuid.UUID                     `json:"batch_id"`
	ReferenceVersion    string                        `json:"reference_version"`
	ReferenceDigest     string                        `json:"reference_digest,omitempty"`
	StartedAt           time.Time                     `json:"started_at"`
	FinishedAt          time.Time                     `json:"finished_at"`
	Encounters          []EncounterResult             `json:"encounters"`
	ConfigurationErrors []*domain.UnknownCodeSetError `json:"configuration_errors,omitempty"`
}

// EncounterResult holds the verdicts of one input record in registry order,
// or the reason the record could not be evaluated at all
type EncounterResult struct {
	Index       int              `json:"index"`
	EncounterID string           `json:"encounter_id"`
	Verdicts    []domain.Verdict `json:"verdicts,omitempty"`
	Unevaluable *Unevaluable     `json:"unevaluable,omitempty"`
	Cached      bool             `json:"cached,omitempty"`
}

// Unevaluable marks a record that produced no verdicts
type Unevaluable struct {
	Reason   string                `json:"reason"`
	Problems []domain.FieldProblem `json:"problems,omitempty"`
}

// IndicatorSummary counts observed outcomes for one indicator
type IndicatorSummary struct {
	Indicator       domain.IndicatorID `json:"indicator"`
	Evaluated       int                `json:"evaluated"`
	NotInPopulation int                `json:"not_in_population"`
	Excluded        int                `json:"excluded"`
	Denominator     int                `json:"denominator"`
	Numerator       int                `json:"numerator"`
	Unevaluable     int                `json:"unevaluable"`
}

// Err joins every configuration error found during the batch
func (r *Result) Err() error {
	if len(r.ConfigurationErrors) == 0 {
		return nil
	}
	errs := make([]error, len(r.ConfigurationErrors))
	for i, e := range r.ConfigurationErrors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Verdict returns the verdict of indicator for the first evaluated record
// with encounterID
func (r *Result) Verdict(encounterID string, indicator domain.IndicatorID) (domain.Verdict, bool) {
	for _, er := range r.Encounters {
		if er.EncounterID != encounterID || er.Unevaluable != nil {
			continue
		}
		for _, v := range er.Verdicts {
			if v.Indicator == indicator {
				return v, true
			}
		}
	}
	return domain.Verdict{}, false
}

// UnevaluableCount returns the number of records with no verdicts
func (r *Result) UnevaluableCount() int {
	n := 0
	for _, er := range r.Encounters {
		if er.Unevaluable != nil {
			n++
		}
	}
	return n
}

// Summary counts outcomes per indicator in indicator order. Denominator
// includes numerator cases.
func (r *Result) Summary() []IndicatorSummary {
	byID := make(map[domain.IndicatorID]*IndicatorSummary)
	for _, er := range r.Encounters {
		for _, v := range er.Verdicts {
			s, ok := byID[v.Indicator]
			if !ok {
				s = &IndicatorSummary{Indicator: v.Indicator}
				byID[v.Indicator] = s
			}
			s.Evaluated++
			switch v.Outcome {
			case domain.NOT_IN_POPULATION:
				s.NotInPopulation++
			case domain.EXCLUDED:
				s.Excluded++
			case domain.DENOMINATOR:
				s.Denominator++
			case domain.NUMERATOR:
				s.Denominator++
				s.Numerator++
			case domain.UNEVALUABLE:
				s.Unevaluable++
			}
		}
	}

	summaries := make([]IndicatorSummary, 0, len(byID))
	for _, s := range byID {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Indicator.Number() < summaries[j].Indicator.Number()
	})
	return summaries
}

func sortedConfigErrors(m map[string]*domain.UnknownCodeSetError) []*domain.UnknownCodeSetError {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*domain.UnknownCodeSetError, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
