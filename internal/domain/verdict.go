package domain

// Verdict is the result of one indicator rule applied to one encounter.
// Build it with the constructors below so the outcome and flags stay consistent.
type Verdict struct {
	Indicator           IndicatorID  `json:"indicator"`
	Outcome             Outcome      `json:"outcome"`
	DenominatorEligible bool         `json:"denominator_eligible"`
	NumeratorTripped    bool         `json:"numerator_tripped"`
	Population          ReasonCode   `json:"population,omitempty"`
	Reasons             []ReasonCode `json:"reasons"`
	Stratum             string       `json:"stratum,omitempty"`
	Deterministic       bool         `json:"deterministic"`
	Failure             string       `json:"failure,omitempty"`
}

// NotInPopulation records an encounter outside the population at risk
func NotInPopulation(id IndicatorID, reason ReasonCode) Verdict {
	return Verdict{
		Indicator:     id,
		Outcome:       NOT_IN_POPULATION,
		Population:    reason,
		Reasons:       []ReasonCode{},
		Deterministic: true,
	}
}

// Excluded records the first exclusion that fired
func Excluded(id IndicatorID, reason ReasonCode) Verdict {
	return Verdict{
		Indicator:     id,
		Outcome:       EXCLUDED,
		Reasons:       []ReasonCode{reason},
		Deterministic: true,
	}
}

// Eligible records a denominator encounter and its numerator status
func Eligible(id IndicatorID, tripped bool, stratum string) Verdict {
	outcome := DENOMINATOR
	if tripped {
		outcome = NUMERATOR
	}
	return Verdict{
		Indicator:           id,
		Outcome:             outcome,
		DenominatorEligible: true,
		NumeratorTripped:    tripped,
		Reasons:             []ReasonCode{},
		Stratum:             stratum,
		Deterministic:       true,
	}
}

// Unevaluable records a rule that could not produce a clinical answer
func Unevaluable(id IndicatorID, err error) Verdict {
	v := Verdict{
		Indicator:     id,
		Outcome:       UNEVALUABLE,
		Reasons:       []ReasonCode{},
		Deterministic: true,
	}
	if err != nil {
		v.Failure = err.Error()
	}
	return v
}

// Consistent reports whether the verdict satisfies the outcome invariants
func (v Verdict) Consistent() bool {
	if v.NumeratorTripped && !v.DenominatorEligible {
		return false
	}
	switch v.Outcome {
	case NOT_IN_POPULATION:
		return !v.DenominatorEligible && len(v.Reasons) == 0 && v.Population.Category() == CATEGORY_POPULATION && v.Population != ""
	case EXCLUDED:
		return !v.DenominatorEligible && len(v.Reasons) > 0 && v.Reasons[0].Category() == CATEGORY_EXCLUSION
	case DENOMINATOR:
		return v.DenominatorEligible && !v.NumeratorTripped && len(v.Reasons) == 0
	case NUMERATOR:
		return v.DenominatorEligible && v.NumeratorTripped && len(v.Reasons) == 0
	case UNEVALUABLE:
		return !v.DenominatorEligible && len(v.Reasons) == 0
	default:
		return false
	}
}
