package indicator

import (
	"github.com/psi-indicator-engine/internal/domain"
)

// check carries one evaluation. The first failed lookup is kept in err and
// every later lookup answers false, so an evaluator can be written as plain
// boolean logic and the failure still surfaces from Evaluate.
type check struct {
	id  domain.IndicatorID
	enc *domain.Encounter
	ref domain.CodeSetLookup
	err error
}

func (c *check) notInPopulation(reason domain.ReasonCode) domain.Verdict {
	return domain.NotInPopulation(c.id, reason)
}

func (c *check) excluded(reason domain.ReasonCode) domain.Verdict {
	return domain.Excluded(c.id, reason)
}

func (c *check) eligible(tripped bool, stratum string) domain.Verdict {
	return domain.Eligible(c.id, tripped, stratum)
}

// in reports membership of code in any of the named sets
func (c *check) in(code string, sets ...string) bool {
	for _, set := range sets {
		if c.err != nil {
			return false
		}
		ok, err := c.ref.Lookup(set, code)
		if err != nil {
			c.err = err
			return false
		}
		if ok {
			return true
		}
	}
	return false
}

// within reports membership of code in set with offset inside window
func (c *check) within(set, code string, offset int, window domain.DayWindow) bool {
	if c.err != nil {
		return false
	}
	ok, err := c.ref.LookupRange(set, code, offset, window)
	if err != nil {
		c.err = err
		return false
	}
	return ok
}

// exempt reports a diagnosis whose POA flag must be ignored
func (c *check) exempt(d domain.Diagnosis) bool {
	return d.POA == domain.POA_EXEMPT || c.in(d.Code, setPOAExempt)
}

func (c *check) presentOnAdmission(d domain.Diagnosis) bool {
	return d.POA.Reported() && !c.exempt(d)
}

func (c *check) notPresentOnAdmission(d domain.Diagnosis) bool {
	return !d.POA.Reported() && !c.exempt(d)
}

func (c *check) principalIn(sets ...string) bool {
	p, ok := c.enc.Principal()
	return ok && c.in(p.Code, sets...)
}

// anyDiagnosisIn looks at every position, principal included
func (c *check) anyDiagnosisIn(sets ...string) bool {
	for _, d := range c.enc.Diagnoses {
		if c.in(d.Code, sets...) {
			return true
		}
	}
	return false
}

func (c *check) secondaryPOA(sets ...string) bool {
	for _, d := range c.enc.Secondary() {
		if c.in(d.Code, sets...) && c.presentOnAdmission(d) {
			return true
		}
	}
	return false
}

func (c *check) secondaryNotPOA(sets ...string) bool {
	for _, d := range c.enc.Secondary() {
		if c.in(d.Code, sets...) && c.notPresentOnAdmission(d) {
			return true
		}
	}
	return false
}

// principalOrPOA is the common "principal or secondary present on admission" test
func (c *check) principalOrPOA(sets ...string) bool {
	return c.principalIn(sets...) || c.secondaryPOA(sets...)
}

func (c *check) anyProcedureIn(sets ...string) bool {
	for _, p := range c.enc.Procedures {
		if c.in(p.Code, sets...) {
			return true
		}
	}
	return false
}

// firstDay returns the earliest day offset of a procedure in the sets
func (c *check) firstDay(sets ...string) (int, bool) {
	day, found := 0, false
	for _, p := range c.enc.Procedures {
		if c.in(p.Code, sets...) && (!found || p.DayOffset < day) {
			day, found = p.DayOffset, true
		}
	}
	return day, found
}

// lastDay returns the latest day offset of a procedure in the sets
func (c *check) lastDay(sets ...string) (int, bool) {
	day, found := 0, false
	for _, p := range c.enc.Procedures {
		if c.in(p.Code, sets...) && (!found || p.DayOffset > day) {
			day, found = p.DayOffset, true
		}
	}
	return day, found
}

// firstORDay returns the index OR procedure day
func (c *check) firstORDay() (int, bool) {
	return c.firstDay(setORProcedure)
}

// firstORDayExcept returns the earliest OR procedure day ignoring
// procedures in the given sets
func (c *check) firstORDayExcept(sets ...string) (int, bool) {
	day, found := 0, false
	for _, p := range c.enc.Procedures {
		if !c.in(p.Code, setORProcedure) || c.in(p.Code, sets...) {
			continue
		}
		if !found || p.DayOffset < day {
			day, found = p.DayOffset, true
		}
	}
	return day, found
}

// procedureWithin reports a procedure in set whose offset from index falls in window
func (c *check) procedureWithin(index int, window domain.DayWindow, sets ...string) bool {
	for _, p := range c.enc.Procedures {
		for _, set := range sets {
			if c.within(set, p.Code, p.DayOffset-index, window) {
				return true
			}
		}
	}
	return false
}

func (c *check) drgIn(sets ...string) bool {
	return c.in(c.enc.MSDRG, sets...)
}

func (c *check) obstetric() bool {
	return c.enc.MDC == domain.MDCPregnancy && c.principalIn(setMDC14Prin)
}

func (c *check) newborn() bool {
	return c.enc.MDC == domain.MDCNewborn && c.principalIn(setMDC15Prin)
}

func (c *check) ageOK(policy agePolicy) bool {
	age := c.enc.Age
	switch policy {
	case ageAdult:
		return age >= adultAge
	case ageAdultOrObstetric:
		return age >= adultAge || c.obstetric()
	case ageAdultTo89OrObstetric:
		return (age >= adultAge && age <= maxAgePSI04) || c.obstetric()
	default:
		return true
	}
}

// baseExclusions are applied ahead of every rule-specific exclusion.
// MS-DRG 999 is handled before the population test in rule.Evaluate.
func (c *check) baseExclusions(excludeObstetric bool) []exclusion {
	steps := []exclusion{
		{domain.EXCL_NEWBORN_MDC15, c.newborn},
	}
	if excludeObstetric {
		steps = append(steps, exclusion{domain.EXCL_OBSTETRIC_MDC14, c.obstetric})
	}
	return steps
}

// excludedBy runs the base exclusions then steps, in order
func (c *check) excludedBy(excludeObstetric bool, steps ...exclusion) (domain.ReasonCode, bool) {
	return c.firstExclusion(append(c.baseExclusions(excludeObstetric), steps...)...)
}

func losBelow(c *check, days int) func() bool {
	return func() bool { return c.enc.LengthOfStay < days }
}
