package indicator

import "github.com/psi-indicator-engine/internal/domain"

const minStayPSI14 = 2

// Stratum names for PSI-14
const (
	StratumOpenApproach    = "OPEN"
	StratumNonOpenApproach = "NON_OPEN"
)

// PSI14 is Postoperative Wound Dehiscence Rate
func PSI14() Rule {
	return newRule(domain.PSI_14, "Postoperative Wound Dehiscence Rate",
		[]string{setAbdomOpen, setAbdomOther, setMDC14Prin, setMDC15Prin, setPOAExempt, setReclosure, setDisruption},
		evaluatePSI14)
}

func evaluatePSI14(c *check) domain.Verdict {
	if !c.ageOK(ageAdult) {
		return c.notInPopulation(domain.POP_AGE)
	}
	index, ok := c.firstDay(setAbdomOpen, setAbdomOther)
	if !ok {
		return c.notInPopulation(domain.POP_NO_ABDOMINOPELVIC_PROCEDURE)
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_LOS, losBelow(c, minStayPSI14)},
		exclusion{domain.EXCL_CLOSURE_BEFORE_INDEX, func() bool {
			last, ok := c.lastDay(setReclosure)
			return ok && last <= index
		}},
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setDisruption) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setDisruption) }},
	); ok {
		return c.excluded(reason)
	}

	tripped := c.procedureWithin(index, domain.MoreThan(0), setReclosure) && c.secondaryNotPOA(setDisruption)
	stratum := StratumNonOpenApproach
	if c.anyProcedureIn(setAbdomOpen) {
		stratum = StratumOpenApproach
	}
	return c.eligible(tripped, stratum)
}
