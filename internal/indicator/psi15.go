package indicator

import "github.com/psi-indicator-engine/internal/domain"

// Related procedure window, in days after the index abdominopelvic procedure
const (
	relatedProcMinDays = 1
	relatedProcMaxDays = 30
)

// PSI-15 risk categories from the complexity of the index-day procedures
const (
	RiskHighComplexity     = "HIGH"
	RiskModerateComplexity = "MODERATE"
	RiskLowComplexity      = "LOW"
)

// PSI15 is Abdominopelvic Accidental Puncture or Laceration Rate
func PSI15() Rule {
	sets := []string{
		setSurgicalDRG, setMedicalDRG, setAbdom15, setMDC14Prin, setMDC15Prin, setPOAExempt,
		setComplexHigh, setComplexMedium,
	}
	for _, organ := range organSystems {
		sets = append(sets, organ.diagnosis, organ.procedure)
	}
	return newRule(domain.PSI_15, "Abdominopelvic Accidental Puncture or Laceration Rate", sets, evaluatePSI15)
}

func evaluatePSI15(c *check) domain.Verdict {
	if !c.ageOK(ageAdult) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG, setMedicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}
	index, ok := c.firstDay(setAbdom15)
	if !ok {
		return c.notInPopulation(domain.POP_NO_ABDOMINOPELVIC_PROCEDURE)
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(injurySets()...) }},
		exclusion{domain.EXCL_POA, func() bool { return c.organInjury(index, c.presentOnAdmission) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.organInjury(index, c.notPresentOnAdmission), c.procedureComplexity(index))
}

func injurySets() []string {
	sets := make([]string, 0, len(organSystems))
	for _, organ := range organSystems {
		sets = append(sets, organ.diagnosis)
	}
	return sets
}

// organInjury finds a secondary injury matching poa with a related procedure
// on the same organ 1 to 30 days after the index procedure
func (c *check) organInjury(index int, poa func(domain.Diagnosis) bool) bool {
	window := domain.Between(relatedProcMinDays, relatedProcMaxDays)
	for _, organ := range organSystems {
		for _, d := range c.enc.Secondary() {
			if c.in(d.Code, organ.diagnosis) && poa(d) && c.procedureWithin(index, window, organ.procedure) {
				return true
			}
		}
	}
	return false
}

func (c *check) procedureComplexity(index int) string {
	onIndexDay := domain.Between(0, 0)
	switch {
	case c.procedureWithin(index, onIndexDay, setComplexHigh):
		return RiskHighComplexity
	case c.procedureWithin(index, onIndexDay, setComplexMedium):
		return RiskModerateComplexity
	default:
		return RiskLowComplexity
	}
}
