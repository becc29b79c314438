package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI-13 risk categories in priority order
const (
	RiskSevereImmune   = "SEVERE_IMMUNE"
	RiskModerateImmune = "MODERATE_IMMUNE"
	RiskMalignancy     = "MALIGNANCY"
	RiskBaseline       = "BASELINE"
)

// PSI13 is Postoperative Sepsis Rate
func PSI13() Rule {
	return newRule(domain.PSI_13, "Postoperative Sepsis Rate",
		[]string{
			setSurgicalDRG, setORProcedure, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setSepsis13, setInfection,
			setSevereImmuneDx, setSevereImmuneProc, setModerateImmuneDx, setModerateImmuneProc,
			setCancer, setChemoRadiation,
		},
		evaluatePSI13)
}

func evaluatePSI13(c *check) domain.Verdict {
	firstOR, verdict, ok := c.electiveSurgicalPopulation()
	if !ok {
		return verdict
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_LATE_FIRST_OR, func() bool { return firstOR >= lateORDays }},
		exclusion{domain.EXCL_PRINCIPAL_INFECTION, func() bool { return c.principalIn(setSepsis13, setInfection) }},
		exclusion{domain.EXCL_INFECTION_POA, func() bool { return c.secondaryPOA(setSepsis13, setInfection) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.secondaryNotPOA(setSepsis13), c.immuneRisk())
}

func (c *check) immuneRisk() string {
	switch {
	case c.anyDiagnosisIn(setSevereImmuneDx) || c.anyProcedureIn(setSevereImmuneProc):
		return RiskSevereImmune
	case c.anyDiagnosisIn(setModerateImmuneDx) || c.anyProcedureIn(setModerateImmuneProc):
		return RiskModerateImmune
	case c.anyDiagnosisIn(setCancer) && c.anyProcedureIn(setChemoRadiation):
		return RiskMalignancy
	default:
		return RiskBaseline
	}
}
