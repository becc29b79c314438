package indicator

import "github.com/psi-indicator-engine/internal/domain"

// Stratum names for PSI-08
const (
	StratumHipFracture   = "HIP_FRACTURE"
	StratumOtherFracture = "OTHER_FRACTURE"
)

// PSI08 is In-Hospital Fall-Associated Fracture Rate
func PSI08() Rule {
	return newRule(domain.PSI_08, "In-Hospital Fall-Associated Fracture Rate",
		[]string{setSurgicalDRG, setMedicalDRG, setMDC14Prin, setMDC15Prin, setPOAExempt, setFracture, setHipFracture, setPeriprosthetic},
		evaluatePSI08)
}

func evaluatePSI08(c *check) domain.Verdict {
	if !c.ageOK(ageAdult) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG, setMedicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setFracture) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setFracture) }},
		exclusion{domain.EXCL_PERIPROSTHETIC_FRACTURE, func() bool { return c.anyDiagnosisIn(setPeriprosthetic) }},
	); ok {
		return c.excluded(reason)
	}

	if !c.secondaryNotPOA(setFracture) {
		return c.eligible(false, "")
	}
	if c.secondaryNotPOA(setHipFracture) {
		return c.eligible(true, StratumHipFracture)
	}
	return c.eligible(true, StratumOtherFracture)
}
