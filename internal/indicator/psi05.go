package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI05 is Retained Surgical Item or Unretrieved Device Fragment Count
func PSI05() Rule {
	return newRule(domain.PSI_05, "Retained Surgical Item or Unretrieved Device Fragment Count",
		[]string{setSurgicalDRG, setMedicalDRG, setMDC14Prin, setMDC15Prin, setPOAExempt, setForeignBody},
		evaluatePSI05)
}

func evaluatePSI05(c *check) domain.Verdict {
	if !c.ageOK(ageAdultOrObstetric) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG, setMedicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}

	if reason, ok := c.excludedBy(false,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setForeignBody) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setForeignBody) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.secondaryNotPOA(setForeignBody), "")
}
