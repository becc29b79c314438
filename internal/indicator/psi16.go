package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI16 is Transfusion Reaction Count
func PSI16() Rule {
	return newRule(domain.PSI_16, "Transfusion Reaction Count",
		[]string{setSurgicalDRG, setMedicalDRG, setMDC14Prin, setMDC15Prin, setPOAExempt, setTransfusion},
		evaluatePSI16)
}

func evaluatePSI16(c *check) domain.Verdict {
	if !c.ageOK(ageAdultOrObstetric) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG, setMedicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}

	if reason, ok := c.excludedBy(false,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setTransfusion) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setTransfusion) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.secondaryNotPOA(setTransfusion), "")
}
