package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI06 is Iatrogenic Pneumothorax Rate
func PSI06() Rule {
	return newRule(domain.PSI_06, "Iatrogenic Pneumothorax Rate",
		[]string{
			setSurgicalDRG, setMedicalDRG, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setIatrogenicPTX, setNonTraumPTX, setChestTrauma, setPleuralEff, setThoracicProc, setCardiacThorax,
		},
		evaluatePSI06)
}

func evaluatePSI06(c *check) domain.Verdict {
	if !c.ageOK(ageAdult) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG, setMedicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setIatrogenicPTX) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setIatrogenicPTX) }},
		exclusion{domain.EXCL_NONTRAUMATIC_PNEUMOTHORAX, func() bool { return c.principalOrPOA(setNonTraumPTX) }},
		exclusion{domain.EXCL_CHEST_TRAUMA, func() bool { return c.anyDiagnosisIn(setChestTrauma) }},
		exclusion{domain.EXCL_PLEURAL_EFFUSION, func() bool { return c.anyDiagnosisIn(setPleuralEff) }},
		exclusion{domain.EXCL_THORACIC_SURGERY, func() bool { return c.anyProcedureIn(setThoracicProc) }},
		exclusion{domain.EXCL_TRANSPLEURAL_CARDIAC, func() bool { return c.anyProcedureIn(setCardiacThorax) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.secondaryNotPOA(setIatrogenicPTX), "")
}
