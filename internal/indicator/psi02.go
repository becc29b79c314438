package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI02 is Death Rate in Low-Mortality Diagnosis Related Groups
func PSI02() Rule {
	return newRule(domain.PSI_02, "Death Rate in Low-Mortality Diagnosis Related Groups",
		[]string{setLowMortality, setMDC14Prin, setMDC15Prin, setTrauma, setCancer, setImmunocompDx, setImmunocompProc},
		evaluatePSI02)
}

func evaluatePSI02(c *check) domain.Verdict {
	if !c.ageOK(ageAdultOrObstetric) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setLowMortality) {
		return c.notInPopulation(domain.POP_DRG)
	}

	if reason, ok := c.excludedBy(false,
		exclusion{domain.EXCL_TRAUMA, func() bool { return c.anyDiagnosisIn(setTrauma) }},
		exclusion{domain.EXCL_CANCER, func() bool { return c.anyDiagnosisIn(setCancer) }},
		exclusion{domain.EXCL_IMMUNOCOMPROMISED_DX, func() bool { return c.anyDiagnosisIn(setImmunocompDx) }},
		exclusion{domain.EXCL_IMMUNOCOMPROMISED_PROC, func() bool { return c.anyProcedureIn(setImmunocompProc) }},
		exclusion{domain.EXCL_HOSPICE_ADMISSION, c.enc.AdmittedFromHospice},
		exclusion{domain.EXCL_TRANSFER_TO_ACUTE, c.enc.TransferredToAcuteCare},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.enc.Died(), "")
}
