package indicator

import "github.com/psi-indicator-engine/internal/domain"

const minStayPSI07 = 2

// PSI07 is Central Venous Catheter-Related Blood Stream Infection Rate
func PSI07() Rule {
	return newRule(domain.PSI_07, "Central Venous Catheter-Related Blood Stream Infection Rate",
		[]string{
			setSurgicalDRG, setMedicalDRG, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setCancer, setImmunocompDx, setImmunocompProc, setCentralLine,
		},
		evaluatePSI07)
}

func evaluatePSI07(c *check) domain.Verdict {
	if !c.ageOK(ageAdultOrObstetric) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG, setMedicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}

	if reason, ok := c.excludedBy(false,
		exclusion{domain.EXCL_LOS, losBelow(c, minStayPSI07)},
		exclusion{domain.EXCL_CANCER, func() bool { return c.anyDiagnosisIn(setCancer) }},
		exclusion{domain.EXCL_IMMUNOCOMPROMISED_DX, func() bool { return c.anyDiagnosisIn(setImmunocompDx) }},
		exclusion{domain.EXCL_IMMUNOCOMPROMISED_PROC, func() bool { return c.anyProcedureIn(setImmunocompProc) }},
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setCentralLine) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setCentralLine) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.secondaryNotPOA(setCentralLine), "")
}
