package indicator

import "github.com/psi-indicator-engine/internal/domain"

// lateORDays is the first-OR offset from admission at which PSI-12 and PSI-13 exclude
const lateORDays = 10

// PSI12 is Perioperative Pulmonary Embolism or Deep Vein Thrombosis Rate
func PSI12() Rule {
	return newRule(domain.PSI_12, "Perioperative Pulmonary Embolism or Deep Vein Thrombosis Rate",
		[]string{
			setSurgicalDRG, setORProcedure, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setVenaCava, setThrombect, setDVT, setPE, setHIT, setNeuroTrau, setECMO,
		},
		evaluatePSI12)
}

func evaluatePSI12(c *check) domain.Verdict {
	if !c.ageOK(ageAdult) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}
	firstOR, ok := c.firstORDay()
	if !ok {
		return c.notInPopulation(domain.POP_NO_OR_PROCEDURE)
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_VENA_CAVA_BEFORE_OR, func() bool {
			return c.procedureWithin(firstOR, domain.AtMost(0), setVenaCava, setThrombect)
		}},
		exclusion{domain.EXCL_LATE_FIRST_OR, func() bool { return firstOR >= lateORDays }},
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setDVT, setPE) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setDVT, setPE) }},
		exclusion{domain.EXCL_HEPARIN_THROMBOCYTOPENIA, func() bool { return c.anyDiagnosisIn(setHIT) }},
		exclusion{domain.EXCL_NEUROLOGICAL_TRAUMA, func() bool { return c.principalOrPOA(setNeuroTrau) }},
		exclusion{domain.EXCL_ECMO, func() bool { return c.anyProcedureIn(setECMO) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.secondaryNotPOA(setDVT, setPE), "")
}
