package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI09 is Perioperative Hemorrhage or Hematoma Rate
func PSI09() Rule {
	return newRule(domain.PSI_09, "Perioperative Hemorrhage or Hematoma Rate",
		[]string{
			setSurgicalDRG, setORProcedure, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setHemorrhage, setHemorrhageProc, setCoagulation, setMedBleeding, setThrombolytic,
		},
		evaluatePSI09)
}

func evaluatePSI09(c *check) domain.Verdict {
	if !c.ageOK(ageAdult) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}
	if _, ok := c.firstORDay(); !ok {
		return c.notInPopulation(domain.POP_NO_OR_PROCEDURE)
	}

	// The index is the first OR procedure that is not itself a treatment of
	// hemorrhage or hematoma.
	index, hasIndex := c.firstORDayExcept(setHemorrhageProc)

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setHemorrhage) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setHemorrhage) }},
		exclusion{domain.EXCL_ONLY_OR_HEMORRHAGE_TREATMENT, func() bool { return !hasIndex }},
		exclusion{domain.EXCL_HEMORRHAGE_TREATMENT_BEFORE, func() bool {
			return c.procedureWithin(index, domain.LessThan(0), setHemorrhageProc)
		}},
		exclusion{domain.EXCL_COAGULATION_DISORDER, func() bool { return c.anyDiagnosisIn(setCoagulation) }},
		exclusion{domain.EXCL_MEDICATION_BLEEDING, func() bool { return c.principalOrPOA(setMedBleeding) }},
		exclusion{domain.EXCL_THROMBOLYTIC_BEFORE_TREATMENT, func() bool {
			treatment, ok := c.firstDay(setHemorrhageProc)
			return ok && c.procedureWithin(treatment, domain.AtMost(0), setThrombolytic)
		}},
	); ok {
		return c.excluded(reason)
	}

	// Treatment on any day counts, the index day included.
	return c.eligible(c.secondaryNotPOA(setHemorrhage) && c.anyProcedureIn(setHemorrhageProc), "")
}
