package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI10 is Postoperative Acute Kidney Injury Requiring Dialysis Rate
func PSI10() Rule {
	return newRule(domain.PSI_10, "Postoperative Acute Kidney Injury Requiring Dialysis Rate",
		[]string{
			setSurgicalDRG, setORProcedure, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setAKI, setCardiacArrest, setDysrhythmia, setShock, setCKD, setUrinaryObs,
			setDialysis, setDialysisAcc, setSolitaryKid, setNephrectomy,
		},
		evaluatePSI10)
}

func evaluatePSI10(c *check) domain.Verdict {
	firstOR, verdict, ok := c.electiveSurgicalPopulation()
	if !ok {
		return verdict
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setAKI) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setAKI) }},
		exclusion{domain.EXCL_CARDIAC_ARREST, func() bool { return c.principalOrPOA(setCardiacArrest, setDysrhythmia) }},
		exclusion{domain.EXCL_SHOCK, func() bool { return c.principalOrPOA(setShock) }},
		exclusion{domain.EXCL_CHRONIC_KIDNEY_DISEASE, func() bool { return c.principalOrPOA(setCKD) }},
		exclusion{domain.EXCL_URINARY_OBSTRUCTION, func() bool { return c.principalIn(setUrinaryObs) }},
		exclusion{domain.EXCL_DIALYSIS_BEFORE_OR, func() bool {
			return c.procedureWithin(firstOR, domain.AtMost(0), setDialysis, setDialysisAcc)
		}},
		exclusion{domain.EXCL_SOLITARY_KIDNEY_NEPHRECTOMY, func() bool {
			return c.principalOrPOA(setSolitaryKid) && c.anyProcedureIn(setNephrectomy)
		}},
	); ok {
		return c.excluded(reason)
	}

	tripped := c.secondaryNotPOA(setAKI) && c.procedureWithin(firstOR, domain.MoreThan(0), setDialysis)
	return c.eligible(tripped, "")
}

// electiveSurgicalPopulation is the adult elective surgical population with
// an OR procedure shared by PSI-10, PSI-11 and PSI-13. It returns the index OR day.
func (c *check) electiveSurgicalPopulation() (int, domain.Verdict, bool) {
	if !c.ageOK(ageAdult) {
		return 0, c.notInPopulation(domain.POP_AGE), false
	}
	if !c.drgIn(setSurgicalDRG) {
		return 0, c.notInPopulation(domain.POP_DRG), false
	}
	if !c.enc.IsElective() {
		return 0, c.notInPopulation(domain.POP_NOT_ELECTIVE), false
	}
	firstOR, ok := c.firstORDay()
	if !ok {
		return 0, c.notInPopulation(domain.POP_NO_OR_PROCEDURE), false
	}
	return firstOR, domain.Verdict{}, true
}
