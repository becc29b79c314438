package indicator

import "github.com/psi-indicator-engine/internal/domain"

const minStayPSI03 = 3

// PSI03 is Pressure Ulcer Rate
func PSI03() Rule {
	sets := []string{setSurgicalDRG, setMedicalDRG, setMDC14Prin, setMDC15Prin, setPOAExempt, setBurn, setExfoliative}
	sets = append(sets, pressureUlcerSets()...)
	return newRule(domain.PSI_03, "Pressure Ulcer Rate", sets, evaluatePSI03)
}

func pressureUlcerSets() []string {
	var sets []string
	for _, site := range pressureSites {
		sets = append(sets, site.ulcer, site.dti)
	}
	return append(sets, unspecifiedSiteUlcers...)
}

func evaluatePSI03(c *check) domain.Verdict {
	if !c.ageOK(ageAdult) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG, setMedicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_LOS, losBelow(c, minStayPSI03)},
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(pressureUlcerSets()...) }},
		exclusion{domain.EXCL_BURN, func() bool { return c.anyDiagnosisIn(setBurn) }},
		exclusion{domain.EXCL_EXFOLIATIVE_DISORDER, func() bool { return c.anyDiagnosisIn(setExfoliative) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.hospitalAcquiredUlcer(), "")
}

// hospitalAcquiredUlcer finds a secondary stage 3, 4 or unstageable ulcer
// not present on admission. A deep tissue injury at the same site present on
// admission means the ulcer evolved from an admitted injury and does not count.
func (c *check) hospitalAcquiredUlcer() bool {
	for _, site := range pressureSites {
		if c.secondaryNotPOA(site.ulcer) && !c.dtiOnAdmission(site.dti) {
			return true
		}
	}
	return c.secondaryNotPOA(unspecifiedSiteUlcers...)
}

// dtiOnAdmission requires an explicit Y flag. W and exempt do not cancel an ulcer.
func (c *check) dtiOnAdmission(set string) bool {
	for _, d := range c.enc.Diagnoses {
		if d.POA == domain.POA_YES && c.in(d.Code, set) {
			return true
		}
	}
	return false
}
