package indicator

import "github.com/psi-indicator-engine/internal/domain"

// PSI17 is Birth Trauma Rate - Injury to Neonate
func PSI17() Rule {
	return newRule(domain.PSI_17, "Birth Trauma Rate - Injury to Neonate",
		[]string{setNewborn, setPreterm, setOsteogen, setBirthInj},
		evaluatePSI17)
}

func evaluatePSI17(c *check) domain.Verdict {
	if !c.principalIn(setNewborn) {
		return c.notInPopulation(domain.POP_NOT_NEWBORN)
	}

	if reason, ok := c.firstExclusion(
		exclusion{domain.EXCL_PRETERM_INFANT, func() bool { return c.anyDiagnosisIn(setPreterm) }},
		exclusion{domain.EXCL_OSTEOGENESIS_IMPERFECTA, func() bool { return c.anyDiagnosisIn(setOsteogen) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.anyDiagnosisIn(setBirthInj), "")
}

// PSI18 is Obstetric Trauma Rate - Vaginal Delivery With Instrument
func PSI18() Rule {
	return newRule(domain.PSI_18, "Obstetric Trauma Rate - Vaginal Delivery With Instrument",
		[]string{setDelivery, setVaginalDel, setInstrument, setMDC15Prin, setOBTrauma},
		evaluatePSI18)
}

func evaluatePSI18(c *check) domain.Verdict {
	if !c.vaginalDelivery() {
		return c.notInPopulation(domain.POP_NO_VAGINAL_DELIVERY)
	}
	if !c.anyProcedureIn(setInstrument) {
		return c.notInPopulation(domain.POP_NO_INSTRUMENT)
	}

	if reason, ok := c.firstExclusion(c.baseExclusions(false)...); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.anyDiagnosisIn(setOBTrauma), "")
}

// PSI19 is Obstetric Trauma Rate - Vaginal Delivery Without Instrument
func PSI19() Rule {
	return newRule(domain.PSI_19, "Obstetric Trauma Rate - Vaginal Delivery Without Instrument",
		[]string{setDelivery, setVaginalDel, setInstrument, setMDC15Prin, setOBTrauma},
		evaluatePSI19)
}

func evaluatePSI19(c *check) domain.Verdict {
	if !c.vaginalDelivery() {
		return c.notInPopulation(domain.POP_NO_VAGINAL_DELIVERY)
	}

	if reason, ok := c.excludedBy(false,
		exclusion{domain.EXCL_INSTRUMENT_DELIVERY, func() bool { return c.anyProcedureIn(setInstrument) }},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.anyDiagnosisIn(setOBTrauma), "")
}

func (c *check) vaginalDelivery() bool {
	return c.anyDiagnosisIn(setDelivery) && c.anyProcedureIn(setVaginalDel)
}
