package indicator

import "github.com/psi-indicator-engine/internal/domain"

// Ventilation and reintubation windows, in days after the index OR procedure
const (
	ventLongMinDays     = 0
	ventShortMinDays    = 2
	reintubationMinDays = 1
)

// PSI11 is Postoperative Respiratory Failure Rate
func PSI11() Rule {
	return newRule(domain.PSI_11, "Postoperative Respiratory Failure Rate",
		[]string{
			setSurgicalDRG, setORProcedure, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setRespFailure, setRespFailureExcl, setTrachStatus, setMalignHyper, setNeuromuscular, setDegenNeuro,
			setTracheostomy, setCraniofacial, setEsophageal, setLungCancerProc, setLungTransplant,
			setVentLong, setVentShort, setReintubation,
		},
		evaluatePSI11)
}

func evaluatePSI11(c *check) domain.Verdict {
	if _, verdict, ok := c.electiveSurgicalPopulation(); !ok {
		return verdict
	}

	// A tracheostomy does not start the postoperative clock.
	index, hasIndex := c.firstORDayExcept(setTracheostomy)

	if reason, ok := c.excludedBy(true,
		exclusion{domain.EXCL_PRINCIPAL_DX, func() bool { return c.principalIn(setRespFailureExcl) }},
		exclusion{domain.EXCL_POA, func() bool { return c.secondaryPOA(setRespFailureExcl) }},
		exclusion{domain.EXCL_TRACHEOSTOMY_POA, func() bool { return c.principalOrPOA(setTrachStatus) }},
		exclusion{domain.EXCL_MALIGNANT_HYPERTHERMIA, func() bool { return c.anyDiagnosisIn(setMalignHyper) }},
		exclusion{domain.EXCL_NEUROMUSCULAR_DISORDER, func() bool { return c.principalOrPOA(setNeuromuscular) }},
		exclusion{domain.EXCL_DEGENERATIVE_NEURO_DISORDER, func() bool { return c.principalOrPOA(setDegenNeuro) }},
		exclusion{domain.EXCL_ONLY_OR_TRACHEOSTOMY, func() bool { return !hasIndex }},
		exclusion{domain.EXCL_TRACHEOSTOMY_BEFORE_OR, func() bool {
			return c.procedureWithin(index, domain.LessThan(0), setTracheostomy)
		}},
		exclusion{domain.EXCL_HIGH_RISK_PROCEDURE, func() bool {
			return c.anyProcedureIn(setCraniofacial, setEsophageal, setLungCancerProc, setLungTransplant)
		}},
		exclusion{domain.EXCL_RESPIRATORY_MDC4, func() bool { return c.enc.MDC == domain.MDCRespiratory }},
	); ok {
		return c.excluded(reason)
	}

	tripped := c.secondaryNotPOA(setRespFailure) ||
		c.procedureWithin(index, domain.AtLeast(ventLongMinDays), setVentLong) ||
		c.procedureWithin(index, domain.AtLeast(ventShortMinDays), setVentShort) ||
		c.procedureWithin(index, domain.AtLeast(reintubationMinDays), setReintubation)
	return c.eligible(tripped, "")
}
