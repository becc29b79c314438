package indicator

import "github.com/psi-indicator-engine/internal/domain"

const admissionTimingDaysPSI04 = 2

// Stratum names for PSI-04 in priority order
const (
	StratumShock        = "SHOCK"
	StratumSepsis       = "SEPSIS"
	StratumPneumonia    = "PNEUMONIA"
	StratumGIHemorrhage = "GI_HEMORRHAGE"
	StratumDVTPE        = "DVT_PE"
)

// psi04Stratum is one serious treatable complication. qualifies and
// excluded are both evaluated against the index OR day.
type psi04Stratum struct {
	name      string
	qualifies func(c *check, firstOR int) bool
	excluded  func(c *check) bool
}

var psi04Strata = []psi04Stratum{
	{
		name: StratumShock,
		qualifies: func(c *check, firstOR int) bool {
			return c.secondaryNotPOA(setShockDx) || c.procedureWithin(firstOR, domain.AtLeast(0), setShockProc)
		},
		excluded: func(c *check) bool {
			return c.principalIn(setShockExcl) || c.enc.MDC == domain.MDCRespiratory || c.enc.MDC == domain.MDCCirculatory
		},
	},
	{
		name: StratumSepsis,
		qualifies: func(c *check, _ int) bool {
			return c.secondaryNotPOA(setSepsis04)
		},
		excluded: func(c *check) bool {
			return c.principalIn(setSepsis04, setInfection) || c.secondaryPOA(setSepsis04) || c.anyDiagnosisIn(setImmunocompDx)
		},
	},
	{
		name: StratumPneumonia,
		qualifies: func(c *check, _ int) bool {
			return c.secondaryNotPOA(setPneumonia)
		},
		excluded: func(c *check) bool {
			return c.principalIn(setPneumoniaExclA) || c.anyDiagnosisIn(setPneumoniaExclB) ||
				c.anyProcedureIn(setLungCancerProc) || c.enc.MDC == domain.MDCRespiratory
		},
	},
	{
		name: StratumGIHemorrhage,
		qualifies: func(c *check, _ int) bool {
			return c.secondaryNotPOA(setGIHemorrhage)
		},
		excluded: func(c *check) bool {
			return c.principalIn(setGIExcl) ||
				(c.anyDiagnosisIn(setGIVarices) && c.anyDiagnosisIn(setGIQualifier)) ||
				c.enc.MDC == domain.MDCDigestive || c.enc.MDC == domain.MDCHepatobiliary
		},
	},
	{
		name: StratumDVTPE,
		qualifies: func(c *check, _ int) bool {
			return c.secondaryNotPOA(setDVTPE)
		},
		excluded: func(c *check) bool {
			return c.anyDiagnosisIn(setObEmbolism) || c.enc.MDC == domain.MDCPregnancy
		},
	},
}

// PSI04 is Death Rate among Surgical Inpatients with Serious Treatable Complications
func PSI04() Rule {
	return newRule(domain.PSI_04, "Death Rate among Surgical Inpatients with Serious Treatable Complications",
		[]string{
			setSurgicalDRG, setORProcedure, setMDC14Prin, setMDC15Prin, setPOAExempt,
			setShockDx, setShockProc, setShockExcl,
			setSepsis04, setInfection, setImmunocompDx,
			setPneumonia, setPneumoniaExclA, setPneumoniaExclB, setLungCancerProc,
			setGIHemorrhage, setGIExcl, setGIVarices, setGIQualifier,
			setDVTPE, setObEmbolism,
		},
		evaluatePSI04)
}

func evaluatePSI04(c *check) domain.Verdict {
	if !c.ageOK(ageAdultTo89OrObstetric) {
		return c.notInPopulation(domain.POP_AGE)
	}
	if !c.drgIn(setSurgicalDRG) {
		return c.notInPopulation(domain.POP_DRG)
	}
	firstOR, ok := c.firstORDay()
	if !ok {
		return c.notInPopulation(domain.POP_NO_OR_PROCEDURE)
	}
	if !c.enc.IsElective() && firstOR > admissionTimingDaysPSI04 {
		return c.notInPopulation(domain.POP_ADMISSION_TIMING)
	}
	stratum := c.treatableComplication(firstOR)
	if stratum == "" {
		return c.notInPopulation(domain.POP_NO_TREATABLE_COMPLICATION)
	}

	if reason, ok := c.excludedBy(false,
		exclusion{domain.EXCL_TRANSFER_TO_ACUTE, c.enc.TransferredToAcuteCare},
		exclusion{domain.EXCL_HOSPICE_ADMISSION, c.enc.AdmittedFromHospice},
	); ok {
		return c.excluded(reason)
	}

	return c.eligible(c.enc.Died(), stratum)
}

// treatableComplication returns the highest priority stratum the encounter
// qualifies for and is not excluded from
func (c *check) treatableComplication(firstOR int) string {
	for _, s := range psi04Strata {
		if s.qualifies(c, firstOR) && !s.excluded(c) {
			return s.name
		}
		if c.err != nil {
			return ""
		}
	}
	return ""
}
