package domain

// Claim-level codes used by the indicator rules
const (
	UngroupableDRG             = "999"
	AdmissionTypeElective      = 3
	DispositionTransferAcute   = 2
	DispositionExpired         = 20
	PointOfOriginHospice       = "F"
	MDCNewborn                 = 15
	MDCPregnancy               = 14
	MDCRespiratory             = 4
	MDCCirculatory             = 5
	MDCDigestive               = 6
	MDCHepatobiliary           = 7
	PrincipalDiagnosisPosition = 0
)

// Diagnosis is one ICD-10-CM code on the claim. Position 0 is the principal diagnosis.
type Diagnosis struct {
	Code     string    `json:"code"`
	Position int       `json:"position"`
	POA      POAStatus `json:"poa"`
}

// IsPrincipal reports whether this is the principal diagnosis
func (d Diagnosis) IsPrincipal() bool {
	return d.Position == PrincipalDiagnosisPosition
}

// Procedure is one ICD-10-PCS code with its day offset from admission
type Procedure struct {
	Code      string `json:"code"`
	Position  int    `json:"position"`
	DayOffset int    `json:"day_offset"`
}

// Encounter is one validated inpatient claim. It is never mutated after validation.
type Encounter struct {
	ID                   string      `json:"id"`
	Age                  int         `json:"age"`
	Sex                  Sex         `json:"sex"`
	MDC                  int         `json:"mdc"`
	MSDRG                string      `json:"ms_drg"`
	AdmissionType        int         `json:"admission_type"`
	PointOfOrigin        string      `json:"point_of_origin,omitempty"`
	DischargeDisposition int         `json:"discharge_disposition"`
	LengthOfStay         int         `json:"length_of_stay"`
	Diagnoses            []Diagnosis `json:"diagnoses"`
	Procedures           []Procedure `json:"procedures,omitempty"`
}

// Principal returns the principal diagnosis
func (e *Encounter) Principal() (Diagnosis, bool) {
	for _, d := range e.Diagnoses {
		if d.IsPrincipal() {
			return d, true
		}
	}
	return Diagnosis{}, false
}

// Secondary returns every diagnosis except the principal, in position order
func (e *Encounter) Secondary() []Diagnosis {
	out := make([]Diagnosis, 0, len(e.Diagnoses))
	for _, d := range e.Diagnoses {
		if !d.IsPrincipal() {
			out = append(out, d)
		}
	}
	return out
}

// IsElective reports an elective admission (UB-04 admission type 3)
func (e *Encounter) IsElective() bool {
	return e.AdmissionType == AdmissionTypeElective
}

// Died reports an in-hospital death
func (e *Encounter) Died() bool {
	return e.DischargeDisposition == DispositionExpired
}

// TransferredToAcuteCare reports a discharge to another short-term acute hospital
func (e *Encounter) TransferredToAcuteCare() bool {
	return e.DischargeDisposition == DispositionTransferAcute
}

// AdmittedFromHospice reports a hospice point of origin
func (e *Encounter) AdmittedFromHospice() bool {
	return e.PointOfOrigin == PointOfOriginHospice
}

// Ungroupable reports MS-DRG 999
func (e *Encounter) Ungroupable() bool {
	return e.MSDRG == UngroupableDRG
}
