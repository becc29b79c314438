// Package encounter turns claim-template rows into validated encounter records.
package encounter

import "fmt"

// Claim-template column names
const (
	ColEncounterID   = "EncounterID"
	ColAge           = "AGE"
	ColSex           = "SEX"
	ColMDC           = "MDC"
	ColMSDRG         = "MS-DRG"
	ColAdmissionType = "ATYPE"
	ColPointOfOrigin = "POINTOFORIGINUB04"
	ColDisposition   = "Discharge_Disposition"
	ColLengthOfStay  = "Length_of_stay"
	ColAdmissionDate = "Admission_Date"
	ColDischargeDate = "Discharge_Date"
	ColPrincipalDx   = "Pdx"
)

const (
	// MaxSecondaryDiagnoses is the number of DX columns after Pdx
	MaxSecondaryDiagnoses = 25
	// MaxProcedures is the number of Proc columns
	MaxProcedures = 10
)

// aliases lists alternate headers seen in exports, in lookup order
var aliases = map[string][]string{
	ColEncounterID:  {"ENCOUNTER_ID", "KEY"},
	ColMSDRG:        {"DRG", "MSDRG"},
	ColDisposition:  {"DISP", "DISPUNIFORM"},
	ColLengthOfStay: {"LOS"},
	ColPrincipalDx:  {"PDX", "DX0"},
}

// RawRow is one claim-template row keyed by column name
type RawRow map[string]string

// DiagnosisColumn returns the code column for a position (0 is Pdx)
func DiagnosisColumn(position int) string {
	if position == 0 {
		return ColPrincipalDx
	}
	return fmt.Sprintf("DX%d", position)
}

// POAColumn returns the POA column aligned with a diagnosis position.
// POA1 pairs with Pdx, POA2 with DX1 and so on.
func POAColumn(position int) string {
	return fmt.Sprintf("POA%d", position+1)
}

// ProcedureColumn returns the code column for procedure n (1-based)
func ProcedureColumn(n int) string {
	return fmt.Sprintf("Proc%d", n)
}

// ProcedureDayColumn returns the day-offset column for procedure n
func ProcedureDayColumn(n int) string {
	return fmt.Sprintf("Proc%d_Day", n)
}

// ProcedureDateColumn returns the date column for procedure n
func ProcedureDateColumn(n int) string {
	return fmt.Sprintf("Proc%d_Date", n)
}

// Header returns the full template header in canonical order
func Header() []string {
	cols := []string{
		ColEncounterID, ColAge, ColSex, ColMDC, ColMSDRG, ColAdmissionType, ColPointOfOrigin,
		ColDisposition, ColLengthOfStay, ColAdmissionDate, ColDischargeDate,
	}
	for pos := 0; pos <= MaxSecondaryDiagnoses; pos++ {
		cols = append(cols, DiagnosisColumn(pos), POAColumn(pos))
	}
	for n := 1; n <= MaxProcedures; n++ {
		cols = append(cols, ProcedureColumn(n), ProcedureDayColumn(n), ProcedureDateColumn(n))
	}
	return cols
}

// get returns the trimmed value of a column, consulting aliases
func (r RawRow) get(col string) string {
	if v, ok := r[col]; ok {
		return trim(v)
	}
	for _, alias := range aliases[col] {
		if v, ok := r[alias]; ok {
			return trim(v)
		}
	}
	return ""
}

// EncounterID returns the row's encounter identifier, possibly empty
func (r RawRow) EncounterID() string {
	return r.get(ColEncounterID)
}
