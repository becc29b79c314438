package encounter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/reference"
)

const (
	minAge = 0
	maxAge = 124
	maxMDC = 25
)

var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006-01-02 15:04:05", "1/2/2006"}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// Validate converts a raw claim-template row into an Encounter. Every field
// problem found is reported together in one *domain.ValidationError.
func Validate(row RawRow) (*domain.Encounter, error) {
	var problems domain.ValidationProblems
	enc := &domain.Encounter{}

	enc.ID = row.get(ColEncounterID)
	if enc.ID == "" {
		problems.Add(ColEncounterID, "encounter id is required", nil)
	}

	enc.Age = requiredInt(row, ColAge, &problems)
	enc.MDC = requiredInt(row, ColMDC, &problems)
	enc.DischargeDisposition = requiredInt(row, ColDisposition, &problems)
	enc.AdmissionType = optionalInt(row, ColAdmissionType, &problems)
	enc.PointOfOrigin = strings.ToUpper(row.get(ColPointOfOrigin))

	if raw := row.get(ColSex); raw == "" {
		problems.Add(ColSex, "sex is required", nil)
	} else if sex, err := domain.ParseSex(raw); err != nil {
		problems.Add(ColSex, err.Error(), raw)
	} else {
		enc.Sex = sex
	}

	drg, err := normalizeDRG(row.get(ColMSDRG))
	if err != nil {
		problems.Add(ColMSDRG, err.Error(), row.get(ColMSDRG))
	}
	enc.MSDRG = drg

	admission, admissionErr := parseDate(row.get(ColAdmissionDate))
	if admissionErr != nil {
		problems.Add(ColAdmissionDate, admissionErr.Error(), row.get(ColAdmissionDate))
	}

	enc.LengthOfStay = lengthOfStay(row, admission, &problems)

	for pos := 0; pos <= MaxSecondaryDiagnoses; pos++ {
		code := reference.NormalizeCode(row.get(DiagnosisColumn(pos)))
		if code == "" {
			if pos == 0 {
				problems.Add(ColPrincipalDx, "principal diagnosis is required", nil)
			}
			continue
		}
		poa, err := domain.ParsePOA(row.get(POAColumn(pos)))
		if err != nil {
			problems.Add(POAColumn(pos), err.Error(), row.get(POAColumn(pos)))
		}
		enc.Diagnoses = append(enc.Diagnoses, domain.Diagnosis{Code: code, Position: pos, POA: poa})
	}

	for n := 1; n <= MaxProcedures; n++ {
		code := reference.NormalizeCode(row.get(ProcedureColumn(n)))
		if code == "" {
			continue
		}
		offset, err := procedureOffset(row, n, admission)
		if err != nil {
			problems.Add(ProcedureDayColumn(n), err.Error(), row.get(ProcedureDayColumn(n)))
			continue
		}
		enc.Procedures = append(enc.Procedures, domain.Procedure{Code: code, Position: n, DayOffset: offset})
	}

	if err := problems.Err(); err != nil {
		return nil, err
	}
	return ValidateEncounter(enc)
}

// ValidateEncounter checks an already structured encounter and returns a
// normalized copy with codes canonicalized and lists sorted by position.
func ValidateEncounter(in *domain.Encounter) (*domain.Encounter, error) {
	if in == nil {
		return nil, domain.NewValidationError("encounter", "encounter is required", nil)
	}
	var problems domain.ValidationProblems

	enc := *in
	enc.ID = trim(enc.ID)
	if enc.ID == "" {
		problems.Add("id", "encounter id is required", nil)
	}
	if enc.Age < minAge || enc.Age > maxAge {
		problems.Add("age", fmt.Sprintf("age must be between %d and %d", minAge, maxAge), enc.Age)
	}
	if enc.Sex != domain.SexMale && enc.Sex != domain.SexFemale {
		problems.Add("sex", domain.ErrInvalidSex.Error(), enc.Sex)
	}
	if enc.MDC < 0 || enc.MDC > maxMDC {
		problems.Add("mdc", fmt.Sprintf("MDC must be between 0 and %d", maxMDC), enc.MDC)
	}
	if drg, err := normalizeDRG(enc.MSDRG); err != nil {
		problems.Add("ms_drg", err.Error(), enc.MSDRG)
	} else {
		enc.MSDRG = drg
	}
	if enc.LengthOfStay < 0 {
		problems.Add("length_of_stay", "length of stay must be non-negative", enc.LengthOfStay)
	}
	enc.PointOfOrigin = strings.ToUpper(trim(enc.PointOfOrigin))

	enc.Diagnoses = make([]domain.Diagnosis, 0, len(in.Diagnoses))
	seen := make(map[int]bool, len(in.Diagnoses))
	principals := 0
	for _, d := range in.Diagnoses {
		d.Code = reference.NormalizeCode(d.Code)
		field := fmt.Sprintf("diagnoses[%d]", d.Position)
		if d.Code == "" {
			problems.Add(field, "diagnosis code is required", nil)
		}
		if d.Position < 0 {
			problems.Add(field, "diagnosis position must be non-negative", d.Position)
		}
		if seen[d.Position] {
			problems.Add(field, "duplicate diagnosis position", d.Position)
		}
		seen[d.Position] = true
		if d.Position == domain.PrincipalDiagnosisPosition {
			principals++
		}
		poa, err := domain.ParsePOA(string(d.POA))
		if err != nil {
			problems.Add(field, err.Error(), d.POA)
		}
		d.POA = poa
		enc.Diagnoses = append(enc.Diagnoses, d)
	}
	if principals == 0 {
		problems.Add("diagnoses", "principal diagnosis is required", nil)
	}

	enc.Procedures = make([]domain.Procedure, 0, len(in.Procedures))
	for i, p := range in.Procedures {
		p.Code = reference.NormalizeCode(p.Code)
		field := fmt.Sprintf("procedures[%d]", i)
		if p.Code == "" {
			problems.Add(field, "procedure code is required", nil)
		}
		if p.DayOffset < 0 {
			problems.Add(field, "procedure day offset must be non-negative", p.DayOffset)
		}
		if p.Position == 0 {
			p.Position = i + 1
		}
		enc.Procedures = append(enc.Procedures, p)
	}

	if err := problems.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(enc.Diagnoses, func(i, j int) bool { return enc.Diagnoses[i].Position < enc.Diagnoses[j].Position })
	sort.SliceStable(enc.Procedures, func(i, j int) bool { return enc.Procedures[i].Position < enc.Procedures[j].Position })
	return &enc, nil
}

func requiredInt(row RawRow, col string, problems *domain.ValidationProblems) int {
	raw := row.get(col)
	if raw == "" {
		problems.Add(col, "value is required", nil)
		return 0
	}
	n, err := parseInt(raw)
	if err != nil {
		problems.Add(col, "value must be an integer", raw)
		return 0
	}
	return n
}

func optionalInt(row RawRow, col string, problems *domain.ValidationProblems) int {
	raw := row.get(col)
	if raw == "" {
		return 0
	}
	n, err := parseInt(raw)
	if err != nil {
		problems.Add(col, "value must be an integer", raw)
		return 0
	}
	return n
}

// parseInt accepts spreadsheet-style "3.0"
func parseInt(raw string) (int, error) {
	raw = strings.TrimSuffix(raw, ".0")
	return strconv.Atoi(raw)
}

func normalizeDRG(raw string) (string, error) {
	raw = strings.TrimSuffix(trim(raw), ".0")
	if raw == "" {
		return "", fmt.Errorf("MS-DRG is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 999 {
		return "", fmt.Errorf("MS-DRG must be a 3-digit code")
	}
	return fmt.Sprintf("%03d", n), nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

func daysBetween(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func lengthOfStay(row RawRow, admission time.Time, problems *domain.ValidationProblems) int {
	if raw := row.get(ColLengthOfStay); raw != "" {
		n, err := parseInt(raw)
		if err != nil {
			problems.Add(ColLengthOfStay, "length of stay must be an integer", raw)
			return 0
		}
		return n
	}

	discharge, err := parseDate(row.get(ColDischargeDate))
	if err != nil {
		problems.Add(ColDischargeDate, err.Error(), row.get(ColDischargeDate))
		return 0
	}
	if admission.IsZero() || discharge.IsZero() {
		problems.Add(ColLengthOfStay, "length of stay or admission and discharge dates are required", nil)
		return 0
	}
	return daysBetween(admission, discharge)
}

func procedureOffset(row RawRow, n int, admission time.Time) (int, error) {
	if raw := row.get(ProcedureDayColumn(n)); raw != "" {
		offset, err := parseInt(raw)
		if err != nil {
			return 0, fmt.Errorf("day offset must be an integer")
		}
		if offset < 0 {
			return 0, fmt.Errorf("day offset must be non-negative")
		}
		return offset, nil
	}

	date, err := parseDate(row.get(ProcedureDateColumn(n)))
	if err != nil {
		return 0, err
	}
	if date.IsZero() {
		return 0, fmt.Errorf("procedure day offset or date is required")
	}
	if admission.IsZero() {
		return 0, fmt.Errorf("procedure date given without admission date")
	}
	offset := daysBetween(admission, date)
	if offset < 0 {
		return 0, fmt.Errorf("procedure dated before admission")
	}
	return offset, nil
}
