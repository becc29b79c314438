package encounter

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-indicator-engine/internal/domain"
)

func validRow() RawRow {
	return RawRow{
		ColEncounterID:   "ENC-001",
		ColAge:           "45",
		ColSex:           "1",
		ColMDC:           "8",
		ColMSDRG:         "470",
		ColAdmissionType: "3",
		ColDisposition:   "1",
		ColLengthOfStay:  "4",
		ColPrincipalDx:   "M17.11",
		"POA1":           "Y",
		"DX1":            "J96.00",
		"POA2":           "N",
		"DX2":            "E11.9",
		"POA3":           "1",
		"Proc1":          "0SRD0J9",
		"Proc1_Day":      "0",
		"Proc2":          "5A1955Z",
		"Proc2_Day":      "1",
	}
}

func problemFields(t *testing.T, err error) []string {
	t.Helper()
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
	fields := make([]string, 0, len(vErr.Problems))
	for _, p := range vErr.Problems {
		fields = append(fields, p.Field)
	}
	return fields
}

func TestValidate(t *testing.T) {
	enc, err := Validate(validRow())
	require.NoError(t, err)

	assert.Equal(t, "ENC-001", enc.ID)
	assert.Equal(t, 45, enc.Age)
	assert.Equal(t, domain.SexMale, enc.Sex)
	assert.Equal(t, "470", enc.MSDRG)
	assert.True(t, enc.IsElective())
	assert.Equal(t, 4, enc.LengthOfStay)

	require.Len(t, enc.Diagnoses, 3)
	principal, ok := enc.Principal()
	require.True(t, ok)
	assert.Equal(t, "M1711", principal.Code)
	assert.Equal(t, domain.POA_YES, principal.POA)
	assert.Equal(t, domain.Diagnosis{Code: "J9600", Position: 1, POA: domain.POA_NO}, enc.Diagnoses[1])
	assert.Equal(t, domain.POA_EXEMPT, enc.Diagnoses[2].POA)
	assert.Len(t, enc.Secondary(), 2)

	require.Len(t, enc.Procedures, 2)
	assert.Equal(t, domain.Procedure{Code: "5A1955Z", Position: 2, DayOffset: 1}, enc.Procedures[1])
}

func TestValidateMissingPrincipalDiagnosis(t *testing.T) {
	row := validRow()
	delete(row, ColPrincipalDx)

	enc, err := Validate(row)
	assert.Nil(t, enc)
	assert.Contains(t, problemFields(t, err), ColPrincipalDx)
}

func TestValidateFieldProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(RawRow)
		field  string
	}{
		{"missing id", func(r RawRow) { r[ColEncounterID] = " " }, ColEncounterID},
		{"non-numeric age", func(r RawRow) { r[ColAge] = "forty" }, ColAge},
		{"age out of range", func(r RawRow) { r[ColAge] = "130" }, "age"},
		{"sex outside enum", func(r RawRow) { r[ColSex] = "3" }, ColSex},
		{"missing sex", func(r RawRow) { delete(r, ColSex) }, ColSex},
		{"bad drg", func(r RawRow) { r[ColMSDRG] = "ABC" }, ColMSDRG},
		{"mdc out of range", func(r RawRow) { r[ColMDC] = "26" }, "mdc"},
		{"bad poa", func(r RawRow) { r["POA2"] = "X" }, "POA2"},
		{"negative day offset", func(r RawRow) { r["Proc1_Day"] = "-1" }, "Proc1_Day"},
		{"procedure without timing", func(r RawRow) { delete(r, "Proc2_Day") }, "Proc2_Day"},
		{"negative los", func(r RawRow) { r[ColLengthOfStay] = "-2" }, "length_of_stay"},
		{"missing los and dates", func(r RawRow) { delete(r, ColLengthOfStay) }, ColLengthOfStay},
		{"bad admission type", func(r RawRow) { r[ColAdmissionType] = "x" }, ColAdmissionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)

			enc, err := Validate(row)
			assert.Nil(t, enc)
			assert.Contains(t, problemFields(t, err), tt.field)
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	row := validRow()
	row[ColAge] = "abc"
	row[ColSex] = "9"
	delete(row, ColPrincipalDx)

	_, err := Validate(row)
	fields := problemFields(t, err)
	assert.Contains(t, fields, ColAge)
	assert.Contains(t, fields, ColSex)
	assert.Contains(t, fields, ColPrincipalDx)
}

func TestValidateDatesAndAliases(t *testing.T) {
	row := RawRow{
		"KEY":            "ENC-002",
		ColAge:           "70",
		ColSex:           "F",
		ColMDC:           "5",
		"DRG":            "39.0",
		"DISP":           "20",
		ColAdmissionDate: "2024-03-01",
		ColDischargeDate: "03/06/2024",
		"PDX":            "I21.4",
		"Proc1":          "02703ZZ",
		"Proc1_Date":     "2024-03-03",
	}

	enc, err := Validate(row)
	require.NoError(t, err)

	assert.Equal(t, "ENC-002", enc.ID)
	assert.Equal(t, "039", enc.MSDRG)
	assert.True(t, enc.Died())
	assert.Equal(t, 5, enc.LengthOfStay)
	require.Len(t, enc.Procedures, 1)
	assert.Equal(t, 2, enc.Procedures[0].DayOffset)
}

func TestValidateProcedureBeforeAdmission(t *testing.T) {
	row := validRow()
	delete(row, "Proc1_Day")
	row[ColAdmissionDate] = "2024-03-05"
	row["Proc1_Date"] = "2024-03-01"

	_, err := Validate(row)
	assert.Contains(t, problemFields(t, err), "Proc1_Day")
}

func TestValidateEncounter(t *testing.T) {
	base := func() *domain.Encounter {
		return &domain.Encounter{
			ID: "E1", Age: 50, Sex: domain.SexFemale, MDC: 6, MSDRG: "330", LengthOfStay: 3,
			Diagnoses: []domain.Diagnosis{
				{Code: "k56.69", Position: 1, POA: "n"},
				{Code: "C18.9", Position: 0, POA: "Y"},
			},
			Procedures: []domain.Procedure{{Code: "0DTN0ZZ", DayOffset: 0}},
		}
	}

	enc, err := ValidateEncounter(base())
	require.NoError(t, err)
	assert.Equal(t, "C189", enc.Diagnoses[0].Code, "sorted by position")
	assert.Equal(t, domain.POA_NO, enc.Diagnoses[1].POA)
	assert.Equal(t, 1, enc.Procedures[0].Position)

	dup := base()
	dup.Diagnoses[0].Position = 0
	_, err = ValidateEncounter(dup)
	assert.Error(t, err, "duplicate principal position")

	noPrincipal := base()
	noPrincipal.Diagnoses = noPrincipal.Diagnoses[:1]
	_, err = ValidateEncounter(noPrincipal)
	assert.Contains(t, problemFields(t, err), "diagnoses")

	negative := base()
	negative.Procedures[0].DayOffset = -3
	_, err = ValidateEncounter(negative)
	assert.Error(t, err)

	badSex := base()
	badSex.Sex = "UNKNOWN"
	_, err = ValidateEncounter(badSex)
	assert.Contains(t, problemFields(t, err), "sex")

	_, err = ValidateEncounter(nil)
	assert.Error(t, err)
}

func TestReader(t *testing.T) {
	data := "\xEF\xBB\xBFEncounterID,AGE,SEX,MDC,MS-DRG,Discharge_Disposition,Length_of_stay,Pdx,POA1\n" +
		"E1,45,1,4,189,1,3,J96.00,N\n" +
		"\n" +
		"E2,30,2,14,775,1,2,O80,Y,extra\n"

	r, err := NewReader(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, ColEncounterID, r.Header()[0], "BOM stripped")

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "E1", rows[0][ColEncounterID])
	assert.Equal(t, "O80", rows[1][ColPrincipalDx])

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)

	enc, err := Validate(rows[0])
	require.NoError(t, err)
	assert.Equal(t, 4, enc.MDC)
}

func TestReaderEmptyInput(t *testing.T) {
	_, err := NewReader(strings.NewReader(""))
	assert.Error(t, err)
}

func TestHeaderIsComplete(t *testing.T) {
	header := Header()
	assert.Contains(t, header, "DX25")
	assert.Contains(t, header, "POA26")
	assert.Contains(t, header, "Proc10_Day")
	assert.Equal(t, 11+2*(MaxSecondaryDiagnoses+1)+3*MaxProcedures, len(header))
}
