package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/reference"
)

// fixtureCodes are the codes the scenarios use. Every other required set gets
// a placeholder so the reference satisfies the full registry.
var fixtureCodes = map[string][]string{
	"SURGI2R":        {"470"},
	"MEDIC2R":        {"193"},
	"LOWMODR":        {"039"},
	"ORPROC":         {"0SRD0J9", "0B110F4", "0W3F0ZZ", "0DTJ0ZZ"},
	"MDC14PRINDX":    {"O80"},
	"MDC15PRINDX":    {"Z38.00"},
	"NEWBORN":        {"Z38.00", "Z38.01"},
	"POAXMPD":        {"Z86.73"},
	"TRAUMID":        {"S06.0X0A"},
	"CANCEID":        {"C18.9"},
	"IMMUNID":        {"D80.0"},
	"PISACRALD":      {"L89.153"},
	"DTISACRAEXD":    {"L89.156"},
	"PIUNSPECD":      {"L89.93"},
	"FTR5DX":         {"R57.8"},
	"FTR4DX":         {"A41.9"},
	"FTR3DX":         {"J18.9"},
	"FTR6DX":         {"K92.0"},
	"FTR2DXB":        {"I26.99"},
	"FOREIID":        {"T81.51XA"},
	"IATROID":        {"J95.811"},
	"CTRAUMD":        {"S27.20XA"},
	"IDTMC3D":        {"T80.211A"},
	"FXID":           {"S72.002A", "S42.001A"},
	"HIPFXID":        {"S72.002A"},
	"POHMRI2D":       {"L76.22"},
	"HEMOTH2P":       {"0W3F0ZZ"},
	"THROMBOLYTICP":  {"3E03317"},
	"PHYSIDB":        {"N17.0"},
	"DIALYIP":        {"5A1D70Z"},
	"CRENLFD":        {"N18.6"},
	"ACURF2D":        {"J96.00"},
	"ACURF3D":        {"J96.00", "J96.90"},
	"PR9672P":        {"5A1955Z"},
	"PR9671P":        {"5A1945Z"},
	"PR9604P":        {"0BH17EZ"},
	"TRACHIP":        {"0B110F4"},
	"DEEPVIB":        {"I82.401"},
	"PULMOID":        {"I26.99"},
	"VENACIP":        {"06H033Z"},
	"SEPTI2D":        {"A41.9"},
	"INFECID":        {"B96.20"},
	"SEVEREIMMUNEDX": {"D61.810"},
	"ABDOMIPOPEN":    {"0DTJ0ZZ"},
	"ABDOMIPOTHER":   {"0DTJ4ZZ"},
	"RECLOIP":        {"0WQF0ZZ"},
	"ABWALLCD":       {"T81.32XA"},
	"ABDOMI15P":      {"0DTJ0ZZ"},
	"SPLEEN15D":      {"D78.11"},
	"SPLEEN15P":      {"07TP0ZZ"},
	"PCLASSHIGH":     {"0DTJ0ZZ"},
	"TRANFID":        {"T80.41XA"},
	"PRETEID":        {"P07.03"},
	"BIRTHID":        {"P15.0"},
	"OSTEOID":        {"Q78.0"},
	"DELOCMD":        {"Z37.0"},
	"VAGDELP":        {"10E0XZZ"},
	"INSTRIP":        {"10D07Z3"},
	"OBTRAID":        {"O70.2"},
}

type fixture struct {
	sets map[string][]string
}

func newFixture() *fixture {
	f := &fixture{sets: make(map[string][]string)}
	for _, name := range NewRegistry().RequiredCodeSets() {
		f.sets[name] = []string{"ZZZ" + name}
	}
	for name, codes := range fixtureCodes {
		f.sets[name] = append([]string(nil), codes...)
	}
	return f
}

func (f *fixture) with(set string, codes ...string) *fixture {
	f.sets[set] = append(f.sets[set], codes...)
	return f
}

func (f *fixture) without(set string) *fixture {
	delete(f.sets, set)
	return f
}

func (f *fixture) reference(t *testing.T) *reference.Reference {
	t.Helper()
	b := reference.Bundle{
		Version:       reference.SupportedVersion,
		EffectiveFrom: "2023-10-01",
		EffectiveTo:   "2024-09-30",
		CodeSets:      make(map[string]reference.BundleCodeSet, len(f.sets)),
	}
	for name, codes := range f.sets {
		b.CodeSets[name] = reference.BundleCodeSet{Codes: codes}
	}
	ref, err := reference.FromBundle(b, "fixture", "")
	require.NoError(t, err)
	return ref
}

// surgical is an adult elective knee replacement with the OR procedure on day 1
func surgical() *domain.Encounter {
	return &domain.Encounter{
		ID:                   "ENC-1",
		Age:                  45,
		Sex:                  domain.SexMale,
		MDC:                  8,
		MSDRG:                "470",
		AdmissionType:        domain.AdmissionTypeElective,
		DischargeDisposition: 1,
		LengthOfStay:         4,
		Diagnoses:            []domain.Diagnosis{{Code: "M1711", Position: 0, POA: domain.POA_YES}},
		Procedures:           []domain.Procedure{{Code: "0SRD0J9", Position: 1, DayOffset: 1}},
	}
}

func medical() *domain.Encounter {
	enc := surgical()
	enc.MSDRG = "193"
	enc.MDC = 4
	enc.AdmissionType = 1
	enc.Diagnoses[0].Code = "J189"
	enc.Procedures = nil
	return enc
}

func newborn() *domain.Encounter {
	return &domain.Encounter{
		ID:           "ENC-NB",
		Age:          0,
		Sex:          domain.SexFemale,
		MDC:          domain.MDCNewborn,
		MSDRG:        "795",
		LengthOfStay: 2,
		Diagnoses:    []domain.Diagnosis{{Code: "Z3800", Position: 0, POA: domain.POA_EXEMPT}},
	}
}

func delivery() *domain.Encounter {
	return &domain.Encounter{
		ID:           "ENC-OB",
		Age:          28,
		Sex:          domain.SexFemale,
		MDC:          domain.MDCPregnancy,
		MSDRG:        "807",
		LengthOfStay: 2,
		Diagnoses: []domain.Diagnosis{
			{Code: "O80", Position: 0, POA: domain.POA_YES},
			{Code: "Z370", Position: 1, POA: domain.POA_EXEMPT},
		},
		Procedures: []domain.Procedure{{Code: "10E0XZZ", Position: 1, DayOffset: 0}},
	}
}

func withDx(enc *domain.Encounter, code string, poa domain.POAStatus) *domain.Encounter {
	enc.Diagnoses = append(enc.Diagnoses, domain.Diagnosis{Code: code, Position: len(enc.Diagnoses), POA: poa})
	return enc
}

func withPrincipal(enc *domain.Encounter, code string) *domain.Encounter {
	enc.Diagnoses[0].Code = code
	return enc
}

func withProc(enc *domain.Encounter, code string, day int) *domain.Encounter {
	enc.Procedures = append(enc.Procedures, domain.Procedure{Code: code, Position: len(enc.Procedures) + 1, DayOffset: day})
	return enc
}

// recordingLookup answers every lookup with member and fails for any set the
// rule did not declare
type recordingLookup struct {
	member     bool
	declared   map[string]bool
	undeclared []string
}

func newRecordingLookup(member bool, sets []string) *recordingLookup {
	l := &recordingLookup{member: member, declared: make(map[string]bool, len(sets))}
	for _, s := range sets {
		l.declared[s] = true
	}
	return l
}

func (l *recordingLookup) Version() string { return reference.SupportedVersion }

func (l *recordingLookup) Has(set string) bool { return l.declared[set] }

func (l *recordingLookup) Lookup(set, _ string) (bool, error) {
	if !l.declared[set] {
		l.undeclared = append(l.undeclared, set)
		return false, &domain.UnknownCodeSetError{Set: set, Version: l.Version()}
	}
	return l.member, nil
}

func (l *recordingLookup) LookupRange(set, code string, offset int, window domain.DayWindow) (bool, error) {
	ok, err := l.Lookup(set, code)
	if err != nil || !ok {
		return false, err
	}
	return window.Contains(offset), nil
}
