package reference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-indicator-engine/internal/domain"
)

func sampleBundle() Bundle {
	return Bundle{
		Version:       SupportedVersion,
		EffectiveFrom: "2023-10-01",
		EffectiveTo:   "2024-09-30",
		CodeSets: map[string]BundleCodeSet{
			"ACURF2D": {Codes: []string{"J96.00", "J9601", "j95.821"}},
			"ORPROC":  {Codes: []string{"0DTJ4ZZ"}, Ranges: []Range{{From: "0JH60DZ", To: "0JH63DZ"}}},
			"LOWMODR": {Codes: []string{"039", "101"}},
		},
	}
}

func TestLookup(t *testing.T) {
	ref, err := FromBundle(sampleBundle(), "test", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		set  string
		code string
		want bool
	}{
		{"dotted code", "ACURF2D", "J9600", true},
		{"undotted stored", "ACURF2D", "J96.01", true},
		{"lower case stored", "ACURF2D", "J95821", true},
		{"non member", "ACURF2D", "J9690", false},
		{"range low edge", "ORPROC", "0JH60DZ", true},
		{"range inside", "ORPROC", "0JH61DZ", true},
		{"range high edge", "ORPROC", "0JH63DZ", true},
		{"range outside", "ORPROC", "0JH64DZ", false},
		{"range different length", "ORPROC", "0JH61D", false},
		{"empty code", "ORPROC", "", false},
		{"drg", "LOWMODR", "039", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ref.Lookup(tt.set, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupUnknownSetIsAnError(t *testing.T) {
	ref, err := FromBundle(sampleBundle(), "test", "")
	require.NoError(t, err)

	ok, err := ref.Lookup("NOSUCHSET", "J9600")
	assert.False(t, ok)

	var unknown *domain.UnknownCodeSetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "NOSUCHSET", unknown.Set)
	assert.Equal(t, SupportedVersion, unknown.Version)

	_, err = ref.LookupRange("NOSUCHSET", "J9600", 3, domain.AnyDay())
	assert.True(t, errors.As(err, &unknown))
}

func TestLookupRange(t *testing.T) {
	ref, err := FromBundle(sampleBundle(), "test", "")
	require.NoError(t, err)

	ok, err := ref.LookupRange("ORPROC", "0DTJ4ZZ", 2, domain.Between(1, 30))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ref.LookupRange("ORPROC", "0DTJ4ZZ", 0, domain.Between(1, 30))
	require.NoError(t, err)
	assert.False(t, ok, "offset outside window")

	ok, err = ref.LookupRange("ORPROC", "XXXXXXX", 2, domain.Between(1, 30))
	require.NoError(t, err)
	assert.False(t, ok, "code outside set")
}

func TestRequireAndMissing(t *testing.T) {
	ref, err := FromBundle(sampleBundle(), "test", "")
	require.NoError(t, err)

	assert.NoError(t, ref.Require("ACURF2D", "ORPROC"))
	err = ref.Require("ACURF2D", "TRACHIP")
	var unknown *domain.UnknownCodeSetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "TRACHIP", unknown.Set)

	assert.Equal(t, []string{"PR9604P", "TRACHIP"}, ref.Missing([]string{"TRACHIP", "ORPROC", "PR9604P"}))
	assert.Equal(t, []string{"ACURF2D", "LOWMODR", "ORPROC"}, ref.Names())
}

func TestFromBundleRejectsMalformedData(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bundle)
	}{
		{"missing version", func(b *Bundle) { b.Version = "" }},
		{"unsupported version", func(b *Bundle) { b.Version = "2019" }},
		{"bad effective date", func(b *Bundle) { b.EffectiveFrom = "10/01/2023" }},
		{"inverted effective range", func(b *Bundle) { b.EffectiveFrom, b.EffectiveTo = "2024-09-30", "2023-10-01" }},
		{"no code sets", func(b *Bundle) { b.CodeSets = nil }},
		{"empty code set", func(b *Bundle) { b.CodeSets["EMPTY"] = BundleCodeSet{} }},
		{"blank name", func(b *Bundle) { b.CodeSets[" "] = BundleCodeSet{Codes: []string{"A"}} }},
		{"inverted range", func(b *Bundle) {
			b.CodeSets["BAD"] = BundleCodeSet{Ranges: []Range{{From: "0JH63DZ", To: "0JH60DZ"}}}
		}},
		{"unpadded drg", func(b *Bundle) { b.CodeSets["LOWMODR"] = BundleCodeSet{Codes: []string{"39"}} }},
		{"non numeric drg", func(b *Bundle) { b.CodeSets["SURGI2R"] = BundleCodeSet{Codes: []string{"J96"}} }},
		{"unpadded drg range", func(b *Bundle) {
			b.CodeSets["MEDIC2R"] = BundleCodeSet{Ranges: []Range{{From: "1", To: "9"}}}
		}},
		{"mixed length range", func(b *Bundle) {
			b.CodeSets["BAD"] = BundleCodeSet{Ranges: []Range{{From: "0JH6", To: "0JH60DZ"}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sampleBundle()
			tt.mutate(&b)

			ref, err := FromBundle(b, "test", "")
			assert.Nil(t, ref)

			var loadErr *domain.ReferenceLoadError
			require.True(t, errors.As(err, &loadErr), "expected ReferenceLoadError, got %v", err)
			assert.Equal(t, "test", loadErr.Source)
		})
	}
}

func TestReferenceInfoAndEffectiveRange(t *testing.T) {
	ref, err := FromBundle(sampleBundle(), "unit", "sha256:abc")
	require.NoError(t, err)

	info := ref.Info()
	assert.Equal(t, SupportedVersion, info.Version)
	assert.Equal(t, "sha256:abc", info.Digest)
	assert.Equal(t, 3, info.CodeSets)

	from, to := ref.EffectiveRange()
	assert.True(t, ref.EffectiveOn(from))
	assert.True(t, ref.EffectiveOn(to))
	assert.False(t, ref.EffectiveOn(to.AddDate(0, 0, 1)))
	assert.False(t, ref.EffectiveOn(from.AddDate(0, 0, -1)))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "T814XXA", NormalizeCode(" t81.4xxa "))
	assert.Equal(t, "", NormalizeCode("   "))

	cs := NewCodeSet("X", []string{"a.1", "", "B2"}, nil)
	assert.Equal(t, []string{"A1", "B2"}, cs.Codes())
	assert.Equal(t, 2, cs.Size())
}
