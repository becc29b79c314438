package reference

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-indicator-engine/internal/domain"
)

const yamlBundle = `
version: "2024"
effective_from: "2023-10-01"
effective_to: "2024-09-30"
description: AHRQ PSI v2024 sample
code_sets:
  ACURF2D:
    description: Acute respiratory failure
    codes: [J96.00, J96.01, J96.02]
  ORPROC:
    ranges:
      - {from: 0JH60DZ, to: 0JH63DZ}
`

const jsonBundle = `{
  "version": "2024",
  "effective_from": "2023-10-01",
  "code_sets": {
    "LOWMODR": {"codes": ["039"]}
  }
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "bundle.yaml", yamlBundle)

	ref, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, SupportedVersion, ref.Version())
	assert.Equal(t, Digest([]byte(yamlBundle)), ref.Digest())
	assert.Contains(t, ref.Digest(), "sha256:")

	ok, err := ref.Lookup("ACURF2D", "J9601")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ref.Lookup("ORPROC", "0JH62DZ")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "bundle.json", jsonBundle)

	ref, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, ref.Has("LOWMODR"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"not yaml", "version: [unterminated"},
		{"unknown field", "version: \"2024\"\nextra: true\ncode_sets:\n  A: {codes: [X]}\n"},
		{"wrong version", "version: \"2019\"\ncode_sets:\n  A: {codes: [X]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := Parse([]byte(tt.data), "inline")
			assert.Nil(t, ref)
			var loadErr *domain.ReferenceLoadError
			assert.True(t, errors.As(err, &loadErr), "expected ReferenceLoadError, got %v", err)
		})
	}
}

func TestReadBundle(t *testing.T) {
	path := writeFile(t, "bundle.yaml", yamlBundle)

	b, digest, err := ReadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, "2024", b.Version)
	assert.Equal(t, Digest([]byte(yamlBundle)), digest)
	assert.Equal(t, []string{"J96.00", "J96.01", "J96.02"}, b.CodeSets["ACURF2D"].Codes)

	_, _, err = ReadBundle(writeFile(t, "bad.yaml", "version: 2024\nbogus: true\n"))
	var loadErr *domain.ReferenceLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	var loadErr *domain.ReferenceLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMarshalRoundTripPreservesLookups(t *testing.T) {
	data, err := Marshal(sampleBundle())
	require.NoError(t, err)

	ref, err := Parse(data, "marshalled")
	require.NoError(t, err)
	ok, err := ref.Lookup("ORPROC", "0JH61DZ")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHolderReload(t *testing.T) {
	ctx := context.Background()
	holder := NewHolder(testLogger(), nil)

	_, err := holder.Current()
	assert.ErrorIs(t, err, domain.ErrReferenceNotReady)
	assert.False(t, holder.Ready())

	good := NewFileSource(writeFile(t, "good.yaml", yamlBundle))
	first, err := holder.Reload(ctx, good)
	require.NoError(t, err)
	assert.True(t, holder.Ready())

	bad := NewFileSource(writeFile(t, "bad.yaml", "version: \"2019\"\ncode_sets:\n  A: {codes: [X]}\n"))
	_, err = holder.Reload(ctx, bad)
	require.Error(t, err)

	current, err := holder.Current()
	require.NoError(t, err)
	assert.Same(t, first, current, "failed reload must keep the previous reference")

	next := NewFileSource(writeFile(t, "next.json", jsonBundle))
	second, err := holder.Reload(ctx, next)
	require.NoError(t, err)

	current, err = holder.Current()
	require.NoError(t, err)
	assert.Same(t, second, current)
	assert.False(t, current.Has("ACURF2D"), "a new version supersedes, never merges")
}

func TestHolderValidatorRejects(t *testing.T) {
	holder := NewHolder(testLogger(), func(r *Reference) error {
		return r.Require("TRACHIP")
	})

	_, err := holder.Reload(context.Background(), NewFileSource(writeFile(t, "b.yaml", yamlBundle)))
	require.Error(t, err)

	var unknown *domain.UnknownCodeSetError
	assert.True(t, errors.As(err, &unknown))
	assert.False(t, holder.Ready())
}

func TestHolderConcurrentReaders(t *testing.T) {
	holder := NewHolder(testLogger(), nil)
	source := NewFileSource(writeFile(t, "b.yaml", yamlBundle))
	_, err := holder.Reload(context.Background(), source)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ref, err := holder.Current()
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := ref.Lookup("ACURF2D", "J9600"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := holder.Reload(context.Background(), source)
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestFileSourceHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSource(writeFile(t, "b.yaml", yamlBundle)).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
