package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psi-indicator-engine/internal/config"
	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/indicator"
	"github.com/psi-indicator-engine/internal/reference"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// writeBundle writes a bundle covering every required set, minus skip
func writeBundle(t *testing.T, path string, skip ...string) {
	t.Helper()
	b := reference.Bundle{
		Version:       reference.SupportedVersion,
		EffectiveFrom: "2023-10-01",
		EffectiveTo:   "2024-09-30",
		CodeSets:      make(map[string]reference.BundleCodeSet),
	}
	for _, name := range indicator.NewRegistry().RequiredCodeSets() {
		b.CodeSets[name] = reference.BundleCodeSet{Codes: []string{"ZZZ" + name}}
	}
	b.CodeSets["SURGI2R"] = reference.BundleCodeSet{Codes: []string{"470"}}
	b.CodeSets["MEDIC2R"] = reference.BundleCodeSet{Codes: []string{"000"}}
	b.CodeSets["LOWMODR"] = reference.BundleCodeSet{Codes: []string{"000"}}
	b.CodeSets["ORPROC"] = reference.BundleCodeSet{Codes: []string{"0SRD0J9"}}
	b.CodeSets["ACURF2D"] = reference.BundleCodeSet{Codes: []string{"J96.00"}}
	b.CodeSets["ACURF3D"] = reference.BundleCodeSet{Codes: []string{"J96.00", "J96.90"}}
	for _, name := range skip {
		delete(b.CodeSets, name)
	}
	data, err := reference.Marshal(b)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newTestServer(t *testing.T) (*LiteServer, *config.LiteConfig) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultLiteConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.ReferenceFile = filepath.Join(dir, "reference.yaml")
	cfg.Workers = 2
	writeBundle(t, cfg.ReferenceFile)

	server, err := NewLiteServer(context.Background(), cfg, WithLogger(testLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server, cfg
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	content, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func decodeOutput(t *testing.T, res *mcp.CallToolResult, v interface{}) {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), v))
}

func errorCodeOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &apiErr))
	return apiErr.Code
}

func respiratoryFailure(id string) domain.Encounter {
	return domain.Encounter{
		ID:                   id,
		Age:                  67,
		Sex:                  domain.SexMale,
		MDC:                  8,
		MSDRG:                "470",
		AdmissionType:        domain.AdmissionTypeElective,
		DischargeDisposition: 1,
		LengthOfStay:         5,
		Diagnoses: []domain.Diagnosis{
			{Code: "M17.11", Position: 0, POA: domain.POA_YES},
			{Code: "J96.00", Position: 1, POA: domain.POA_NO},
		},
		Procedures: []domain.Procedure{{Code: "0SRD0J9", Position: 1, DayOffset: 1}},
	}
}

type evaluationOutput struct {
	Result struct {
		BatchID    string `json:"batch_id"`
		Encounters []struct {
			EncounterID string           `json:"encounter_id"`
			Verdicts    []domain.Verdict `json:"verdicts"`
			Unevaluable *struct {
				Reason string `json:"reason"`
			} `json:"unevaluable"`
		} `json:"encounters"`
	} `json:"result"`
	Summary []json.RawMessage `json:"summary"`
	Stored  bool              `json:"stored"`
}

func TestNewLiteServerRequiresCompleteReference(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultLiteConfig()
	cfg.DataDir = dir
	cfg.ReferenceFile = filepath.Join(dir, "reference.yaml")

	_, err := NewLiteServer(context.Background(), cfg, WithLogger(testLogger()))
	assert.Error(t, err, "missing bundle")

	writeBundle(t, cfg.ReferenceFile, "PISACRALD")
	_, err = NewLiteServer(context.Background(), cfg, WithLogger(testLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PISACRALD")

	_, err = NewLiteServer(context.Background(), cfg, WithReferenceSource(nil))
	assert.Error(t, err)
}

func TestEvaluateEncounterTool(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	res, _, err := server.handleEvaluateEncounter(ctx, nil, EvaluateEncounterInput{
		Encounter: respiratoryFailure("E1"),
		Persist:   true,
	})
	require.NoError(t, err)

	var out evaluationOutput
	decodeOutput(t, res, &out)
	assert.True(t, out.Stored)
	require.Len(t, out.Result.Encounters, 1)
	verdicts := out.Result.Encounters[0].Verdicts
	require.Len(t, verdicts, 18)
	assert.Equal(t, domain.PSI_11, verdicts[9].Indicator)
	assert.Equal(t, domain.NUMERATOR, verdicts[9].Outcome)
	assert.Len(t, out.Summary, 18)
	assert.Equal(t, 1, server.Cache().Len())

	res, _, err = server.handleGetBatch(ctx, nil, GetBatchInput{BatchID: out.Result.BatchID})
	require.NoError(t, err)
	var fetched evaluationOutput
	decodeOutput(t, res, &fetched)
	assert.Equal(t, out.Result.BatchID, fetched.Result.BatchID)
}

func TestEvaluateEncounterToolInvalidRecord(t *testing.T) {
	server, _ := newTestServer(t)

	res, _, err := server.handleEvaluateEncounter(context.Background(), nil, EvaluateEncounterInput{
		Encounter: domain.Encounter{ID: "BAD"},
	})
	require.NoError(t, err)

	var out evaluationOutput
	decodeOutput(t, res, &out)
	require.Len(t, out.Result.Encounters, 1)
	require.NotNil(t, out.Result.Encounters[0].Unevaluable)
	assert.Empty(t, out.Result.Encounters[0].Verdicts)
	assert.False(t, out.Stored)
}

func TestEvaluateRowsTool(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	csv := strings.Join([]string{
		"EncounterID,AGE,SEX,MDC,MS-DRG,ATYPE,DISP,LOS,Pdx,POA1,DX1,POA2,Proc1,Proc1_Day",
		"R1,67,1,8,470,3,1,5,M17.11,Y,J96.00,N,0SRD0J9,1",
		"R2,,1,8,470,3,1,5,M17.11,Y,,,,",
	}, "\n")

	tests := []struct {
		name  string
		input EvaluateRowsInput
		count int
	}{
		{"csv", EvaluateRowsInput{CSV: csv}, 2},
		{"rows", EvaluateRowsInput{Rows: []map[string]string{{
			"EncounterID": "R1", "AGE": "67", "SEX": "M", "MDC": "8", "MS-DRG": "470",
			"ATYPE": "3", "DISP": "1", "LOS": "5", "Pdx": "M17.11", "POA1": "Y",
		}}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := server.handleEvaluateRows(ctx, nil, tt.input)
			require.NoError(t, err)
			var out evaluationOutput
			decodeOutput(t, res, &out)
			require.Len(t, out.Result.Encounters, tt.count)
			assert.Equal(t, "R1", out.Result.Encounters[0].EncounterID)
			assert.Len(t, out.Result.Encounters[0].Verdicts, 18)
		})
	}

	t.Run("csv second row invalid", func(t *testing.T) {
		res, _, err := server.handleEvaluateRows(ctx, nil, EvaluateRowsInput{CSV: csv})
		require.NoError(t, err)
		var out evaluationOutput
		decodeOutput(t, res, &out)
		assert.NotNil(t, out.Result.Encounters[1].Unevaluable)
	})

	t.Run("both inputs", func(t *testing.T) {
		res, _, err := server.handleEvaluateRows(ctx, nil, EvaluateRowsInput{CSV: csv, Rows: []map[string]string{{}}})
		require.NoError(t, err)
		assert.Equal(t, domain.ErrValidation, errorCodeOf(t, res))
	})
}

func TestListIndicatorsTool(t *testing.T) {
	server, _ := newTestServer(t)

	res, _, err := server.handleListIndicators(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)

	var out struct {
		Indicators []IndicatorInfo `json:"indicators"`
		Total      int             `json:"total"`
	}
	decodeOutput(t, res, &out)
	assert.Equal(t, 18, out.Total)
	assert.Equal(t, domain.PSI_02, out.Indicators[0].ID)
	assert.Equal(t, domain.PSI_19, out.Indicators[17].ID)
}

func TestReferenceTools(t *testing.T) {
	server, cfg := newTestServer(t)
	ctx := context.Background()

	res, _, err := server.handleReferenceInfo(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	var info reference.Info
	decodeOutput(t, res, &info)
	assert.Equal(t, reference.SupportedVersion, info.Version)
	original := info.Digest

	// An incomplete bundle is rejected and the loaded reference stays
	writeBundle(t, cfg.ReferenceFile, "ACURF2D")
	res, _, err = server.handleReloadReference(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrReferenceLoad, errorCodeOf(t, res))

	res, _, err = server.handleReferenceInfo(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	decodeOutput(t, res, &info)
	assert.Equal(t, original, info.Digest)

	writeBundle(t, cfg.ReferenceFile)
	res, _, err = server.handleReloadReference(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	decodeOutput(t, res, &info)
	assert.Equal(t, original, info.Digest)
}

func TestGetBatchTool(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	res, _, err := server.handleGetBatch(ctx, nil, GetBatchInput{BatchID: "nope"})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrValidation, errorCodeOf(t, res))

	res, _, err = server.handleGetBatch(ctx, nil, GetBatchInput{BatchID: "6f1c1f7e-8f5a-4f7c-9d3b-2a1e0c9b8a70"})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrNotFoundCode, errorCodeOf(t, res))
}

func TestCacheDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultLiteConfig()
	cfg.DataDir = dir
	cfg.ReferenceFile = filepath.Join(dir, "reference.yaml")
	cfg.CacheMaxItems = 0
	writeBundle(t, cfg.ReferenceFile)

	server, err := NewLiteServer(context.Background(), cfg, WithLogger(testLogger()))
	require.NoError(t, err)
	defer server.Close()

	assert.Nil(t, server.Cache())
	res, _, err := server.handleReloadReference(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
