package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/encounter"
	"github.com/psi-indicator-engine/internal/engine"
)

// Tool names
const (
	ToolEvaluateEncounter = "evaluate_encounter"
	ToolEvaluateRows      = "evaluate_rows"
	ToolListIndicators    = "list_indicators"
	ToolReferenceInfo     = "reference_info"
	ToolReloadReference   = "reload_reference"
	ToolGetBatch          = "get_batch"
)

// EvaluateEncounterInput is the evaluate_encounter argument
type EvaluateEncounterInput struct {
	Encounter domain.Encounter `json:"encounter" jsonschema:"the structured inpatient encounter"`
	Persist   bool             `json:"persist,omitempty" jsonschema:"store the batch for later retrieval"`
}

// EvaluateRowsInput is the evaluate_rows argument. Rows and CSV are
// alternatives; CSV must include the claim-template header.
type EvaluateRowsInput struct {
	Rows    []map[string]string `json:"rows,omitempty" jsonschema:"claim-template rows keyed by column name"`
	CSV     string              `json:"csv,omitempty" jsonschema:"claim-template CSV text with header"`
	Persist bool                `json:"persist,omitempty" jsonschema:"store the batch for later retrieval"`
}

// GetBatchInput is the get_batch argument
type GetBatchInput struct {
	BatchID string `json:"batch_id" jsonschema:"batch id returned by an evaluation"`
}

// EmptyInput is the argument of tools without parameters
type EmptyInput struct{}

// EvaluationOutput is returned by the evaluation tools
type EvaluationOutput struct {
	Result  *engine.Result            `json:"result"`
	Summary []engine.IndicatorSummary `json:"summary"`
	Stored  bool                      `json:"stored"`
}

// IndicatorInfo describes one registered rule
type IndicatorInfo struct {
	ID       domain.IndicatorID `json:"id"`
	Name     string             `json:"name"`
	CodeSets []string           `json:"code_sets"`
}

func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolEvaluateEncounter,
		Description: "Evaluate one inpatient encounter against AHRQ PSI 02-19 and return a verdict per indicator",
	}, s.handleEvaluateEncounter)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolEvaluateRows,
		Description: "Evaluate a batch of claim-template rows (JSON rows or CSV text) and return verdicts with per-indicator counts",
	}, s.handleEvaluateRows)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListIndicators,
		Description: "List the registered patient safety indicators and the code sets each one uses",
	}, s.handleListIndicators)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolReferenceInfo,
		Description: "Describe the loaded code-set reference: version, effective range, digest and set names",
	}, s.handleReferenceInfo)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolReloadReference,
		Description: "Reload the code-set reference bundle; the current reference stays in service if the new one is rejected",
	}, s.handleReloadReference)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGetBatch,
		Description: "Fetch a previously stored evaluation batch by id",
	}, s.handleGetBatch)

	s.logger.WithField("tool_count", 6).Info("Successfully registered all tools")
}

func (s *LiteServer) handleEvaluateEncounter(ctx context.Context, _ *mcp.CallToolRequest, in EvaluateEncounterInput) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{"tool": ToolEvaluateEncounter, "encounter_id": in.Encounter.ID}).Debug("Tool invoked")

	enc := in.Encounter
	result, err := s.engine.Evaluate(ctx, []*domain.Encounter{&enc})
	if err != nil {
		return s.errorResult(ToolEvaluateEncounter, err), nil, nil
	}
	return s.evaluationResult(ctx, result, in.Persist), nil, nil
}

func (s *LiteServer) handleEvaluateRows(ctx context.Context, _ *mcp.CallToolRequest, in EvaluateRowsInput) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolEvaluateRows).Debug("Tool invoked")

	rows, err := rowsOf(in)
	if err != nil {
		return s.errorResult(ToolEvaluateRows, err), nil, nil
	}
	result, err := s.engine.EvaluateRows(ctx, rows)
	if err != nil {
		return s.errorResult(ToolEvaluateRows, err), nil, nil
	}
	return s.evaluationResult(ctx, result, in.Persist), nil, nil
}

func (s *LiteServer) handleListIndicators(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	rules := s.engine.Registry().All()
	infos := make([]IndicatorInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, IndicatorInfo{ID: rule.ID(), Name: rule.Name(), CodeSets: rule.CodeSets()})
	}
	return s.jsonResult(map[string]interface{}{"indicators": infos, "total": len(infos)}), nil, nil
}

func (s *LiteServer) handleReferenceInfo(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	ref, err := s.holder.Current()
	if err != nil {
		return s.errorResult(ToolReferenceInfo, err), nil, nil
	}
	return s.jsonResult(ref.Info()), nil, nil
}

func (s *LiteServer) handleReloadReference(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, any, error) {
	ref, err := s.holder.Reload(ctx, s.source)
	if err != nil {
		return s.errorResult(ToolReloadReference, err), nil, nil
	}
	// Cached verdicts are keyed by digest, so entries for the old reference
	// only waste space
	if s.cache != nil {
		s.cache.Purge()
	}
	return s.jsonResult(ref.Info()), nil, nil
}

func (s *LiteServer) handleGetBatch(ctx context.Context, _ *mcp.CallToolRequest, in GetBatchInput) (*mcp.CallToolResult, any, error) {
	id, err := uuid.Parse(in.BatchID)
	if err != nil {
		return s.errorResult(ToolGetBatch, domain.NewValidationError("batch_id", "invalid batch id", in.BatchID)), nil, nil
	}
	result, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return s.errorResult(ToolGetBatch, err), nil, nil
	}
	return s.jsonResult(EvaluationOutput{Result: result, Summary: result.Summary(), Stored: true}), nil, nil
}

func rowsOf(in EvaluateRowsInput) ([]encounter.RawRow, error) {
	if len(in.Rows) > 0 && in.CSV != "" {
		return nil, domain.NewValidationError("rows", "send either rows or csv, not both", nil)
	}
	if in.CSV != "" {
		reader, err := encounter.NewReader(strings.NewReader(in.CSV))
		if err != nil {
			return nil, err
		}
		return reader.ReadAll()
	}
	rows := make([]encounter.RawRow, len(in.Rows))
	for i, row := range in.Rows {
		rows[i] = encounter.RawRow(row)
	}
	return rows, nil
}

func (s *LiteServer) evaluationResult(ctx context.Context, result *engine.Result, persist bool) *mcp.CallToolResult {
	out := EvaluationOutput{Result: result, Summary: result.Summary()}
	if persist {
		if err := s.store.SaveBatch(ctx, result); err != nil {
			s.logger.WithError(err).WithField("batch_id", result.BatchID).Error("Failed to store batch")
			return s.errorResult("save_batch", err)
		}
		out.Stored = true
	}
	return s.jsonResult(out)
}

func (s *LiteServer) jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s.errorResult("encode", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errorResult reports a tool failure to the client as an APIError body
func (s *LiteServer) errorResult(tool string, err error) *mcp.CallToolResult {
	s.logger.WithError(err).WithField("tool", tool).Warn("Tool call failed")

	apiErr := domain.NewAPIError(errorCode(err), err.Error(), "", "")
	data, _ := json.Marshal(apiErr)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func errorCode(err error) string {
	var (
		validationErr *domain.ValidationError
		referenceErr  *domain.ReferenceLoadError
	)
	switch {
	case errors.As(err, &validationErr):
		return domain.ErrValidation
	case errors.As(err, &referenceErr):
		return domain.ErrReferenceLoad
	case errors.Is(err, domain.ErrReferenceNotReady):
		return domain.ErrServiceNotReady
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFoundCode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrEvaluation
	default:
		return domain.ErrInternalServer
	}
}
