// Package results persists evaluated batches.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/engine"
)

// BatchSummary is the listing view of a stored batch
type BatchSummary struct {
	ID               uuid.UUID `json:"id"`
	ReferenceVersion string    `json:"reference_version"`
	ReferenceDigest  string    `json:"reference_digest,omitempty"`
	EncounterCount   int       `json:"encounter_count"`
	UnevaluableCount int       `json:"unevaluable_count"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// Store defines the interface for batch result storage.
type Store interface {
	// SaveBatch stores a batch. Saving the same batch id again replaces it.
	SaveBatch(ctx context.Context, result *engine.Result) error

	// GetBatch returns a stored batch or an error wrapping domain.ErrNotFound.
	GetBatch(ctx context.Context, id uuid.UUID) (*engine.Result, error)

	// ListBatches returns batch summaries, most recent first.
	ListBatches(ctx context.Context, limit, offset int) ([]BatchSummary, error)

	// Count returns the number of stored batches.
	Count(ctx context.Context) (int64, error)

	// Delete removes a batch and its encounter results.
	Delete(ctx context.Context, id uuid.UUID) error

	// Close closes the store and releases resources.
	Close() error
}

// encodedEncounter is one encounter_results row
type encodedEncounter struct {
	encounterID string
	index       int
	unevaluable string
	verdicts    []byte
}

func encodeEncounter(er engine.EncounterResult) (encodedEncounter, error) {
	row := encodedEncounter{encounterID: er.EncounterID, index: er.Index}

	verdicts := er.Verdicts
	if verdicts == nil {
		verdicts = []domain.Verdict{}
	}
	data, err := json.Marshal(verdicts)
	if err != nil {
		return row, fmt.Errorf("failed to encode verdicts: %w", err)
	}
	row.verdicts = data

	if er.Unevaluable != nil {
		marker, err := json.Marshal(er.Unevaluable)
		if err != nil {
			return row, fmt.Errorf("failed to encode unevaluable marker: %w", err)
		}
		row.unevaluable = string(marker)
	}
	return row, nil
}

func decodeEncounter(row encodedEncounter) (engine.EncounterResult, error) {
	er := engine.EncounterResult{EncounterID: row.encounterID, Index: row.index}

	if len(row.verdicts) > 0 {
		if err := json.Unmarshal(row.verdicts, &er.Verdicts); err != nil {
			return er, fmt.Errorf("failed to decode verdicts of row %d: %w", row.index, err)
		}
	}
	if len(er.Verdicts) == 0 {
		er.Verdicts = nil
	}
	if row.unevaluable != "" {
		er.Unevaluable = &engine.Unevaluable{}
		if err := json.Unmarshal([]byte(row.unevaluable), er.Unevaluable); err != nil {
			return er, fmt.Errorf("failed to decode unevaluable marker of row %d: %w", row.index, err)
		}
	}
	return er, nil
}

func encodeConfigErrors(errs []*domain.UnknownCodeSetError) ([]byte, error) {
	if errs == nil {
		errs = []*domain.UnknownCodeSetError{}
	}
	return json.Marshal(errs)
}

func decodeConfigErrors(data []byte) ([]*domain.UnknownCodeSetError, error) {
	var errs []*domain.UnknownCodeSetError
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &errs); err != nil {
		return nil, fmt.Errorf("failed to decode configuration errors: %w", err)
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
}

// defaultListLimit applies when a caller passes a non-positive limit
const defaultListLimit = 50

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
