package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/psi-indicator-engine/internal/engine"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL result store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL result store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// SaveBatch upserts the batch row and each encounter result row.
func (s *PostgresStore) SaveBatch(ctx context.Context, result *engine.Result) error {
	configErrs, err := encodeConfigErrors(result.ConfigurationErrors)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO evaluation_batches (
			id, reference_version, reference_digest, encounter_count,
			unevaluable_count, configuration_errors, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			reference_version = EXCLUDED.reference_version,
			reference_digest = EXCLUDED.reference_digest,
			encounter_count = EXCLUDED.encounter_count,
			unevaluable_count = EXCLUDED.unevaluable_count,
			configuration_errors = EXCLUDED.configuration_errors,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`,
		result.BatchID.String(),
		result.ReferenceVersion,
		result.ReferenceDigest,
		len(result.Encounters),
		result.UnevaluableCount(),
		configErrs,
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO encounter_results (batch_id, encounter_id, row_index, unevaluable, verdicts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (batch_id, row_index) DO UPDATE SET
			encounter_id = EXCLUDED.encounter_id,
			unevaluable = EXCLUDED.unevaluable,
			verdicts = EXCLUDED.verdicts
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare encounter upsert: %w", err)
	}
	defer stmt.Close()

	for _, er := range result.Encounters {
		row, err := encodeEncounter(er)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, result.BatchID.String(), row.encounterID, row.index, row.unevaluable, row.verdicts); err != nil {
			return fmt.Errorf("failed to save encounter result %d: %w", row.index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a stored batch with its encounter results in input order.
func (s *PostgresStore) GetBatch(ctx context.Context, id uuid.UUID) (*engine.Result, error) {
	result := &engine.Result{BatchID: id}
	var encounters, unevaluable int
	var configErrs []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT reference_version, reference_digest, encounter_count, unevaluable_count,
			configuration_errors, started_at, finished_at
		FROM evaluation_batches
		WHERE id = $1
	`, id.String()).Scan(
		&result.ReferenceVersion, &result.ReferenceDigest, &encounters, &unevaluable,
		&configErrs, &result.StartedAt, &result.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if result.ConfigurationErrors, err = decodeConfigErrors(configErrs); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT encounter_id, row_index, unevaluable, verdicts
		FROM encounter_results
		WHERE batch_id = $1
		ORDER BY row_index
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query encounter results: %w", err)
	}
	defer rows.Close()

	result.Encounters = make([]engine.EncounterResult, 0, encounters)
	for rows.Next() {
		var row encodedEncounter
		if err := rows.Scan(&row.encounterID, &row.index, &row.unevaluable, &row.verdicts); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		er, err := decodeEncounter(row)
		if err != nil {
			return nil, err
		}
		result.Encounters = append(result.Encounters, er)
	}
	return result, rows.Err()
}

// ListBatches returns batch summaries with pagination.
func (s *PostgresStore) ListBatches(ctx context.Context, limit, offset int) ([]BatchSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference_version, reference_digest, encounter_count, unevaluable_count,
			started_at, finished_at
		FROM evaluation_batches
		ORDER BY started_at DESC, id
		LIMIT $1 OFFSET $2
	`, listLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Count returns the total number of stored batches.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluation_batches").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}
	return count, nil
}

// Delete removes a batch by ID; encounter results cascade.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM evaluation_batches WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
