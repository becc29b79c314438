package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/psi-indicator-engine/internal/engine"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite result store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers proceed while a batch is being written
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluation_batches (
		id TEXT PRIMARY KEY,
		reference_version TEXT NOT NULL,
		reference_digest TEXT NOT NULL DEFAULT '',
		encounter_count INTEGER NOT NULL,
		unevaluable_count INTEGER NOT NULL,
		configuration_errors TEXT NOT NULL DEFAULT '[]',
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS encounter_results (
		batch_id TEXT NOT NULL REFERENCES evaluation_batches(id) ON DELETE CASCADE,
		encounter_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		unevaluable TEXT NOT NULL DEFAULT '',
		verdicts TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (batch_id, row_index)
	);

	CREATE INDEX IF NOT EXISTS idx_encounter_results_encounter ON encounter_results(encounter_id);
	CREATE INDEX IF NOT EXISTS idx_evaluation_batches_started ON evaluation_batches(started_at);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveBatch stores a batch and all its encounter results in one transaction.
func (s *SQLiteStore) SaveBatch(ctx context.Context, result *engine.Result) error {
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			reference_version = excluded.reference_version,
			reference_digest = excluded.reference_digest,
			encounter_count = excluded.encounter_count,
			unevaluable_count = excluded.unevaluable_count,
			configuration_errors = excluded.configuration_errors,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`,
		result.BatchID.String(),
		result.ReferenceVersion,
		result.ReferenceDigest,
		len(result.Encounters),
		result.UnevaluableCount(),
		string(configErrs),
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM encounter_results WHERE batch_id = ?", result.BatchID.String()); err != nil {
		return fmt.Errorf("failed to clear previous results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO encounter_results (batch_id, encounter_id, row_index, unevaluable, verdicts)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, er := range result.Encounters {
		row, err := encodeEncounter(er)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, result.BatchID.String(), row.encounterID, row.index, row.unevaluable, string(row.verdicts)); err != nil {
			return fmt.Errorf("failed to insert encounter result %d: %w", row.index, err)
		}
	}

	return tx.Commit()
}

// GetBatch retrieves a stored batch with its encounter results in input order.
func (s *SQLiteStore) GetBatch(ctx context.Context, id uuid.UUID) (*engine.Result, error) {
	result := &engine.Result{BatchID: id}
	var encounters, unevaluable int
	var configErrs string

	err := s.db.QueryRowContext(ctx, `
		SELECT reference_version, reference_digest, encounter_count, unevaluable_count,
			configuration_errors, started_at, finished_at
		FROM evaluation_batches
		WHERE id = ?
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

	if result.ConfigurationErrors, err = decodeConfigErrors([]byte(configErrs)); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT encounter_id, row_index, unevaluable, verdicts
		FROM encounter_results
		WHERE batch_id = ?
		ORDER BY row_index
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query encounter results: %w", err)
	}
	defer rows.Close()

	result.Encounters = make([]engine.EncounterResult, 0, encounters)
	for rows.Next() {
		var row encodedEncounter
		var verdicts string
		if err := rows.Scan(&row.encounterID, &row.index, &row.unevaluable, &verdicts); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row.verdicts = []byte(verdicts)
		er, err := decodeEncounter(row)
		if err != nil {
			return nil, err
		}
		result.Encounters = append(result.Encounters, er)
	}
	return result, rows.Err()
}

// ListBatches returns batch summaries with pagination.
func (s *SQLiteStore) ListBatches(ctx context.Context, limit, offset int) ([]BatchSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference_version, reference_digest, encounter_count, unevaluable_count,
			started_at, finished_at
		FROM evaluation_batches
		ORDER BY started_at DESC, id
		LIMIT ? OFFSET ?
	`, listLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Count returns the total number of stored batches.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluation_batches").Scan(&count)
	return count, err
}

// Delete removes a batch by ID. Foreign keys are off by default in SQLite,
// so encounter results are removed explicitly.
func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM encounter_results WHERE batch_id = ?", id.String()); err != nil {
		return fmt.Errorf("failed to delete encounter results: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM evaluation_batches WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return tx.Commit()
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(s scanner) (BatchSummary, error) {
	var summary BatchSummary
	var id string
	err := s.Scan(
		&id, &summary.ReferenceVersion, &summary.ReferenceDigest, &summary.EncounterCount,
		&summary.UnevaluableCount, &summary.StartedAt, &summary.FinishedAt,
	)
	if err != nil {
		return summary, err
	}
	summary.ID, err = uuid.Parse(id)
	return summary, err
}

func scanSummaries(rows *sql.Rows) ([]BatchSummary, error) {
	var result []BatchSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}
