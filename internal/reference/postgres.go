package reference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/domain"
)

// PostgresSource loads one reference version from the reference_* tables
type PostgresSource struct {
	db      *pgxpool.Pool
	version string
	log     *logrus.Logger
}

// NewPostgresSource creates a source for the given version
func NewPostgresSource(db *pgxpool.Pool, version string, logger *logrus.Logger) *PostgresSource {
	return &PostgresSource{db: db, version: version, log: logger}
}

// Name identifies the source in logs
func (s *PostgresSource) Name() string {
	return "postgres:" + s.version
}

// Load reads the version row and every member and range of its code sets
func (s *PostgresSource) Load(ctx context.Context) (*Reference, error) {
	source := s.Name()

	var (
		b        Bundle
		from, to *time.Time
		digest   string
	)
	err := s.db.QueryRow(ctx, `
		SELECT version, effective_from, effective_to, description, digest
		FROM reference_versions
		WHERE version = $1`, s.version).Scan(&b.Version, &from, &to, &b.Description, &digest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewReferenceLoadError(source, "version not found", domain.ErrNotFound)
		}
		return nil, domain.NewReferenceLoadError(source, "querying reference version", err)
	}
	if from != nil {
		b.EffectiveFrom = from.Format(dateLayout)
	}
	if to != nil {
		b.EffectiveTo = to.Format(dateLayout)
	}

	b.CodeSets = make(map[string]BundleCodeSet)

	rows, err := s.db.Query(ctx, `
		SELECT cs.name, cs.description, m.code
		FROM code_sets cs
		LEFT JOIN code_set_members m ON m.version = cs.version AND m.set_name = cs.name
		WHERE cs.version = $1
		ORDER BY cs.name, m.code`, s.version)
	if err != nil {
		return nil, domain.NewReferenceLoadError(source, "querying code set members", err)
	}
	for rows.Next() {
		var name, description string
		var code *string
		if err := rows.Scan(&name, &description, &code); err != nil {
			rows.Close()
			return nil, domain.NewReferenceLoadError(source, "scanning code set member", err)
		}
		set := b.CodeSets[name]
		set.Description = description
		if code != nil {
			set.Codes = append(set.Codes, *code)
		}
		b.CodeSets[name] = set
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.NewReferenceLoadError(source, "iterating code set members", err)
	}

	rangeRows, err := s.db.Query(ctx, `
		SELECT set_name, range_from, range_to
		FROM code_set_ranges
		WHERE version = $1
		ORDER BY set_name, range_from`, s.version)
	if err != nil {
		return nil, domain.NewReferenceLoadError(source, "querying code set ranges", err)
	}
	defer rangeRows.Close()
	for rangeRows.Next() {
		var name string
		var r Range
		if err := rangeRows.Scan(&name, &r.From, &r.To); err != nil {
			return nil, domain.NewReferenceLoadError(source, "scanning code set range", err)
		}
		set, ok := b.CodeSets[name]
		if !ok {
			return nil, domain.NewReferenceLoadError(source, fmt.Sprintf("range for undeclared code set %s", name), nil)
		}
		set.Ranges = append(set.Ranges, r)
		b.CodeSets[name] = set
	}
	if err := rangeRows.Err(); err != nil {
		return nil, domain.NewReferenceLoadError(source, "iterating code set ranges", err)
	}

	ref, err := FromBundle(b, source, digest)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"version":   ref.Version(),
		"code_sets": len(b.CodeSets),
	}).Debug("Loaded reference from database")
	return ref, nil
}

// Import writes a bundle into the reference tables, replacing any existing
// rows for the same version inside one transaction.
func Import(ctx context.Context, db *pgxpool.Pool, b Bundle, digest string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning reference import: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"code_set_ranges", "code_set_members", "code_sets", "reference_versions"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE version = $1", b.Version); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	var from, to *time.Time
	if t, err := parseDate(b.EffectiveFrom); err == nil && !t.IsZero() {
		from = &t
	}
	if t, err := parseDate(b.EffectiveTo); err == nil && !t.IsZero() {
		to = &t
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO reference_versions (version, effective_from, effective_to, description, digest)
		VALUES ($1, $2, $3, $4, $5)`, b.Version, from, to, b.Description, digest); err != nil {
		return fmt.Errorf("inserting reference version: %w", err)
	}

	for name, set := range b.CodeSets {
		if _, err := tx.Exec(ctx, `
			INSERT INTO code_sets (version, name, description) VALUES ($1, $2, $3)`,
			b.Version, name, set.Description); err != nil {
			return fmt.Errorf("inserting code set %s: %w", name, err)
		}
		for _, code := range set.Codes {
			if _, err := tx.Exec(ctx, `
				INSERT INTO code_set_members (version, set_name, code) VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`, b.Version, name, NormalizeCode(code)); err != nil {
				return fmt.Errorf("inserting member of %s: %w", name, err)
			}
		}
		for _, r := range set.Ranges {
			if _, err := tx.Exec(ctx, `
				INSERT INTO code_set_ranges (version, set_name, range_from, range_to) VALUES ($1, $2, $3, $4)`,
				b.Version, name, NormalizeCode(r.From), NormalizeCode(r.To)); err != nil {
				return fmt.Errorf("inserting range of %s: %w", name, err)
			}
		}
	}

	return tx.Commit(ctx)
}
