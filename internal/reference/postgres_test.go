package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/psi-indicator-engine/internal/database"
	"github.com/psi-indicator-engine/internal/domain"
)

func TestPostgresSourceImportAndLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("psi"),
		postgres.WithUsername("psi"),
		postgres.WithPassword("psi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.Config{
		Host: host, Port: port.Int(), Database: "psi", Username: "psi", Password: "psi",
		MaxConns: 4, MinConns: 1, MaxConnLife: time.Hour, MaxConnIdle: time.Minute, SSLMode: "disable",
	}
	logger := testLogger()

	runner, err := database.NewMigrationRunner(cfg.URL(), logger)
	require.NoError(t, err)
	require.NoError(t, runner.Up())
	require.NoError(t, runner.Close())

	db, err := database.NewConnection(ctx, cfg, logger)
	require.NoError(t, err)
	defer db.Close()

	bundle := sampleBundle()
	require.NoError(t, Import(ctx, db.Pool, bundle, "sha256:test"))
	// importing again replaces rather than duplicates
	require.NoError(t, Import(ctx, db.Pool, bundle, "sha256:test"))

	ref, err := NewPostgresSource(db.Pool, SupportedVersion, logger).Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, SupportedVersion, ref.Version())
	assert.Equal(t, "sha256:test", ref.Digest())
	assert.ElementsMatch(t, []string{"ACURF2D", "LOWMODR", "ORPROC"}, ref.Names())

	ok, err := ref.Lookup("ACURF2D", "J95.821")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ref.Lookup("ORPROC", "0JH62DZ")
	require.NoError(t, err)
	assert.True(t, ok, "ranges survive the database round trip")

	_, err = NewPostgresSource(db.Pool, "2019", logger).Load(ctx)
	var loadErr *domain.ReferenceLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
