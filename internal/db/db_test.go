package database

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "reviews_user_place_key"}
	wrapped := fmt.Errorf("failed to insert review: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.True(t, IsUniqueViolation(wrapped, "reviews_user_place_key"))
	assert.False(t, IsUniqueViolation(wrapped, "favorites_user_place_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain"), ""))
}

func TestNewDatabaseConfig(t *testing.T) {
	cfg := &config.Config{Repositories: config.RepositoriesConfig{Postgres: config.PostgresConfig{
		Host: "db", Port: "5432", DB: "kidspots", Username: "app", Password: "p@ss", SSLMode: "disable",
	}}}

	dbCfg, err := NewDatabaseConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, dbCfg.ConnectionURL, "postgresql://app:p%40ss@db:5432/kidspots")
	assert.Contains(t, dbCfg.ConnectionURL, "sslmode=disable")

	_, err = NewDatabaseConfig(&config.Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
