package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, schema Schema) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), schema.Name+".db"), schema, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestNewDB_AppliesSchemaVersion(t *testing.T) {
	db := newTestDB(t, TrackerSchema)

	version, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, len(TrackerSchema.Migrations), version)
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")

	db, err := NewDB(path, TrackerSchema, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Close())

	reopened, err := NewDB(path, TrackerSchema, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	var slots int
	require.NoError(t, reopened.handler.QueryRow(`SELECT count(*) FROM rate_limit`).Scan(&slots))
	assert.Equal(t, 1, slots)
}

func TestMigrate_AppliesIncrementalMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")

	db, err := NewDB(path, TrackerSchema, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	upgraded := TrackerSchema
	upgraded.Migrations = append(append([]string{}, TrackerSchema.Migrations...),
		`ALTER TABLE anime ADD COLUMN notes TEXT;`)

	db, err = NewDB(path, upgraded, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	version, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, len(upgraded.Migrations), version)

	_, err = db.handler.Exec(`UPDATE anime SET notes = 'x'`)
	assert.NoError(t, err)
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")

	db, err := NewDB(path, TrackerSchema, zerolog.Nop())
	require.NoError(t, err)
	_, err = db.handler.Exec(`PRAGMA user_version = 99`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewDB(path, TrackerSchema, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}
