package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "nested", "test.db"), MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_EnforcesForeignKeys(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Check(context.Background()))

	_, err := db.Exec(`CREATE TABLE parent (id INTEGER PRIMARY KEY);
		CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parent(id));`)
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO child (id, parent_id) VALUES (1, 99)")
	assert.Error(t, err)
}

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"002_add_note.sql":       {Data: []byte("ALTER TABLE things ADD COLUMN note TEXT;")},
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"README.md":              {Data: []byte("ignored")},
	}

	m := NewMigrator(db, zap.NewNop())
	require.NoError(t, m.RunMigrations(ctx, fsys))

	applied, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 2: true}, applied)

	_, err = db.Exec("INSERT INTO things (id, note) VALUES (1, 'x')")
	require.NoError(t, err)

	// second run is a no-op
	require.NoError(t, m.RunMigrations(ctx, fsys))
}

func TestRunMigrations_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_broken.sql": {Data: []byte("CREATE TABLE ok (id INTEGER); CREATE TABL broken;")},
	}

	m := NewMigrator(db, zap.NewNop())
	require.Error(t, m.RunMigrations(ctx, fsys))

	applied, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'ok'").Scan(&n))
	assert.Zero(t, n)
}

func TestLoadMigrations(t *testing.T) {
	migs, err := LoadMigrations(fstest.MapFS{
		"010_later.sql":   {Data: []byte("SELECT 2;")},
		"002_earlier.sql": {Data: []byte("SELECT 1;")},
	})
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, 2, migs[0].Version)
	assert.Equal(t, "earlier", migs[0].Name)
	assert.Equal(t, 10, migs[1].Version)

	_, err = LoadMigrations(fstest.MapFS{"initial.sql": {Data: []byte("SELECT 1;")}})
	assert.ErrorContains(t, err, "invalid migration filename format")

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "duplicate migration version 1")
}
