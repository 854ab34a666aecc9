package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDirOnRepoMigrations(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)

	embeddedFiles, err := fs.Glob(embedded, "migrations/*.sql")
	require.NoError(t, err)
	assert.Len(t, embeddedFiles, len(onDisk))
}

func TestSchemaCarriesWorkflowConstraints(t *testing.T) {
	var all strings.Builder
	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	for _, f := range files {
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		all.Write(b)
	}
	content := all.String()

	for _, want := range []string{
		"CONSTRAINT users_email_key UNIQUE (email)",
		"CONSTRAINT friends_pair_key UNIQUE (user_uuid, friend_uuid)",
		"ON group_members (group_uuid) WHERE role = 'leader'",
		"CONSTRAINT chat_rooms_dm_pair_key UNIQUE (dm_pair_key)",
		"ON chat_rooms (schedule_uuid) WHERE type = 'schedule'",
		"CONSTRAINT travel_vote_participants_pkey PRIMARY KEY (vote_uuid, user_uuid)",
		"CREATE TABLE IF NOT EXISTS travel_matchings",
		"CREATE TABLE IF NOT EXISTS user_travel_surveys",
	} {
		assert.Contains(t, content, want)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := createAt(dir, "Add Trip Notes!", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260304050607_add_trip_notes.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = createAt(dir, "Add Trip Notes!", now)
	assert.Error(t, err, "same version twice must fail")

	_, err = createAt(dir, "!!!", now)
	assert.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}
