package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgather/tripgather-backend/pkg/config"
	"github.com/tripgather/tripgather-backend/pkg/migrate"
)

func TestCommandsSplitByDatabaseNeed(t *testing.T) {
	for name, cmd := range commands {
		assert.True(t, (cmd.runFS == nil) != (cmd.runDB == nil), "%s must set exactly one runner", name)
	}
	assert.Equal(t, []string{"create", "down", "status", "up", "validate", "version"}, commandNames())
}

func TestResolveDir(t *testing.T) {
	assert.Equal(t, migrate.EmbeddedDir, resolveDir("", commands["up"]))
	assert.Equal(t, migrate.DefaultDir, resolveDir("", commands["create"]))
	assert.Equal(t, "db/migrations", resolveDir("db/migrations", commands["up"]))
}

func TestGuardDestructiveBlocksProdRollback(t *testing.T) {
	prod := config.AppConfig{Env: config.AppEnvProd}
	dev := config.AppConfig{Env: config.AppEnvDev}

	err := guardDestructive(prod, commands["down"], options{cmd: "down"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-allow-down")

	assert.Error(t, guardDestructive(prod, commands["version"], options{cmd: "version"}))
	assert.NoError(t, guardDestructive(prod, commands["down"], options{cmd: "down", allowDown: true}))
	assert.NoError(t, guardDestructive(prod, commands["up"], options{cmd: "up"}))
	assert.NoError(t, guardDestructive(dev, commands["down"], options{cmd: "down"}))
}

func TestCreateRequiresName(t *testing.T) {
	assert.Error(t, createMigration(options{dir: t.TempDir()}))
	require.NoError(t, createMigration(options{dir: t.TempDir(), name: "add trip notes"}))
}
