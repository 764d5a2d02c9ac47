package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 100, cfg.RowCap)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("neo4jUri: bolt://graph.internal:7687\nhttpAddr: :9090\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://graph.internal:7687", cfg.Neo4jURI)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("neo4jUri: bolt://graph.internal:7687\n"), 0o600))

	t.Setenv("FLOWCORE_NEO4J_URI", "bolt://env-wins:7687")
	t.Setenv("FLOWCORE_ROW_CAP", "50")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://env-wins:7687", cfg.Neo4jURI)
	assert.Equal(t, 50, cfg.RowCap)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
}
