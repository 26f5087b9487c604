package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"syscat/pkg/logging"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 16, cfg.Storage.BTreeDegree)
	require.True(t, cfg.Catalog.RefreshOnInsert)
	require.Empty(t, cfg.Storage.SnapshotPath)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(`
[log]
level = "debug"
format = "json"

[storage]
snapshot_path = "/tmp/catalog.snap"
`)
	require.NoError(t, err)
	require.Equal(t, "/tmp/catalog.snap", cfg.Storage.SnapshotPath)
	require.Equal(t, 16, cfg.Storage.BTreeDegree)
	require.True(t, cfg.Catalog.RefreshOnInsert)

	lc := cfg.LoggingConfig()
	require.Equal(t, logging.LevelDebug, lc.Level)
	require.Equal(t, "json", lc.Format)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":  "[storage]\nsnapshot = \"x\"\n",
		"bad degree":   "[storage]\nbtree_degree = 1\n",
		"bad level":    "[log]\nlevel = \"loud\"\n",
		"bad format":   "[log]\nformat = \"xml\"\n",
		"invalid toml": "[log\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(doc)
			require.Error(t, err)
		})
	}
}

func TestLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Catalog.RefreshOnInsert = false
	cfg.Storage.BTreeDegree = 8

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))

	path := filepath.Join(t.TempDir(), "syscat.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
