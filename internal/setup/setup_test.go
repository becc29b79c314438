package setup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallPreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{
  "theme": "dark",
  "mcpServers": {"other": {"command": "/bin/other"}}
}`), 0644))

	binary := filepath.Join(dir, "mcp-server-lite")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))

	got, err := Install(Options{
		ConfigPath:    path,
		BinaryPath:    binary,
		DataDir:       "/data/psi",
		ReferenceFile: "/data/psi/reference.yaml",
	})
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"dark"`, string(raw["theme"]))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Contains(t, cfg.MCPServers, "other")
	entry := cfg.MCPServers[ServerName]
	assert.Equal(t, binary, entry.Command)
	assert.Equal(t, "/data/psi", entry.Env["PSI_DATA_DIR"])
	assert.Equal(t, "/data/psi/reference.yaml", entry.Env["PSI_REFERENCE_FILE"])
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	status, err := GetStatus(path)
	require.NoError(t, err)
	assert.False(t, status.Registered)
	assert.NotEmpty(t, status.Issues)

	binary := filepath.Join(dir, "mcp-server-lite")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))
	_, err = Install(Options{ConfigPath: path, BinaryPath: binary, ReferenceFile: filepath.Join(dir, "missing.yaml")})
	require.NoError(t, err)

	status, err = GetStatus(path)
	require.NoError(t, err)
	assert.True(t, status.Registered)
	assert.Equal(t, binary, status.Command)
	require.Len(t, status.Issues, 1)
	assert.Contains(t, status.Issues[0], "reference bundle not found")
}

func TestLoadConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)

	_, err = Install(Options{ConfigPath: path, BinaryPath: "/bin/true"})
	assert.Error(t, err)
}
