package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

// TestLayeredPrecedence exercises §8 scenario S5: a config file sets
// server_port and a CORE database DSN; the environment sets DB_USERNAME and
// LOG_LEVEL, which protects log_level. The file's port and CORE dsn and the
// env's log level must all land, with the env-sourced user on the default
// database identity; a later reload of a file that sets log_level to ERROR
// must leave the protected WARN in place.
func TestLayeredPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	fileDoc := Document{
		Server: ServerConfig{ServerPort: "9000"},
		DatabaseConfigs: []DatabaseConfig{
			{Name: "CORE", DSN: "file_dsn"},
		},
	}
	b, err := json.Marshal(fileDoc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	t.Setenv("DB_USERNAME", "env_user")
	t.Setenv("LOG_LEVEL", "WARN")

	l := NewLoader(logr.Discard(), path)
	cur := l.Current()

	require.Equal(t, "9000", cur.Server.ServerPort, "file-sourced server_port should win over compiled default")
	require.Equal(t, "WARN", cur.Server.LogLevel, "env-sourced log_level should win over compiled default")

	var core DatabaseConfig
	for _, d := range cur.DatabaseConfigs {
		if d.Name == "CORE" {
			core = d
		}
	}
	require.Equal(t, "file_dsn", core.DSN)

	var def DatabaseConfig
	for _, d := range cur.DatabaseConfigs {
		if d.Name == defaultDatabaseName {
			def = d
		}
	}
	require.Equal(t, "env_user", def.User, "DB_USERNAME should populate the well-known default database identity")

	// A lower-precedence reload must not unprotect log_level.
	overlayDoc := Document{Server: ServerConfig{LogLevel: "ERROR"}}
	b2, err := json.Marshal(overlayDoc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b2, 0o600))
	require.NoError(t, l.Reload(path))

	require.Equal(t, "WARN", l.Current().Server.LogLevel, "protected log_level must survive a file reload")
}

func TestMergeByIdentityAppendsNewIgnoresExisting(t *testing.T) {
	high := []DatabaseConfig{{Name: "A", DSN: "high"}}
	low := []DatabaseConfig{{Name: "A", DSN: "low"}, {Name: "B", DSN: "low-only"}}

	merged := mergeByIdentity(high, low)
	require.Len(t, merged, 2)

	byName := map[string]DatabaseConfig{}
	for _, d := range merged {
		byName[d.Name] = d
	}
	require.Equal(t, "high", byName["A"].DSN)
	require.Equal(t, "low-only", byName["B"].DSN)
}
