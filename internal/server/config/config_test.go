package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"bind_addr":      ":9090",
		"database_dsn":   "postgres://pos@db/pos",
		"jwt_secret":     "my_secret_key",
		"token_validity": "6h",
		"shared_secret":  "provision-me",
		"image_root":     "/srv/pos/images",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, ":9090", cfg.BindAddr)
		assert.Equal(t, "postgres://pos@db/pos", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.JWTSecret)
		assert.Equal(t, 6*time.Hour, cfg.TokenValidity)
		assert.Equal(t, "provision-me", cfg.SharedSecret)
		assert.Equal(t, "/srv/pos/images", cfg.ImageRoot)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{BindAddr: ":1", JWTSecret: "kept"}
		parseJson(cfg)

		assert.Equal(t, ":1", cfg.BindAddr)
		assert.Equal(t, "kept", cfg.JWTSecret)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-a", ":7070", "-d", "postgres://flag@db/pos", "-t", "90"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":7070", cfg.BindAddr)
	assert.Equal(t, "postgres://flag@db/pos", cfg.DatabaseDSN)
	assert.Equal(t, 90*time.Minute, cfg.TokenValidity)
	assert.Equal(t, "provisioning", cfg.SharedSecret)
}
