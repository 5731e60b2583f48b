// Package config handles configuration for the terminal component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for a POS terminal.
//
// Fields:
//   - ServerBaseURL: base URL of the central sync server (e.g. "http://pos.local:8080").
//   - TerminalName: stable name identifying this terminal to the server.
//   - ProvisioningSecret: shared secret exchanged for a session token.
//   - DatabasePath: SQLite file for the local store ("pos.db").
//   - ImageCacheDir: directory holding prefetched product images.
//   - SyncInterval: connectivity probe / sync cycle period.
//   - ProbeTimeout: per-probe deadline for the health check.
//   - PushTimeout / PullTimeout: deadlines for one push batch / one diff pull.
//   - BackoffBase: first retry delay after a failed push batch; doubles per
//     consecutive failure, capped at SyncInterval.
type Config struct {
	ServerBaseURL      string
	TerminalName       string
	ProvisioningSecret string
	DatabasePath       string
	ImageCacheDir      string
	SyncInterval       time.Duration
	ProbeTimeout       time.Duration
	PushTimeout        time.Duration
	PullTimeout        time.Duration
	BackoffBase        time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.TerminalName = "terminal-1"
	c.ProvisioningSecret = ""
	c.DatabasePath = "pos.db"
	c.ImageCacheDir = "images"
	c.SyncInterval = 30 * time.Second
	c.ProbeTimeout = 3 * time.Second
	c.PushTimeout = 15 * time.Second
	c.PullTimeout = 30 * time.Second
	c.BackoffBase = 2 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
