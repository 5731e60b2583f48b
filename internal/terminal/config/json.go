package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/flagx"
	"github.com/dmitrijs2005/possync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerBaseURL      string         `json:"server_base_url"`
	TerminalName       string         `json:"terminal_name"`
	ProvisioningSecret string         `json:"provisioning_secret"`
	DatabasePath       string         `json:"database_path"`
	ImageCacheDir      string         `json:"image_cache_dir"`
	SyncInterval       timex.Duration `json:"sync_interval"`
	ProbeTimeout       timex.Duration `json:"probe_timeout"`
	PushTimeout        timex.Duration `json:"push_timeout"`
	PullTimeout        timex.Duration `json:"pull_timeout"`
	BackoffBase        timex.Duration `json:"backoff_base"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags via
// flagx.JsonConfigFlags(); when empty, no JSON is loaded. Read or unmarshal
// errors panic (caller should recover if desired). Zero-valued JSON fields
// leave the existing Config value untouched, so a partial file only
// overrides what it names.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.TerminalName != "" {
		cfg.TerminalName = jc.TerminalName
	}
	if jc.ProvisioningSecret != "" {
		cfg.ProvisioningSecret = jc.ProvisioningSecret
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.ImageCacheDir != "" {
		cfg.ImageCacheDir = jc.ImageCacheDir
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.ProbeTimeout.Duration != 0 {
		cfg.ProbeTimeout = time.Duration(jc.ProbeTimeout.Duration)
	}
	if jc.PushTimeout.Duration != 0 {
		cfg.PushTimeout = time.Duration(jc.PushTimeout.Duration)
	}
	if jc.PullTimeout.Duration != 0 {
		cfg.PullTimeout = time.Duration(jc.PullTimeout.Duration)
	}
	if jc.BackoffBase.Duration != 0 {
		cfg.BackoffBase = time.Duration(jc.BackoffBase.Duration)
	}
}
