package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/possync/internal/flagx"
	"github.com/dmitrijs2005/possync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It uses
// timex.Duration for interval fields, which allows parsing both string
// values such as "12h" and integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	BindAddr      string         `json:"bind_addr"`
	DatabaseDSN   string         `json:"database_dsn"`
	JWTSecret     string         `json:"jwt_secret"`
	TokenValidity timex.Duration `json:"token_validity"`
	SharedSecret  string         `json:"shared_secret"`
	ImageRoot     string         `json:"image_root"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if it is
// not set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics. Zero-valued JSON fields leave the
// existing Config value untouched, so a partial file only overrides what it
// names.
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

	if jc.BindAddr != "" {
		cfg.BindAddr = jc.BindAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.JWTSecret != "" {
		cfg.JWTSecret = jc.JWTSecret
	}
	if jc.TokenValidity.Duration != 0 {
		cfg.TokenValidity = time.Duration(jc.TokenValidity.Duration)
	}
	if jc.SharedSecret != "" {
		cfg.SharedSecret = jc.SharedSecret
	}
	if jc.ImageRoot != "" {
		cfg.ImageRoot = jc.ImageRoot
	}
}
