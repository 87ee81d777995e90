// Package config provides configuration types and loading for rbacguard.
//
// The schema covers an embedding host: which model file to load, where
// policy rows come from (an in-memory store that starts empty, or a CSV
// file), logging,
// and the decision-cache size. It intentionally excludes anything
// out-of-core per rbacguard's scope:
//
//   - NO persistent database-backed policy adapter (bring your own via
//     rbacguard.PolicyAdapter)
//   - NO distributed watcher implementation (bring your own via
//     rbacguard.Watcher)
//   - NO HTTP/gRPC transport (rbacguard is a library, not a service)
package config

import "os"

// Config is the top-level configuration for an embedding rbacguard host.
type Config struct {
	// Instance names this Engine within a Registry (e.g. "default",
	// "tenant-a"). Required.
	Instance string `yaml:"instance" mapstructure:"instance" validate:"required"`

	// Model configures where the Casbin-style model definition is read
	// from.
	Model ModelConfig `yaml:"model" mapstructure:"model"`

	// Policy configures where p/g policy rows are read from.
	Policy PolicyConfig `yaml:"policy" mapstructure:"policy" validate:"required"`

	// Log configures the host's structured logger.
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// CacheSize bounds the number of Enforce decisions cached per Engine.
	// A zero or unset value is replaced by the default of 1000.
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size" validate:"omitempty,min=0"`

	// DevMode enables permissive defaults and verbose logging for local
	// development.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ModelConfig configures the Casbin-style model file.
type ModelConfig struct {
	// Path is the filesystem path to the model definition (.conf/.ini
	// text). Required unless Inline is set.
	Path string `yaml:"path" mapstructure:"path"`

	// Inline carries the model definition text directly, for embedding
	// hosts that would rather not manage a separate file. Takes
	// precedence over Path when non-empty.
	Inline string `yaml:"inline" mapstructure:"inline"`
}

// PolicyConfig configures the policy row source.
type PolicyConfig struct {
	// Source selects the adapter: "file" (CSV, see FilePath) or "memory"
	// (empty at startup, populated via Engine.AddPolicy).
	Source string `yaml:"source" mapstructure:"source" validate:"required,oneof=file memory"`

	// FilePath is the CSV policy file path. Required when Source is
	// "file".
	FilePath string `yaml:"file_path" mapstructure:"file_path" validate:"omitempty,csv_path"`

	// ChecksumEnabled turns on argon2id integrity checksumming of
	// FilePath via fileadapter.WriteChecksum/VerifyChecksum. Only
	// meaningful when Source is "file".
	ChecksumEnabled bool `yaml:"checksum_enabled" mapstructure:"checksum_enabled"`
}

// LogConfig configures the host's structured logger.
type LogConfig struct {
	// Level sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty, or to "debug" if empty and DevMode=true.
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// SetDevDefaults applies permissive defaults for development mode. Applied
// before validation so required fields are satisfied even with a minimal
// config file.
func (c *Config) SetDevDefaults() {
	if !c.DevMode {
		return
	}
	if c.Instance == "" {
		c.Instance = "dev"
	}
	if c.Policy.Source == "" {
		c.Policy.Source = "memory"
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.CacheSize == 0 {
		c.CacheSize = 1000
	}
}

// homeDir returns the current user's home directory, or "" if it cannot be
// determined. Used by the config file search path, not by Config itself.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
