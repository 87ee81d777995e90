package config

import "testing"

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.CacheSize != 1000 {
		t.Errorf("CacheSize = %d, want 1000", cfg.CacheSize)
	}
}

func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Log:       LogConfig{Level: "warn"},
		CacheSize: 50,
	}
	cfg.SetDefaults()

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level was overwritten: got %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.CacheSize != 50 {
		t.Errorf("CacheSize was overwritten: got %d, want 50", cfg.CacheSize)
	}
}

func TestConfig_SetDevDefaults_NoopWhenDevModeDisabled(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDevDefaults()

	if cfg.Instance != "" {
		t.Errorf("Instance = %q, want empty when DevMode is false", cfg.Instance)
	}
	if cfg.Policy.Source != "" {
		t.Errorf("Policy.Source = %q, want empty when DevMode is false", cfg.Policy.Source)
	}
}

func TestConfig_SetDevDefaults_AppliesPermissiveDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{DevMode: true}
	cfg.SetDevDefaults()

	if cfg.Instance != "dev" {
		t.Errorf("Instance = %q, want %q", cfg.Instance, "dev")
	}
	if cfg.Policy.Source != "memory" {
		t.Errorf("Policy.Source = %q, want %q", cfg.Policy.Source, "memory")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestConfig_SetDevDefaults_PreservesExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		DevMode:  true,
		Instance: "tenant-a",
		Policy:   PolicyConfig{Source: "file"},
	}
	cfg.SetDevDefaults()

	if cfg.Instance != "tenant-a" {
		t.Errorf("Instance was overwritten: got %q, want %q", cfg.Instance, "tenant-a")
	}
	if cfg.Policy.Source != "file" {
		t.Errorf("Policy.Source was overwritten: got %q, want %q", cfg.Policy.Source, "file")
	}
}
