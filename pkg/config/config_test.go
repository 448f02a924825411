package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("explicit missing config file should error")
	}

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Network.RegistryHost != "127.0.0.1" || cfg.Network.RegistryPort != 1234 {
		t.Fatalf("registry defaults wrong: %+v", cfg.Network)
	}
	if cfg.Network.MulticastGroup != "239.255.76.67" || cfg.Network.MulticastPort != 7667 || cfg.Network.TTL != 1 {
		t.Fatalf("multicast defaults wrong: %+v", cfg.Network)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log defaults wrong: %+v", cfg.Log)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eigen.yaml")
	body := []byte("app_name: registry-a\nnetwork:\n  registry_port: 4321\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("EIGEN_LOG_LEVEL", "debug")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "registry-a" || cfg.Network.RegistryPort != 4321 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("env override not applied: %q", cfg.Log.Level)
	}
	// untouched keys keep defaults
	if cfg.Network.MulticastGroup != "239.255.76.67" {
		t.Fatalf("default lost: %+v", cfg.Network)
	}
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("network:\n  multicast_group: 10.0.0.1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("non-multicast group must be rejected")
	}

	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("bad log level must be rejected")
	}
}
