package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RunnerTimeout != DefaultRunnerTimeout {
		t.Errorf("RunnerTimeout = %v", cfg.RunnerTimeout)
	}
	if cfg.StoreMaxResults != DefaultStoreMaxResults {
		t.Errorf("StoreMaxResults = %d", cfg.StoreMaxResults)
	}
	if cfg.RuntimeVersion != DefaultRuntimeVersion {
		t.Errorf("RuntimeVersion = %q", cfg.RuntimeVersion)
	}
	if cfg.BasePackage != DefaultBasePackage {
		t.Errorf("BasePackage = %q", cfg.BasePackage)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.LibraryDir != DefaultLibraryDir {
		t.Errorf("LibraryDir = %q", cfg.LibraryDir)
	}
	if cfg.PreviewDir != filepath.Join(DefaultLibraryDir, "part_previews") {
		t.Errorf("PreviewDir = %q", cfg.PreviewDir)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadexec.yaml")
	body := `
library_dir: /srv/parts
runner_timeout: 90s
store_max_results: 16
log_level: debug
bridge_command: /usr/local/bin/cad-bridge
bridge_args: ["--quiet"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LibraryDir != "/srv/parts" {
		t.Errorf("LibraryDir = %q", cfg.LibraryDir)
	}
	if cfg.PreviewDir != filepath.Join("/srv/parts", "part_previews") {
		t.Errorf("PreviewDir = %q", cfg.PreviewDir)
	}
	if cfg.RunnerTimeout != 90*time.Second {
		t.Errorf("RunnerTimeout = %v", cfg.RunnerTimeout)
	}
	if cfg.StoreMaxResults != 16 {
		t.Errorf("StoreMaxResults = %d", cfg.StoreMaxResults)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.BridgeCommand != "/usr/local/bin/cad-bridge" || len(cfg.BridgeArgs) != 1 {
		t.Errorf("bridge = %q %v", cfg.BridgeCommand, cfg.BridgeArgs)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("explicit missing file should fail")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"bad log level", "log_level: chatty\n"},
		{"negative cap", "store_max_results: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
