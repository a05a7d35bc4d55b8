package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyEnvOverridesDefaults(t *testing.T) {
	t.Setenv("BLINDSPOT_API_URL", "http://api.test:9000")
	t.Setenv("BLINDSPOT_STYLE", "night_shift")
	t.Setenv("BLINDSPOT_ASCII", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.APIBaseURL != "http://api.test:9000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.UI.StyleVariant != "night_shift" {
		t.Errorf("StyleVariant = %q", cfg.UI.StyleVariant)
	}
	if !cfg.ASCIIOnly {
		t.Error("ASCIIOnly should be set from env")
	}
	if cfg.OpenerMode != "auto" {
		t.Errorf("untouched default changed: OpenerMode = %q", cfg.OpenerMode)
	}
}

func TestApplyFileOverlaysOnlyWhatItNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api_url: http://file.test:8000\nascii: true\nui:\n  motion: reduced\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile: %v", err)
	}
	if cfg.APIBaseURL != "http://file.test:8000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if !cfg.ASCIIOnly {
		t.Error("ascii: true should flip ASCIIOnly")
	}
	if cfg.UI.MotionLevel != "reduced" {
		t.Errorf("MotionLevel = %q", cfg.UI.MotionLevel)
	}
	if cfg.UI.StyleVariant != "calm_focus" {
		t.Errorf("unnamed setting changed: StyleVariant = %q", cfg.UI.StyleVariant)
	}
}

func TestApplyFileMissingIsFine(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := cfg.ApplyFile(""); err != nil {
		t.Fatalf("empty path should not error: %v", err)
	}
}

func TestApplyFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ui: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	if err := cfg.ApplyFile(path); err == nil {
		t.Fatal("malformed yaml should error")
	}
}

func TestEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: http://file.test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BLINDSPOT_API_URL", "http://env.test")

	cfg := DefaultConfig()
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatal(err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://env.test" {
		t.Fatalf("APIBaseURL = %q, want env value", cfg.APIBaseURL)
	}
}
