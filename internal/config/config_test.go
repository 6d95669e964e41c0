package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soleondash.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Sample(t *testing.T) {
	cfg, err := Load("../../config/soleondash.yaml", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Producer.FPS != 10 || cfg.Producer.MessageInterval != 500*time.Millisecond {
		t.Errorf("unexpected producer config: %+v", cfg.Producer)
	}
	if !cfg.Admin.Enabled || cfg.Admin.Addr != "127.0.0.1:8090" {
		t.Errorf("unexpected admin config: %+v", cfg.Admin)
	}
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
dashboard:
  render_period: 250ms
producer:
  fps: 4
`)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Dashboard.RenderPeriod != 250*time.Millisecond {
		t.Errorf("render period = %v", cfg.Dashboard.RenderPeriod)
	}
	if cfg.Producer.FPS != 4 {
		t.Errorf("fps = %v", cfg.Producer.FPS)
	}
	if cfg.Dashboard.Title != Default().Dashboard.Title || cfg.Upstream.Source != "simulated" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Producer.FPS != 10 {
		t.Errorf("expected default fps, got %v", cfg.Producer.FPS)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "db.local:4001")
	t.Setenv("GREPTIMEDB_TABLE", "levels_test")
	t.Setenv("SOLEONDASH_FPS", "20")
	t.Setenv("SOLEONDASH_ADMIN", ":9999")
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Archive.Greptime.Endpoint != "db.local:4001" || cfg.Archive.Greptime.Table != "levels_test" {
		t.Errorf("greptime overrides not applied: %+v", cfg.Archive.Greptime)
	}
	if cfg.Producer.FPS != 20 {
		t.Errorf("fps override not applied: %v", cfg.Producer.FPS)
	}
	if !cfg.Admin.Enabled || cfg.Admin.Addr != ":9999" {
		t.Errorf("admin override not applied: %+v", cfg.Admin)
	}
}

func TestLoadConfig_BadEnvFPS(t *testing.T) {
	t.Setenv("SOLEONDASH_FPS", "0")
	if _, err := Load("", ""); err == nil {
		t.Fatalf("expected error for zero fps")
	}
}

func TestLoadConfig_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"negative fps":   "producer:\n  fps: -1\n",
		"unknown field":  "producer:\n  speed: 3\n",
		"bad duration":   "dashboard:\n  render_period: soon\n",
		"unknown source": "upstream:\n  source: serial\n",
		"bad log level":  "logging:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body), "")
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), "schema validation failed") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfig_ReplayNeedsFile(t *testing.T) {
	path := writeConfig(t, "upstream:\n  source: replay\n")
	if _, err := Load(path, ""); err == nil {
		t.Fatalf("expected error for replay without file")
	}
}

func TestValidateWithCue_CustomSchema(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "strict.cue")
	if err := os.WriteFile(schema, []byte("#Config: producer: fps: <=5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, "producer:\n  fps: 10\n")
	if err := ValidateWithCue(path, schema); err == nil {
		t.Fatalf("expected custom schema to reject fps 10")
	}
	if err := ValidateWithCue(path, filepath.Join(dir, "missing.cue")); err == nil {
		t.Fatalf("expected error for missing schema")
	}
}
