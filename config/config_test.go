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
		t.Fatalf("Load(\"\") returned error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("default storage driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Index.DefaultTopK != 50 {
		t.Errorf("default top_k = %d, want 50", cfg.Index.DefaultTopK)
	}
	if cfg.Index.SnippetWindow != 20 {
		t.Errorf("default snippet window = %d, want 20", cfg.Index.SnippetWindow)
	}
	if cfg.Scheduler.Weekday != "Monday" || cfg.Scheduler.Hour != 11 {
		t.Errorf("default schedule = %s %02d:%02d, want Monday 11:00",
			cfg.Scheduler.Weekday, cfg.Scheduler.Hour, cfg.Scheduler.Minute)
	}
}

func TestLoadFromFile(t *testing.T) {
	yaml := `
server:
  port: 9999
  readTimeout: 5s
storage:
  driver: postgres
  dsn: "host=localhost dbname=pubs sslmode=disable"
index:
  path: /tmp/idx.json
crawler:
  maxProfiles: 3
scheduler:
  enabled: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) returned error: %v", path, err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("server port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("storage driver = %q, want postgres", cfg.Storage.Driver)
	}
	if cfg.Crawler.MaxProfiles != 3 {
		t.Errorf("crawler maxProfiles = %d, want 3", cfg.Crawler.MaxProfiles)
	}
	if cfg.Scheduler.Enabled {
		t.Error("scheduler should be disabled")
	}
	// Values absent from the file keep their defaults.
	if cfg.Index.DefaultTopK != 50 {
		t.Errorf("top_k should keep default 50, got %d", cfg.Index.DefaultTopK)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PS_SERVER_PORT", "7070")
	t.Setenv("PS_STORAGE_DRIVER", "postgres")
	t.Setenv("PS_SCHEDULER_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env override port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("env override driver = %q, want postgres", cfg.Storage.Driver)
	}
	if cfg.Scheduler.Enabled {
		t.Error("env override should disable scheduler")
	}
}

func TestFieldWeights(t *testing.T) {
	weights := FieldWeights()

	expected := map[string]float64{
		"title":    3.0,
		"authors":  2.5,
		"keywords": 2.0,
		"year":     1.5,
		"abstract": 1.0,
	}
	if len(weights) != len(expected) {
		t.Fatalf("FieldWeights() has %d entries, want %d", len(weights), len(expected))
	}
	for field, want := range expected {
		if got := weights[field]; got != want {
			t.Errorf("weight[%s] = %v, want %v", field, got, want)
		}
	}

	// Callers get independent copies.
	weights["title"] = 99
	if FieldWeights()["title"] != 3.0 {
		t.Error("mutating a returned map must not affect the table")
	}
}
