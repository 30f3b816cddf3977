package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestMustLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
env: dev
instruments:
  config_path: instruments.yaml
`)

	cfg := MustLoad(path)

	if cfg.Env != "dev" {
		t.Errorf("env = %q", cfg.Env)
	}
	if cfg.Web.Address != ":60000" {
		t.Errorf("web address = %q, want default :60000", cfg.Web.Address)
	}
	if cfg.Poll.Interval != 3*time.Second {
		t.Errorf("poll interval = %v, want default 3s", cfg.Poll.Interval)
	}
	if cfg.Poll.FailedInterval != 60*time.Second {
		t.Errorf("failed interval = %v, want default 60s", cfg.Poll.FailedInterval)
	}
	if cfg.Poll.RetriesBetweenLogs != 60 {
		t.Errorf("retries between logs = %d, want default 60", cfg.Poll.RetriesBetweenLogs)
	}
	if !cfg.Archive.Enabled {
		t.Errorf("archive disabled by default")
	}
}

func TestMustLoadMissingFilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on missing config")
		}
	}()
	MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
}

func TestMustLoadInstruments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "instruments.yaml", `
instruments:
  - name: LARMOR
    host: NDXLARMOR
  - name: MUONFE
    host: NDEMUONFE
    port: 60001
`)

	cfg := MustLoadInstruments(path)

	if len(cfg.Instruments) != 2 {
		t.Fatalf("got %d instruments", len(cfg.Instruments))
	}
	if cfg.Instruments[0].Port != 60000 {
		t.Errorf("default port = %d, want 60000", cfg.Instruments[0].Port)
	}
	if cfg.Instruments[1].Port != 60001 {
		t.Errorf("explicit port = %d, want 60001", cfg.Instruments[1].Port)
	}
}

func TestMustLoadInstrumentsRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "instruments.yaml", "instruments: []\n")

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on empty instrument list")
		}
	}()
	MustLoadInstruments(path)
}
