package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	p := writeTemp(t, "cfg.yaml", "addr: \":9090\"\napi:\n  fal_key: abc\n  poll_interval_ms: 250\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.API.FalKey != "abc" || cfg.API.PollIntervalMS != 250 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	p := writeTemp(t, "cfg.json", `{"addr":":7070","api":{"queue_url":"http://q.local"}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.API.QueueURL != "http://q.local" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	p := writeTemp(t, "cfg.toml", "addr = \":6060\"\n[api]\nfal_key = \"k\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":6060" || cfg.API.FalKey != "k" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadINI(t *testing.T) {
	// The shipped .ini format is the TOML-compatible subset.
	p := writeTemp(t, "config.ini", "addr = \":5050\"\n\n[api]\nfal_key = \"from-ini\"\nrest_url = \"http://rest.local\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.FalKey != "from-ini" || cfg.API.RestURL != "http://rest.local" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	p := writeTemp(t, "cfg.conf", "addr = x")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	bad := writeTemp(t, "bad.json", "{")
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}
