package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load with missing file should default: %v", err)
	}
	if c.Server.Addr != ":8080" || c.Storage.Backend != "bolt" {
		t.Fatalf("bad defaults: %+v", c)
	}
	if c.Detector.Contamination != 0.1 || c.Detector.MinSamples != 10 || c.Detector.Seed != 42 {
		t.Fatalf("bad detector defaults: %+v", c.Detector)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  addr: ":9090"
storage:
  backend: postgres
  dsn: "postgres://localhost/logwise?sslmode=disable"
  ephemeral: true
detector:
  contamination: 0.05
  minSamples: 25
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Addr != ":9090" || c.Storage.Backend != "postgres" || !c.Storage.Ephemeral {
		t.Fatalf("overrides lost: %+v", c)
	}
	if c.Detector.Contamination != 0.05 || c.Detector.MinSamples != 25 {
		t.Fatalf("detector overrides lost: %+v", c.Detector)
	}
	if c.Detector.Seed != 42 {
		t.Fatalf("unset fields should still default: %+v", c.Detector)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want parse error")
	}
}
