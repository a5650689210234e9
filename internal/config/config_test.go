// ABOUTME: Tests for configuration loading, expansion, and validation
// ABOUTME: Uses temp-dir YAML files for each case

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":3000"
  base_url: "https://flores.example"
database:
  path: "data/floreria.db"
uploads:
  dir: "data/uploads"
sessions:
  ttl: "30m"
logging:
  level: "debug"
  format: "json"
shop:
  name: "Florería Margarita"
  rp_display_name: "Margarita Admin"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != ":3000" {
		t.Errorf("expected http_addr :3000, got %q", cfg.Server.HTTPAddr)
	}
	if cfg.Sessions.TTL != 30*time.Minute {
		t.Errorf("expected 30m ttl, got %v", cfg.Sessions.TTL)
	}
	if cfg.Uploads.Dir != "data/uploads" {
		t.Errorf("expected uploads dir, got %q", cfg.Uploads.Dir)
	}
	if cfg.Shop.RPDisplayName != "Margarita Admin" {
		t.Errorf("expected rp display name, got %q", cfg.Shop.RPDisplayName)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":3000"
database:
  path: "data/floreria.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sessions.TTL != DefaultSessionTTL {
		t.Errorf("expected default ttl %v, got %v", DefaultSessionTTL, cfg.Sessions.TTL)
	}
	if cfg.Uploads.Dir != "data/img" {
		t.Errorf("expected default uploads dir, got %q", cfg.Uploads.Dir)
	}
	if cfg.Shop.RPDisplayName != cfg.Shop.Name {
		t.Errorf("expected rp display name to default to shop name")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("FLORERIA_DB_PATH", "/var/lib/floreria/shop.db")

	path := writeConfig(t, `
server:
  http_addr: ":3000"
database:
  path: "${FLORERIA_DB_PATH}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "/var/lib/floreria/shop.db" {
		t.Errorf("expected expanded path, got %q", cfg.Database.Path)
	}
}

func TestLoadMissingHTTPAddr(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "data/floreria.db"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "server.http_addr") {
		t.Errorf("expected http_addr validation error, got %v", err)
	}
}

func TestLoadMissingDatabasePath(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":3000"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "database.path") {
		t.Errorf("expected database.path validation error, got %v", err)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":3000"
database:
  path: "data/floreria.db"
sessions:
  ttl: "one hour"
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "sessions.ttl") {
		t.Errorf("expected ttl parse error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
