package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
env: dev
httpServer:
  secret: s3cret
db:
  path: events.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "dev" || cfg.DBConfig.Driver != "sqlite" || cfg.DBConfig.Path != "events.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ListenAddr() != "localhost:8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.HttpServer.Timeout != 5*time.Second || cfg.Auth.SessionTTL != 12*time.Hour || cfg.Nonce.Lifetime != 24*time.Hour {
		t.Errorf("durations = %v %v %v", cfg.HttpServer.Timeout, cfg.Auth.SessionTTL, cfg.Nonce.Lifetime)
	}
	if cfg.Location() != time.UTC || cfg.Site.Locale != "en" {
		t.Errorf("site = %+v", cfg.Site)
	}
	if cfg.Path() != path {
		t.Errorf("Path = %q", cfg.Path())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
httpServer:
  secret: from-file
db:
  driver: sqlite
site:
  timezone: UTC
`)
	t.Setenv("HTTP_SECRET", "from-env")
	t.Setenv("SITE_TIMEZONE", "Europe/Madrid")
	t.Setenv("SITE_LOCALE", "es")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HttpServer.Secret != "from-env" {
		t.Errorf("secret = %q", cfg.HttpServer.Secret)
	}
	if cfg.Location().String() != "Europe/Madrid" || cfg.Site.Locale != "es" {
		t.Errorf("site = %+v", cfg.Site)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "httpServer:\n  secret: x\ndb:\n  driver: mysql\n"},
		{"bad timezone", "httpServer:\n  secret: x\ndb:\n  driver: sqlite\nsite:\n  timezone: Mars/Olympus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
