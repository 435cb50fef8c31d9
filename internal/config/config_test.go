package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigAppliesDefaultsAndUnits(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: dev-secret
  expire_hours: 2
storage:
  type: minio
database:
  driver: sqlite
  path: test.db
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.JWT.ExpireTime != 2*time.Hour {
		t.Fatalf("expected 2h jwt expiry, got %s", cfg.JWT.ExpireTime)
	}
	if cfg.Token.Secret != "dev-secret" {
		t.Fatalf("expected token secret to fall back to jwt secret, got %q", cfg.Token.Secret)
	}
	if cfg.Token.ResetMinutes != 30*time.Minute {
		t.Fatalf("expected default reset ttl 30m, got %s", cfg.Token.ResetMinutes)
	}
	if cfg.Queue.Workers != 2 || cfg.Queue.MaxAttempts != 3 {
		t.Fatalf("unexpected queue defaults: %+v", cfg.Queue)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "test.db" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
}

func TestLoadConfigRejectsWeakSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
storage:
  type: minio
`)

	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected short jwt secret to be rejected in release mode")
	}
}
