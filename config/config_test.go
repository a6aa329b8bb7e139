package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9090
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "test-bucket"
  use_ssl: false
  expire_days: 14
extractor:
  api_url: "https://api.extractor.test"
  api_token: "test-token"
  callback_url: "https://app.test/api/extractor/callback"
  seed: "test-seed"
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
log:
  level: "debug"
  format: "json"
store:
  backend: "sqlite"
  path: "/tmp/sessions.db"
  max_sessions: 50
pipeline:
  min_text_length: 200
users:
  - username: "testuser"
    password: "testpass"
    tenant: "testtenant"
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Minio.Endpoint != "localhost:9000" {
		t.Errorf("Expected endpoint localhost:9000, got %s", cfg.Minio.Endpoint)
	}
	if cfg.Minio.ExpireDays != 14 {
		t.Errorf("Expected expire_days 14, got %d", cfg.Minio.ExpireDays)
	}
	if cfg.Extractor.APIURL != "https://api.extractor.test" {
		t.Errorf("Expected extractor api_url, got %s", cfg.Extractor.APIURL)
	}
	if cfg.Extractor.Seed != "test-seed" {
		t.Errorf("Expected extractor seed test-seed, got %s", cfg.Extractor.Seed)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Expected store backend sqlite, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Path != "/tmp/sessions.db" {
		t.Errorf("Expected store path /tmp/sessions.db, got %s", cfg.Store.Path)
	}
	if cfg.Store.MaxSessions != 50 {
		t.Errorf("Expected max_sessions 50, got %d", cfg.Store.MaxSessions)
	}
	if cfg.Pipeline.MinTextLength != 200 {
		t.Errorf("Expected min_text_length 200, got %d", cfg.Pipeline.MinTextLength)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(cfg.Users))
	}
	if cfg.Users[0].Username != "testuser" {
		t.Errorf("Expected username testuser, got %s", cfg.Users[0].Username)
	}
}

func TestLoadDefaults(t *testing.T) {
	configContent := `
minio:
  endpoint: "localhost:9000"
  access_key: "test"
  secret_key: "test"
  bucket: "bucket"
`
	cfg, err := Load(writeTempConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Minio.ExpireDays != 7 {
		t.Errorf("Expected default expire_days 7, got %d", cfg.Minio.ExpireDays)
	}
	if cfg.Auth.TokenExpireHours != 24 {
		t.Errorf("Expected default token_expire_hours 24, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Expected default store backend memory, got %s", cfg.Store.Backend)
	}
	if cfg.Store.MaxSessions != 100 {
		t.Errorf("Expected default max_sessions 100, got %d", cfg.Store.MaxSessions)
	}
	if cfg.Pipeline.MinTextLength != 100 {
		t.Errorf("Expected default min_text_length 100, got %d", cfg.Pipeline.MinTextLength)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "invalid: yaml: content:"))
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestFindUser(t *testing.T) {
	cfg := &Config{
		Users: []User{
			{Username: "user1", Password: "pass1", Tenant: "tenant1"},
			{Username: "user2", Password: "pass2", Tenant: "tenant2"},
		},
	}

	user := cfg.FindUser("user1")
	if user == nil {
		t.Fatal("Expected to find user1")
	}
	if user.Password != "pass1" {
		t.Errorf("Expected password pass1, got %s", user.Password)
	}

	if cfg.FindUser("nonexistent") != nil {
		t.Error("Expected nil for non-existent user")
	}
}
