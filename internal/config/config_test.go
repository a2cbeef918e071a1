package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.SessionStore != "memory" {
		t.Errorf("expected default session store memory, got %q", cfg.SessionStore)
	}
	if cfg.UploaderID != "12" {
		t.Errorf("expected default uploader id 12, got %q", cfg.UploaderID)
	}
	if cfg.SessionTTLMinutes != 60 {
		t.Errorf("expected default session TTL 60, got %d", cfg.SessionTTLMinutes)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
	if cfg.AuditEnabled() {
		t.Error("audit should be disabled without DATABASE_URL")
	}
	if cfg.EventsEnabled() {
		t.Error("events should be disabled without KAFKA_BROKERS")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnv(t, "PORT", "9000")
	setEnv(t, "SESSION_STORE", "redis")
	setEnv(t, "REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.SessionStore != "redis" {
		t.Errorf("expected redis session store, got %q", cfg.SessionStore)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Errorf("expected 2 kafka brokers, got %v", cfg.KafkaBrokers)
	}
	if !cfg.EventsEnabled() {
		t.Error("expected events enabled")
	}
}

func TestValidate_OK(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidate_MissingBaseURL(t *testing.T) {
	cfg := &Config{Env: "development", SessionStore: "memory", SessionTTLMinutes: 60}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing PATIENT_API_BASE_URL")
	}
}

func TestValidate_RedisWithoutURL(t *testing.T) {
	cfg := &Config{
		Env:               "development",
		PatientAPIBaseURL: "http://localhost:9095/api",
		FilesAPIBaseURL:   "http://127.0.0.1:8000/api",
		SessionStore:      "redis",
		SessionTTLMinutes: 60,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for redis store without REDIS_URL")
	}
}

func TestValidate_UnknownStore(t *testing.T) {
	cfg := &Config{
		Env:               "development",
		PatientAPIBaseURL: "http://localhost:9095/api",
		FilesAPIBaseURL:   "http://127.0.0.1:8000/api",
		SessionStore:      "etcd",
		SessionTTLMinutes: 60,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown session store")
	}
}

func TestValidate_ProductionRequiresSigningKey(t *testing.T) {
	cfg := &Config{
		Env:               "production",
		PatientAPIBaseURL: "http://localhost:9095/api",
		FilesAPIBaseURL:   "http://127.0.0.1:8000/api",
		SessionStore:      "memory",
		SessionTTLMinutes: 60,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without signing key")
	}
	cfg.AuthSigningKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
