package config

import (
	"testing"
	"time"
)

func TestLoadRedisURLOverridesAddr(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://u:p@localhost:5432/todo")
	t.Setenv("REDIS_ADDR", "ignored:6379")
	t.Setenv("REDIS_URL", "redis://default:pw@redis.local:6380/3")
	t.Setenv("HTTP_READ_TIMEOUT", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "redis.local:6380" || cfg.Redis.Password != "pw" || cfg.Redis.DB != 3 {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.HTTP.ReadTimeout.Duration() != 15*time.Second {
		t.Errorf("Expected 15s, got %v", cfg.HTTP.ReadTimeout.Duration())
	}
	if cfg.Session.TTL.Duration() != 24*time.Hour {
		t.Errorf("Expected default session TTL 24h, got %v", cfg.Session.TTL.Duration())
	}
	if cfg.Session.StoreIdle.Duration() != 30*time.Minute {
		t.Errorf("Expected default store idle timeout 30m, got %v", cfg.Session.StoreIdle.Duration())
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("Expected the default CORS origin, got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Reminder.Schedule != "@every 1m" {
		t.Errorf("Expected default reminder schedule, got %q", cfg.Reminder.Schedule)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://localhost/todo")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"https://app.example.com", "https://admin.example.com"}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[0] != want[0] || cfg.HTTP.CORSOrigins[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, cfg.HTTP.CORSOrigins)
	}
}

func TestLoadRequiresRedis(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://localhost/todo")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("Expected an error without Redis settings")
	}
}

func TestLoadTasksDefaults(t *testing.T) {
	cfg, err := LoadTasks()
	if err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	if cfg.Port != "3000" || cfg.Timeout.Duration() != 20*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestGoogleEnabled(t *testing.T) {
	if (GoogleConfig{ClientID: "id"}).Enabled() {
		t.Error("Expected disabled without a secret")
	}
	if !(GoogleConfig{ClientID: "id", ClientSecret: "s"}).Enabled() {
		t.Error("Expected enabled")
	}
}
