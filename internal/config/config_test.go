package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "REDIS_DB", "POSTGRES_MAX_CONNS", "EMAIL_USER", "EMAIL_PASSWORD", "REDIS_TEAM_INDEX_TTL_SECONDS", "MAILBOX_SYNC_INTERVAL_SECONDS", "NOTIFY_QUEUE_SIZE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Port != "5000" {
		t.Errorf("App.Port = %q, want %q", cfg.App.Port, "5000")
	}
	if cfg.Postgres.MaxConns != 10 {
		t.Errorf("Postgres.MaxConns = %d, want 10", cfg.Postgres.MaxConns)
	}
	if cfg.Mailbox.Configured() {
		t.Errorf("Mailbox.Configured() = true without credentials")
	}
	if got := cfg.Redis.TeamIndexTTL(); got != 5*time.Minute {
		t.Errorf("Redis.TeamIndexTTL() = %v, want 5m", got)
	}
	if got := cfg.Mailbox.SyncInterval(); got != 0 {
		t.Errorf("Mailbox.SyncInterval() = %v, want disabled", got)
	}
	if cfg.Notification.QueueSize != 256 {
		t.Errorf("Notification.QueueSize = %d, want 256", cfg.Notification.QueueSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("IMAP_TIMEOUT_SECONDS", "5")
	t.Setenv("EMAIL_USER", "coordinator@example.com")
	t.Setenv("EMAIL_PASSWORD", "secret")
	t.Setenv("MAILBOX_SYNC_INTERVAL_SECONDS", "120")
	t.Setenv("MAILBOX_SYNC_WORKSPACE_ID", "ws-1")
	t.Setenv("NOTIFY_QUEUE_SIZE", "16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.App.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("App.Addr() = %q, want %q", got, "127.0.0.1:9090")
	}
	if cfg.Postgres.RunMigrations {
		t.Errorf("Postgres.RunMigrations = true, want false")
	}
	if got := cfg.Mailbox.Timeout(); got != 5*time.Second {
		t.Errorf("Mailbox.Timeout() = %v, want 5s", got)
	}
	if !cfg.Mailbox.Configured() {
		t.Errorf("Mailbox.Configured() = false with credentials")
	}
	if got := cfg.Mailbox.SyncInterval(); got != 2*time.Minute {
		t.Errorf("Mailbox.SyncInterval() = %v, want 2m", got)
	}
	if cfg.Notification.QueueSize != 16 {
		t.Errorf("Notification.QueueSize = %d, want 16", cfg.Notification.QueueSize)
	}
}

func TestMailboxSyncInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  MailboxConfig
		want time.Duration
	}{
		{name: "disabled", cfg: MailboxConfig{}, want: 0},
		{name: "no workspace", cfg: MailboxConfig{SyncIntervalSeconds: 60}, want: 0},
		{name: "enabled", cfg: MailboxConfig{SyncIntervalSeconds: 60, SyncWorkspaceID: "ws"}, want: time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.SyncInterval(); got != tt.want {
				t.Errorf("SyncInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid REDIS_DB")
	}
}

func TestGetEnvAsIntFallback(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := getEnvAsInt("SOME_INT", 7); got != 7 {
		t.Errorf("getEnvAsInt() = %d, want 7", got)
	}
}
