package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_DB_DSN", "postgres://u:p@localhost/cal")
	t.Setenv("APP_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.WeekStart != time.Sunday {
		t.Errorf("WeekStart = %v, want Sunday", cfg.WeekStart)
	}
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Errorf("IdleTimeout = %v, want 30m", cfg.Session.IdleTimeout)
	}
	if cfg.PrometheusEnabled {
		t.Error("PrometheusEnabled should default to false")
	}
}

func TestLoadBuildsDSNFromParts(t *testing.T) {
	t.Setenv("APP_DB_DSN", "")
	t.Setenv("APP_DB_HOST", "db")
	t.Setenv("APP_DB_NAME", "calendar")
	t.Setenv("APP_DB_USER", "cal")
	t.Setenv("APP_DB_PASSWORD", "secret")
	t.Setenv("APP_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := "postgres://cal:secret@db:5432/calendar?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Errorf("DSN = %q, want %q", cfg.DB.DSN, want)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing dsn",
			env:     map[string]string{"APP_SESSION_SECRET": testSecret},
			wantErr: "APP_DB_DSN is required",
		},
		{
			name:    "missing secret",
			env:     map[string]string{"APP_DB_DSN": "postgres://x"},
			wantErr: "APP_SESSION_SECRET is required",
		},
		{
			name:    "short secret",
			env:     map[string]string{"APP_DB_DSN": "postgres://x", "APP_SESSION_SECRET": "short"},
			wantErr: "at least 32 characters",
		},
		{
			name:    "bad timezone",
			env:     map[string]string{"APP_DB_DSN": "postgres://x", "APP_SESSION_SECRET": testSecret, "APP_TIMEZONE": "Mars/Olympus"},
			wantErr: "APP_TIMEZONE",
		},
		{
			name:    "bad week start",
			env:     map[string]string{"APP_DB_DSN": "postgres://x", "APP_SESSION_SECRET": testSecret, "APP_WEEK_START": "friday"},
			wantErr: "APP_WEEK_START",
		},
		{
			name:    "bad idle timeout",
			env:     map[string]string{"APP_DB_DSN": "postgres://x", "APP_SESSION_SECRET": testSecret, "APP_SESSION_IDLE_TIMEOUT": "soon"},
			wantErr: "APP_SESSION_IDLE_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"APP_DB_DSN", "APP_DB_HOST", "APP_SESSION_SECRET", "APP_TIMEZONE", "APP_WEEK_START", "APP_SESSION_IDLE_TIMEOUT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("CAL_TEST_BOOL", "yes")
	if !getenvBool("CAL_TEST_BOOL", false) {
		t.Error("getenvBool(yes) = false")
	}
	t.Setenv("CAL_TEST_BOOL", "garbage")
	if getenvBool("CAL_TEST_BOOL", false) {
		t.Error("getenvBool(garbage) should fall back to default")
	}

	t.Setenv("CAL_TEST_LIST", " 10.0.0.1 , ,192.168.0.0/16")
	got := getenvList("CAL_TEST_LIST")
	if len(got) != 2 || got[0] != "10.0.0.1" || got[1] != "192.168.0.0/16" {
		t.Errorf("getenvList() = %v", got)
	}
}
