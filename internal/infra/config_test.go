package infra

import (
	"strings"
	"testing"
	"time"
)

func clearBatchEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "API_PREFIX", "DATABASE_URL", "LLM_API_KEY",
		"BATCH_DEFAULT_WORKERS", "BATCH_MAX_WORKERS", "BATCH_MAX_CONCURRENT",
		"BATCH_CLEANUP_HOURS", "BATCH_WAIT_TIMEOUT_SECONDS", "ALLOWED_ORIGINS",
		"DEFAULT_TEXT_LOCALE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearBatchEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BatchDefaultWorkers != 5 || cfg.BatchMaxWorkers != 20 || cfg.BatchMaxConcurrent != 10 {
		t.Fatalf("worker defaults mismatch: %+v", cfg)
	}
	if cfg.CleanupAge() != 24*time.Hour {
		t.Fatalf("CleanupAge = %s, want 24h", cfg.CleanupAge())
	}
	if cfg.BatchWaitTimeout != 300*time.Second {
		t.Fatalf("BatchWaitTimeout = %s, want 5m", cfg.BatchWaitTimeout)
	}
	if cfg.APIPrefix != "/api" {
		t.Fatalf("APIPrefix = %q, want /api", cfg.APIPrefix)
	}
	if cfg.DefaultTextLocale != "zh-Hans" {
		t.Fatalf("DefaultTextLocale = %q", cfg.DefaultTextLocale)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL should be optional, got %q", cfg.DatabaseURL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("AllowedOrigins = %#v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigNormalizesPrefixAndOrigins(t *testing.T) {
	clearBatchEnv(t)
	t.Setenv("API_PREFIX", "v1/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.APIPrefix != "/v1" {
		t.Fatalf("APIPrefix = %q, want /v1", cfg.APIPrefix)
	}
	expected := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != len(expected) {
		t.Fatalf("AllowedOrigins mismatch: got %#v want %#v", cfg.AllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.AllowedOrigins[i] != origin {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], origin)
		}
	}
}

func TestLoadConfigRejectsInvalidBatchLimits(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "default above max",
			env:     map[string]string{"BATCH_DEFAULT_WORKERS": "30", "BATCH_MAX_WORKERS": "20"},
			wantErr: "must not exceed",
		},
		{
			name:    "zero max workers",
			env:     map[string]string{"BATCH_MAX_WORKERS": "0"},
			wantErr: "BATCH_MAX_WORKERS must be positive",
		},
		{
			name:    "negative concurrency",
			env:     map[string]string{"BATCH_MAX_CONCURRENT": "-1"},
			wantErr: "BATCH_MAX_CONCURRENT must be positive",
		},
		{
			name:    "zero cleanup",
			env:     map[string]string{"BATCH_CLEANUP_HOURS": "0"},
			wantErr: "BATCH_CLEANUP_HOURS must be positive",
		},
		{
			name:    "zero wait timeout",
			env:     map[string]string{"BATCH_WAIT_TIMEOUT_SECONDS": "0"},
			wantErr: "BATCH_WAIT_TIMEOUT_SECONDS",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearBatchEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}
