package config

import (
	"testing"
	"time"
)

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "15m", 15 * time.Minute},
		{"bare hours", "36", 36 * time.Hour},
		{"invalid falls back", "soon", time.Hour},
		{"empty falls back", "", time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getEnvDuration("TEST_DURATION", time.Hour); got != tt.want {
				t.Fatalf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadUsesSevenDayTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("OTP_TTL", "")
	t.Setenv("SMTP_HOST", "")

	cfg := Load()
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("TokenTTL = %v, want 168h", cfg.TokenTTL)
	}
	if cfg.OTPTTL != 10*time.Minute {
		t.Fatalf("OTPTTL = %v, want 10m", cfg.OTPTTL)
	}
	if cfg.SMTPEnabled() {
		t.Fatal("SMTP should be disabled without SMTP_HOST")
	}
}

func TestLoadSeedAdminRequiresAllFields(t *testing.T) {
	t.Setenv("SEED_ADMIN_EMAIL", "root@example.com")
	t.Setenv("SEED_ADMIN_USERNAME", "root")
	t.Setenv("SEED_ADMIN_PASSWORD", "")
	t.Setenv("SEED_ADMIN_MOBILE", "+919876543210")

	if _, ok := LoadSeedAdmin(); ok {
		t.Fatal("expected seed admin to be incomplete without a password")
	}
}
