package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.Timezone != "Asia/Seoul" {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, "Asia/Seoul")
	}
	if cfg.Rewards.DivisionRatio != 0.5 {
		t.Errorf("Rewards.DivisionRatio = %v, want 0.5", cfg.Rewards.DivisionRatio)
	}
	if cfg.Quiz.HeadCount != 42 {
		t.Errorf("Quiz.HeadCount = %d, want 42", cfg.Quiz.HeadCount)
	}
	if cfg.Schedule.FeverInterval.Duration != time.Hour {
		t.Errorf("Schedule.FeverInterval = %v, want 1h", cfg.Schedule.FeverInterval.Duration)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dongibuyeo.toml")
	data := `
[rewards]
division_ratio = 0.75

[savings]
bank_code = "001"
interest_rate = 4.1

[quiz]
score = 7

[schedule]
fever_interval = "30m"
refund_batch = 10
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("load file: %v", err)
	}

	if cfg.Rewards.DivisionRatio != 0.75 {
		t.Errorf("DivisionRatio = %v, want 0.75", cfg.Rewards.DivisionRatio)
	}
	if cfg.Savings.BankCode != "001" {
		t.Errorf("BankCode = %q, want %q", cfg.Savings.BankCode, "001")
	}
	if cfg.Savings.MaxBalance != 1000000 {
		t.Errorf("MaxBalance = %d, want default 1000000", cfg.Savings.MaxBalance)
	}
	if cfg.Quiz.Score != 7 {
		t.Errorf("Quiz.Score = %d, want 7", cfg.Quiz.Score)
	}
	if cfg.Schedule.FeverInterval.Duration != 30*time.Minute {
		t.Errorf("FeverInterval = %v, want 30m", cfg.Schedule.FeverInterval.Duration)
	}
	if cfg.Schedule.RefundBatch != 10 {
		t.Errorf("RefundBatch = %d, want 10", cfg.Schedule.RefundBatch)
	}
}

func TestLoadFileBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[schedule]\nfever_interval = \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := Default()
	if err := cfg.LoadFile(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DONGIBUYEO_PORT", "9090")
	t.Setenv("DONGIBUYEO_FAKE_BANK", "true")
	t.Setenv("DONGIBUYEO_BANK_RPS", "2.5")
	t.Setenv("DONGIBUYEO_TIMEZONE", "UTC")
	t.Setenv("DONGIBUYEO_ADMIN_TOKEN", "ops")
	t.Setenv("DONGIBUYEO_ALLOWED_ORIGINS", "app.example.com, *.example.org,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if !cfg.Bank.Fake {
		t.Error("expected fake bank")
	}
	if cfg.Bank.RequestsPerSec != 2.5 {
		t.Errorf("RequestsPerSec = %v, want 2.5", cfg.Bank.RequestsPerSec)
	}
	if cfg.AdminToken != "ops" {
		t.Errorf("AdminToken = %q, want %q", cfg.AdminToken, "ops")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "*.example.org" {
		t.Errorf("AllowedOrigins = %v, want [app.example.com *.example.org]", cfg.AllowedOrigins)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"fake bank ok", func(c *Config) { c.Bank.Fake = true }, false},
		{"real bank needs url", func(c *Config) {}, true},
		{"real bank with url", func(c *Config) { c.Bank.BaseURL = "https://bank.example" }, false},
		{"bad timezone", func(c *Config) { c.Bank.Fake = true; c.Timezone = "Mars/Olympus" }, true},
		{"negative ratio", func(c *Config) { c.Bank.Fake = true; c.Rewards.DivisionRatio = -1 }, true},
		{"zero http burst", func(c *Config) { c.Bank.Fake = true; c.HTTP.Burst = 0 }, true},
		{"zero interval", func(c *Config) { c.Bank.Fake = true; c.Schedule.FeverInterval = Duration{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
