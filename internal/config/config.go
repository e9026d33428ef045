// Package config loads runtime configuration from the environment (with an
// optional .env file) and an optional TOML file of tunables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel string
	Timezone string

	// AdminToken guards the operator endpoints. Empty disables them.
	AdminToken string
	// AllowedOrigins are the websocket origin patterns besides the host.
	AllowedOrigins []string

	HTTP     HTTPConfig `toml:"http"`
	Bank     BankConfig
	Rewards  RewardConfig   `toml:"rewards"`
	Savings  SavingsConfig  `toml:"savings"`
	Quiz     QuizConfig     `toml:"quiz"`
	Schedule ScheduleConfig `toml:"schedule"`
}

type BankConfig struct {
	BaseURL        string
	APIKey         string
	RequestsPerSec float64
	Fake           bool
}

// HTTPConfig rate-limits mutating API requests per client address.
type HTTPConfig struct {
	RequestsPerSec float64 `toml:"requests_per_sec"`
	Burst          int     `toml:"burst"`
}

type RewardConfig struct {
	DivisionRatio float64 `toml:"division_ratio"`
}

// SavingsConfig describes the savings product created for SAVINGS challenges.
type SavingsConfig struct {
	BankCode           string  `toml:"bank_code"`
	SubscriptionPeriod string  `toml:"subscription_period"`
	MinBalance         int64   `toml:"min_balance"`
	MaxBalance         int64   `toml:"max_balance"`
	InterestRate       float64 `toml:"interest_rate"`
}

type QuizConfig struct {
	Deposit   int64 `toml:"deposit"`
	HeadCount int64 `toml:"head_count"`
	Score     int   `toml:"score"`
}

type ScheduleConfig struct {
	FeverInterval  Duration `toml:"fever_interval"`
	RefundInterval Duration `toml:"refund_interval"`
	RefundBatch    int      `toml:"refund_batch"`
}

// Duration is a time.Duration that decodes from a TOML string like "1h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:     "8080",
		DBPath:   "dongibuyeo.db",
		LogLevel: "info",
		Timezone: "Asia/Seoul",
		HTTP: HTTPConfig{
			RequestsPerSec: 10,
			Burst:          20,
		},
		Bank: BankConfig{
			RequestsPerSec: 5,
		},
		Rewards: RewardConfig{
			DivisionRatio: 0.5,
		},
		Savings: SavingsConfig{
			BankCode:           "088",
			SubscriptionPeriod: "7",
			MinBalance:         10000,
			MaxBalance:         1000000,
			InterestRate:       3.5,
		},
		Quiz: QuizConfig{
			Deposit:   1000,
			HeadCount: 42,
			Score:     5,
		},
		Schedule: ScheduleConfig{
			FeverInterval:  Duration{time.Hour},
			RefundInterval: Duration{time.Minute},
			RefundBatch:    50,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file named by
// DONGIBUYEO_CONFIG (if any), then environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("DONGIBUYEO_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the tunables in a TOML file onto cfg.
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "DONGIBUYEO_PORT")
	setString(&c.DBPath, "DONGIBUYEO_DB_PATH")
	setString(&c.LogLevel, "DONGIBUYEO_LOG_LEVEL")
	setString(&c.Timezone, "DONGIBUYEO_TIMEZONE")
	setString(&c.Bank.BaseURL, "DONGIBUYEO_BANK_URL")
	setString(&c.Bank.APIKey, "DONGIBUYEO_BANK_API_KEY")
	setString(&c.AdminToken, "DONGIBUYEO_ADMIN_TOKEN")
	if v := os.Getenv("DONGIBUYEO_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}

	if v := os.Getenv("DONGIBUYEO_BANK_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DONGIBUYEO_BANK_RPS: %w", err)
		}
		c.Bank.RequestsPerSec = rps
	}
	if v := os.Getenv("DONGIBUYEO_FAKE_BANK"); v != "" {
		fake, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DONGIBUYEO_FAKE_BANK: %w", err)
		}
		c.Bank.Fake = fake
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.Rewards.DivisionRatio < 0 {
		return fmt.Errorf("rewards.division_ratio must be >= 0, got %v", c.Rewards.DivisionRatio)
	}
	if !c.Bank.Fake && c.Bank.BaseURL == "" {
		return errors.New("DONGIBUYEO_BANK_URL is required unless DONGIBUYEO_FAKE_BANK is set")
	}
	if c.HTTP.RequestsPerSec <= 0 || c.HTTP.Burst <= 0 {
		return errors.New("http rate limit must be positive")
	}
	if c.Schedule.FeverInterval.Duration <= 0 || c.Schedule.RefundInterval.Duration <= 0 {
		return errors.New("schedule intervals must be positive")
	}
	return nil
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
