package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/bank/banktest"
	"github.com/dongibuyeo/dongibuyeo/internal/config"
	"github.com/dongibuyeo/dongibuyeo/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "dongibuyeo",
		Short:        "Savings challenge scoring and settlement server",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML file of tunables (overrides DONGIBUYEO_CONFIG)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSweepCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	return cmd
}

// load reads the configuration and sets up logging.
func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	if o.configPath != "" {
		os.Setenv("DONGIBUYEO_CONFIG", o.configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.Setup(cfg.LogLevel), nil
}

// newLedger returns the bank client, or the in-memory bank when the fake
// bank is enabled.
func newLedger(cfg config.Config, logger *slog.Logger) bank.Ledger {
	if cfg.Bank.Fake {
		logger.Warn("using in-memory fake bank; no money moves")
		return banktest.New(cfg.Location())
	}
	return bank.NewClient(bank.Config{
		BaseURL:        cfg.Bank.BaseURL,
		APIKey:         cfg.Bank.APIKey,
		RequestsPerSec: cfg.Bank.RequestsPerSec,
		Location:       cfg.Location(),
	})
}
