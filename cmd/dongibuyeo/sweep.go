package main

import (
	"encoding/json"
	"fmt"

	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/database"
	"github.com/dongibuyeo/dongibuyeo/internal/scheduler"
	"github.com/spf13/cobra"
)

func newSweepCommand(root *rootOptions) *cobra.Command {
	var retryRefunds bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one fever-time sweep over every consumption challenge type",
		Long: "Credits members of in-progress consumption challenges who made no matching " +
			"transfer during a closed fever window today, then prints the results as JSON.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			ledger := newLedger(cfg, logger)
			now := challenge.ClockIn(cfg.Location())
			refunds := challenge.NewRefunds(db, ledger, nil, logger)
			sched := scheduler.New(challenge.NewScoring(db, ledger, now, nil, logger), refunds, scheduler.Config{
				RefundBatch: cfg.Schedule.RefundBatch,
			}, logger)

			results := sched.SweepAll(cmd.Context())
			if retryRefunds {
				sched.RetryRefunds(cmd.Context())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
	cmd.Flags().BoolVar(&retryRefunds, "refunds", false, "also retry queued deposit refunds")
	return cmd
}
