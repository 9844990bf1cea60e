package main

import (
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/billing/cmd/billing/cli"
	"github.com/odyssey-erp/billing/internal/app"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "billing",
		Short: "Billing calculation and reporting service",
		Long: `billing serves the invoicing and reporting HTTP API.

Run without a subcommand to start the server. The jobs subcommands talk to
the Asynq queue used by the billing worker.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newJobsCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	var trigger cli.TriggerOptions
	triggerCmd := &cobra.Command{
		Use:   "trigger <task>",
		Short: "Enqueue a report task (reports:warmup or reports:invalidate)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobsCLI, err := openJobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = jobsCLI.Close() }()
			trigger.Task = args[0]
			trigger.Stdout = cmd.OutOrStdout()
			return jobsCLI.TriggerCommand(cmd.Context(), trigger)
		},
	}
	triggerCmd.Flags().StringVar(&trigger.Reason, "reason", "manual", "reason recorded in the task payload")
	triggerCmd.Flags().BoolVar(&trigger.JSONOutput, "json", false, "print the enqueued task as JSON")

	var stats cli.StatsOptions
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue counters and upcoming scheduled tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobsCLI, err := openJobsCLI()
			if err != nil {
				return err
			}
			defer func() { _ = jobsCLI.Close() }()
			stats.Stdout = cmd.OutOrStdout()
			return jobsCLI.StatsCommand(cmd.Context(), stats)
		},
	}
	statsCmd.Flags().IntVar(&stats.Scheduled, "scheduled", 5, "number of scheduled tasks to list")
	statsCmd.Flags().BoolVar(&stats.JSONOutput, "json", false, "print stats as JSON")

	jobsCmd.AddCommand(triggerCmd, statsCmd)
	return jobsCmd
}

func openJobsCLI() (*cli.JobsCLI, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}), nil
}
