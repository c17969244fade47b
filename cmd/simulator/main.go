package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-monitor/internal/simulator"
	applog "fleet-monitor/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleet-simulator",
		Short: "Fleet simulator - synthetic vehicle telemetry generator",
		Long: `Generates random-walk telemetry for a fleet of vehicles and posts it
to a fleet monitor server, one reading per vehicle per interval.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (json, console)")

	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCmd streams telemetry until the duration elapses or the process is interrupted.
func runCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
		opts    simulator.Options
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stream simulated telemetry to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := applog.New(logLevel, logFormat)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Simulator targeting server", zap.String("server", server))
			runner := simulator.NewRunner(simulator.NewClient(server, timeout), opts, logger)
			stats, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Sent %d readings (%d failed)\n", stats.Sent, stats.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8080", "Fleet monitor base URL")
	cmd.Flags().IntVarP(&opts.Vehicles, "vehicles", "n", 5, "Number of vehicles to simulate")
	cmd.Flags().DurationVarP(&opts.Interval, "interval", "i", 2*time.Second, "Time between readings per vehicle")
	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", 0, "How long to run (0 runs until interrupted)")
	cmd.Flags().Float64Var(&opts.RequestsPerSecond, "rps", 0, "Cap on combined requests per second (0 disables)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "Random seed")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "HTTP request timeout")

	return cmd
}
