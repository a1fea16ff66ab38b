package cmd

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arq-sim/arq-sim/sim"
)

var (
	// shared CLI flags
	logLevel string // Log verbosity level
	seed     int64  // Seed for the simulation RNG streams

	// `run` flags
	windowSize    int64         // Selective-Repeat send window size
	frameSize     int           // Frame payload size in bytes
	transferBytes int           // Total payload to transfer
	timeBudget    time.Duration // Wall-clock budget for the transfer

	// `sweep` flags
	sweepConfigPath string // Optional YAML sweep configuration
	runsPerConfig   int    // Runs per (window, payload) combination
	workers         int    // Parallel sweep workers (0 = one per CPU)
	outputPath      string // CSV output path ("" = stdout summary only)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "arq-sim",
	Short: "Discrete-event simulator for Selective-Repeat ARQ over a bursty channel",
}

// setupLogging applies the --log flag before any subcommand runs.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd executes one end-to-end event-loop-driven transfer.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single end-to-end ARQ transfer",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if transferBytes <= 0 {
			logrus.Fatalf("transfer size must be positive, got %d", transferBytes)
		}

		logrus.Infof("Starting transfer: %d bytes, W=%d, L=%d bytes",
			transferBytes, windowSize, frameSize)

		payload := make([]byte, transferBytes)
		transfer, err := sim.NewTransfer(windowSize, frameSize, payload, sim.NewSimulationKey(seed))
		if err != nil {
			logrus.Fatalf("invalid transfer parameters: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeBudget)
		defer cancel()

		startTime := time.Now()
		if err := transfer.Run(ctx); err != nil {
			logrus.Fatalf("transfer did not complete within %v: %v", timeBudget, err)
		}

		transfer.Metrics().Print(transfer.Elapsed())
		logrus.Infof("Transfer complete in %v wall time.", time.Since(startTime))
	},
}

// sweepCmd runs the closed-form simulation across the parameter grid and
// optionally exports per-run results as CSV.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the closed-form parameter sweep",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg := sim.DefaultSweepConfig()
		if sweepConfigPath != "" {
			loaded, err := sim.LoadSweepConfig(sweepConfigPath)
			if err != nil {
				logrus.Fatalf("unable to read sweep config: %v", err)
			}
			cfg = *loaded
		}
		if cmd.Flags().Changed("runs") {
			cfg.RunsPerConfig = runsPerConfig
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("invalid sweep config: %v", err)
		}

		totalRuns := len(cfg.WindowSizes) * len(cfg.FramePayloads) * cfg.RunsPerConfig
		logrus.Infof("Sweeping %d combinations, %d runs each",
			len(cfg.WindowSizes)*len(cfg.FramePayloads), cfg.RunsPerConfig)

		bar := progressbar.Default(int64(totalRuns), "simulating")

		startTime := time.Now()
		records, err := sim.RunSweep(context.Background(), cfg, func(sim.RunRecord) {
			// progressbar's Add is safe under concurrent callers
			_ = bar.Add(1)
		})
		if err != nil {
			logrus.Fatalf("sweep failed: %v", err)
		}
		_ = bar.Finish()

		sim.PrintSummaries(sim.Summarize(records))

		if outputPath != "" {
			if err := writeSweepCSV(outputPath, records); err != nil {
				logrus.Fatalf("unable to write CSV: %v", err)
			}
			logrus.Infof("Results written to %s", outputPath)
		}

		logrus.Infof("Sweep complete in %v.", time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	// .env values feed flag defaults through the environment; a missing
	// file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for the simulation RNG streams")

	runCmd.Flags().Int64Var(&windowSize, "window", 16, "Selective-Repeat send window size")
	runCmd.Flags().IntVar(&frameSize, "frame-size", 1024, "Frame payload size in bytes")
	runCmd.Flags().IntVar(&transferBytes, "transfer-bytes", 100*1024, "Total payload size in bytes")
	runCmd.Flags().DurationVar(&timeBudget, "budget", 2*time.Minute, "Wall-clock budget for the transfer")

	sweepCmd.Flags().StringVar(&sweepConfigPath, "config", "", "Path to a YAML sweep configuration")
	sweepCmd.Flags().IntVar(&runsPerConfig, "runs", 10, "Runs per (window, payload) combination")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "Parallel sweep workers (0 = one per CPU)")
	sweepCmd.Flags().StringVar(&outputPath, "output", "", "CSV output path for per-run results")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}
