package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/swarmsim/internal/config"
	"github.com/san-kum/swarmsim/internal/tui"
)

var (
	dataDir  string
	logLevel string

	// engine overrides, applied only when set on the command line
	preset     string
	configFile string
	particles  int
	width      int
	height     int
	workers    int
	kernel     string
	mode       string
	op         string
	seed       uint64
	attraction float32
	friction   float32
	budget     string

	frames       int
	scenarioFile string
	pngOut       string
	svgOut       string
	save         bool
	logEvery     uint64

	benchKernels []string
	benchWorkers []int
	benchFrames  int
	warmup       int

	theme     string
	snapshots string
	scale     float32

	addr       string
	fps        int
	maxClients int

	jsonOut    bool
	exportPath string
)

var logger *slog.Logger

func main() {
	rootCmd := &cobra.Command{
		Use:   "swarmsim",
		Short: "real-time particle attraction simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// no subcommand: pick a preset in the terminal view
			return tui.Run(tui.Options{Theme: theme, SnapshotDir: snapshots})
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".swarmsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&theme, "theme", "ink", "terminal theme")
	rootCmd.Flags().StringVar(&snapshots, "snapshots", ".", "directory for PNG snapshots")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless and record frame stats",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addEngineFlags(runCmd)
	runCmd.Flags().IntVar(&frames, "frames", 600, "frames to run")
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "attractor script (yaml)")
	runCmd.Flags().StringVar(&pngOut, "png", "", "write the last frame as PNG")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write a frame-time chart as SVG")
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under --data")
	runCmd.Flags().Uint64Var(&logEvery, "log-every", 60, "log frame stats at debug level every N frames")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare kernels and worker counts",
		Args:  cobra.NoArgs,
		RunE:  benchKernelsCmd,
	}
	addEngineFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchFrames, "frames", 120, "frames per combination")
	benchCmd.Flags().IntVar(&warmup, "warmup", 10, "unrecorded frames per combination")
	benchCmd.Flags().StringSliceVar(&benchKernels, "kernels", nil, "kernels to compare (default all)")
	benchCmd.Flags().IntSliceVar(&benchWorkers, "worker-counts", nil, "worker counts to compare (default the pool size)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "steer the swarm in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addEngineFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "ink", "terminal theme")
	liveCmd.Flags().StringVar(&snapshots, "snapshots", ".", "directory for PNG snapshots")

	windowCmd := &cobra.Command{
		Use:   "window",
		Short: "steer the swarm in a window",
		Args:  cobra.NoArgs,
		RunE:  runWindow,
	}
	addEngineFlags(windowCmd)
	windowCmd.Flags().Float32Var(&scale, "scale", 1, "window scale relative to the field")
	windowCmd.Flags().StringVar(&snapshots, "snapshots", ".", "directory for PNG snapshots")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream frames over websockets",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addEngineFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&fps, "fps", 60, "frames per second")
	serveCmd.Flags().IntVar(&maxClients, "max-clients", 16, "maximum connected clients")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&jsonOut, "json", false, "print metadata and frames as JSON")
	showCmd.Flags().StringVar(&exportPath, "export", "", "write metadata and frames to a JSON file")
	showCmd.Flags().StringVar(&svgOut, "svg", "", "write a frame-time chart as SVG")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a config file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	addEngineFlags(configInitCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, benchCmd, liveCmd, windowCmd, serveCmd, presetsCmd, listCmd, showCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return nil
}

// signalContext is cancelled on interrupt or terminate.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
