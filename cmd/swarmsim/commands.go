package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/swarmsim/internal/compute"
	"github.com/san-kum/swarmsim/internal/config"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/export"
	"github.com/san-kum/swarmsim/internal/gui"
	"github.com/san-kum/swarmsim/internal/metrics"
	"github.com/san-kum/swarmsim/internal/scenario"
	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/storage"
	"github.com/san-kum/swarmsim/internal/stream"
	"github.com/san-kum/swarmsim/internal/tui"
)

func budgetMS(cfg *config.Config) float64 {
	return float64(cfg.FrameBudget) / float64(time.Millisecond)
}

func source(cfg *config.Config) (sim.Source, error) {
	if scenarioFile == "" {
		return scenario.Circle(cfg.Width, cfg.Height, 240, cfg.Tuning()), nil
	}
	s, err := scenario.LoadScenario(scenarioFile)
	if err != nil {
		return nil, err
	}
	start := scenario.Point{X: float32(cfg.Width) / 2, Y: float32(cfg.Height) / 2}
	return s.Player(start, cfg.Tuning()), nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.Engine()
	if err != nil {
		return err
	}
	src, err := source(cfg)
	if err != nil {
		return err
	}

	engine, err := sim.New(opts, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Close()

	recorder := metrics.NewRecorder(0, metrics.Standard(cfg.Particles, budgetMS(cfg))...).LogEvery(logger, logEvery)
	engine.AddObserver(recorder)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s: %d particles, %dx%d, %s kernel, %d workers, seed %d\n",
		runName(), cfg.Particles, cfg.Width, cfg.Height, engine.KernelName(), engine.Workers(), cfg.Seed)
	start := time.Now()

	var last *density.Frame
	err = engine.RunWithCallback(ctx, frames, src, func(f *density.Frame, _ sim.FrameStats) bool {
		last = f
		return true
	})
	interrupted := ctx.Err() != nil && errors.Is(err, ctx.Err())
	if err != nil && !interrupted {
		return err
	}
	elapsed := time.Since(start)
	done := int(engine.Frames())

	fmt.Printf("completed %d frames in %v\n", done, elapsed)
	summary := recorder.Summary()
	fmt.Println("\nmetrics:")
	for _, name := range []string{"frame_ms", "frame_p95_ms", "within_budget", "in_range", "degraded_jobs"} {
		if v, ok := summary[name]; ok {
			fmt.Printf("  %s: %.4f\n", name, v)
		}
	}

	if pngOut != "" && last != nil {
		if err := export.SavePNG(pngOut, last); err != nil {
			return err
		}
		fmt.Printf("frame: %s\n", pngOut)
	}
	if svgOut != "" {
		svg := export.SeriesToSVG(recorder.Series(), budgetMS(cfg), 800, 300, "#00ff88")
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", svgOut)
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Preset:  runName(),
			Frames:  done,
			Kernel:  engine.KernelName(),
			Workers: engine.Workers(),
			Config:  cfg,
			Metrics: summary,
		}, recorder.Samples())
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func benchKernelsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.Engine()
	if err != nil {
		return err
	}

	kernels := benchKernels
	if len(kernels) == 0 {
		kernels = compute.Names()
	}
	counts := benchWorkers
	if len(counts) == 0 {
		counts = []int{opts.Workers}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %d particles, %dx%d, %d frames each\n\n", cfg.Particles, cfg.Width, cfg.Height, benchFrames)
	results, err := scenario.RunSweep(ctx, opts, scenario.Sweep{
		Kernels: kernels,
		Workers: counts,
		Frames:  benchFrames,
		Warmup:  warmup,
	}, scenario.Circle(cfg.Width, cfg.Height, 240, cfg.Tuning()), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KERNEL\tWORKERS\tMEAN\tSTDDEV\tP95\tFPS")
	best := 0
	for i, r := range results {
		workers := fmt.Sprint(r.Workers)
		if r.Workers == 0 {
			workers = "auto"
		}
		fps := 0.0
		if r.MeanMS > 0 {
			fps = 1000 / r.MeanMS
		}
		fmt.Fprintf(w, "%s\t%s\t%.3fms\t%.3fms\t%.3fms\t%.0f\n", r.Kernel, workers, r.MeanMS, r.StdDevMS, r.P95MS, fps)
		if r.MeanMS < results[best].MeanMS {
			best = i
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(results) > 0 && len(results[best].Series) > 1 {
		r := results[best]
		fmt.Println()
		fmt.Println(asciigraph.Plot(r.Series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("frame time (ms), fastest: %s", r.Kernel)),
		))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Config:      cfg,
		Name:        runName(),
		Theme:       theme,
		SnapshotDir: snapshots,
	})
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return gui.Run(gui.Options{
		Name:        runName(),
		Config:      cfg,
		SnapshotDir: snapshots,
		Logger:      logger,
		Scale:       scale,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.Engine()
	if err != nil {
		return err
	}
	engine, err := sim.New(opts, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Close()

	recorder := metrics.NewRecorder(600, metrics.Standard(cfg.Particles, budgetMS(cfg))...).LogEvery(logger, uint64(max(fps, 1)*10))
	srv := stream.New(engine, cfg.Tuning(),
		stream.WithLogger(logger),
		stream.WithFPS(fps),
		stream.WithMaxClients(maxClients),
		stream.WithObserver(recorder),
	)

	ctx, cancel := signalContext()
	defer cancel()
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	logger.Info("stream stopped", "frames", engine.Frames(), "dropped", srv.Dropped())
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARTICLES\tFIELD\tMODE\tOP\tWRAP\tFALLOFF")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%dx%d\t%s\t%s\t%s\t%s\n",
			name, p.Particles, p.Width, p.Height, p.Density.Mode, p.Density.Op, p.Wrap, p.Falloff)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tFRAMES\tKERNEL\tWORKERS\tMEAN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%.3fms\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Kernel,
			run.Workers,
			run.Metrics["frame_ms"],
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if jsonOut {
		return storage.WriteJSON(os.Stdout, *meta, samples)
	}
	if exportPath != "" {
		if err := storage.ExportJSON(exportPath, *meta, samples); err != nil {
			return err
		}
		fmt.Printf("exported %s\n", exportPath)
	}

	series := make([]float64, len(samples))
	for i, s := range samples {
		series[i] = float64(s.TotalUS) / 1000
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d (%s kernel, %d workers)\n", meta.Frames, meta.Kernel, meta.Workers)
	if meta.Config != nil {
		fmt.Printf("field: %d particles, %dx%d, %s\n", meta.Config.Particles, meta.Config.Width, meta.Config.Height, meta.Config.Density.Mode)
	}
	fmt.Println("\nmetrics:")
	for name, val := range meta.Metrics {
		fmt.Printf("  %s: %.4f\n", name, val)
	}

	if len(series) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("frame time (ms)"),
		))
	}

	if svgOut != "" {
		var budget float64
		if meta.Config != nil {
			budget = budgetMS(meta.Config)
		}
		svg := export.SeriesToSVG(series, budget, 800, 300, "#00ff88")
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", svgOut)
	}
	return nil
}
