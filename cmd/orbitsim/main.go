package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/automation"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/nbody"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/tui"
	"github.com/san-kum/orbitsim/internal/viz"
)

var (
	dataDir string
	// run parameters
	dt         float64
	steps      int
	report     int
	seed       int64
	bodyFlags  []string
	configFile string
	preset     string
	// run behaviour
	interactive bool
	noSave      bool
	// plot
	plotWidth  int
	plotHeight int
	// render
	renderWidth  int
	renderHeight int
	azim         float64
	elev         float64
	// bench
	benchSteps int
	// input
	outFile string
	// ensemble
	trials    int
	workers   int
	posJitter float64
	velJitter float64
)

// main runs the orbitsim commands and exits with status 1 when a command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusError.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// newRootCmd registers every subcommand. Each command binds its own flag
// variables so defaults never leak between commands.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "orbitsim",
		Short:         "n-body gravity simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and save the log and plot",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addBodyFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print results without writing a run directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addBodyFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the text log of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot x, y and z of every body against sample",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "graph width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "graph height")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "draw the 3-D trajectories in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().IntVar(&renderWidth, "width", 60, "canvas width in cells")
	renderCmd.Flags().IntVar(&renderHeight, "height", 24, "canvas height in cells")
	renderCmd.Flags().Float64Var(&azim, "azim", -60, "camera azimuth (degrees)")
	renderCmd.Flags().Float64Var(&elev, "elev", 30, "camera elevation (degrees)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export trajectories to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBODIES\tDT\tSTEPS\tREPORT")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%g\t%d\t%d\n", name, len(p.Bodies), p.Dt, p.Steps, p.ReportFrequency)
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the engine for growing body counts",
		RunE:  benchEngine,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 1000, "ticks per run")

	inputCmd := &cobra.Command{
		Use:   "input",
		Short: "enter bodies interactively and save them as a config file",
		Args:  cobra.NoArgs,
		RunE:  inputBodies,
	}
	inputCmd.Flags().StringVarP(&outFile, "out", "o", "bodies.yaml", "output config path")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "run without writing run directories")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run perturbed copies of a system and report how many stay stable",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addBodyFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent trials (0 = GOMAXPROCS)")
	ensembleCmd.Flags().Float64Var(&posJitter, "pos-jitter", 0, "position perturbation per component")
	ensembleCmd.Flags().Float64Var(&velJitter, "vel-jitter", 0, "velocity perturbation per component")

	rootCmd.AddCommand(runCmd, liveCmd, scenarioCmd, ensembleCmd, listCmd, showCmd, plotCmd, renderCmd, exportJSONCmd, exportCSVCmd, presetsCmd, benchCmd, inputCmd)

	return rootCmd
}

func addBodyFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time interval between steps")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "total number of steps")
	cmd.Flags().IntVar(&report, "report", config.DefaultReportFrequency, "number of steps between each log")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for plot colours")
	cmd.Flags().StringArrayVar(&bodyFlags, "body", nil, "body as name:mass:x,y,z[:vx,vy,vz] (repeatable)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "enter bodies interactively")
}

// resolveConfig layers preset, config file, interactive input and flags, in
// that order. Flags only override when set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if interactive {
		bodies, run, err := tui.RunForm()
		if err != nil {
			return nil, err
		}
		entered := config.FromBodies(bodies, run, cfg.Seed)
		cfg.Bodies = entered.Bodies
		cfg.Dt, cfg.Steps, cfg.ReportFrequency = run.Dt, run.Steps, run.ReportFrequency
	}

	if len(bodyFlags) > 0 {
		cfg.Bodies = cfg.Bodies[:0]
		for _, s := range bodyFlags {
			bc, err := parseBody(s)
			if err != nil {
				return nil, err
			}
			cfg.Bodies = append(cfg.Bodies, bc)
		}
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportFrequency = report
	}
	if cfg.Seed == 0 || cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	if len(cfg.Bodies) == 0 {
		return nil, errors.New("no bodies: use --preset, --config, --body or --interactive")
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	bodies, err := cfg.BuildBodies()
	if err != nil {
		return err
	}
	runCfg := cfg.NBodyConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim := nbody.New()
	for _, m := range metrics.Defaults() {
		sim.AddMetric(m)
	}

	fmt.Println(viz.Subtle.Render(fmt.Sprintf("running simulation: %d bodies, %d steps, dt=%g, report every %d",
		len(bodies), runCfg.Steps, runCfg.Dt, runCfg.ReportFrequency)))

	start := time.Now()
	result, err := sim.Run(ctx, bodies, runCfg)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d, samples per body: %d\n\n", result.StepsTaken, runCfg.Samples())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMASS\tFINAL POSITION\tFINAL VELOCITY")
	for _, b := range result.Final {
		fmt.Fprintf(w, "%s\t%g\t%s\t%s\n", b.Name, b.Mass, b.Position, b.Velocity)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s %s\n", viz.MetricLabel.Render(name+":"), viz.MetricValue.Render(fmt.Sprintf("%.6g", result.Metrics[name])))
	}

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	runID, err := automation.Record(st, cfg.Seed, runCfg, result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	fmt.Printf("\n%s %s\n", viz.StatusOK.Render("saved"), st.Dir(runID))
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
	}

	if scenario.Description != "" {
		fmt.Println(viz.Subtle.Render(scenario.Description))
	}
	results, err := automation.RunScenario(ctx, scenario, st, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tBODIES\tTICKS\tENERGY DRIFT")
	for _, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3e\n", r.Name, runID, len(r.Result.Initial), r.Result.StepsTaken, r.Result.Metrics["energy_drift"])
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	bodies, err := cfg.BuildBodies()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mc := &automation.MonteCarloConfig{
		Base:           bodies,
		Run:            cfg.NBodyConfig(),
		PositionJitter: posJitter,
		VelocityJitter: velJitter,
		NumTrials:      trials,
		Workers:        workers,
		Seed:           cfg.Seed,
	}

	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, mc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTABLE\tENERGY DRIFT\tMIN SEPARATION\tERROR")
	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%v\t%.3e\t%.4g\t%s\n", r.TrialID, r.Stable, r.EnergyDrift, r.MinSeparation, errText)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	sum := automation.Summarize(results)
	fmt.Printf("\n%d trials in %v: %s stable, %s unstable\n", sum.Trials, time.Since(start),
		viz.StatusOK.Render(fmt.Sprint(sum.Stable)), viz.StatusError.Render(fmt.Sprint(sum.Unstable)))
	if sum.Stable > 0 {
		fmt.Printf("  %s %s\n", viz.MetricLabel.Render("energy drift:"),
			viz.MetricValue.Render(fmt.Sprintf("%.3e ± %.1e", sum.MeanEnergyDrift, sum.StdEnergyDrift)))
		fmt.Printf("  %s %s\n", viz.MetricLabel.Render("min separation:"),
			viz.MetricValue.Render(fmt.Sprintf("%.4g ± %.2g", sum.MeanMinSeparation, sum.StdMinSeparation)))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	bodies, err := cfg.BuildBodies()
	if err != nil {
		return err
	}
	return tui.RunViewer(bodies, cfg.NBodyConfig(), cfg.Seed)
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
	fmt.Fprintln(w, "ID\tTIME\tBODIES\tSTEPS\tDT\tREPORT\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Bodies),
			run.Steps,
			run.Dt,
			run.ReportFrequency,
			run.Samples,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	path, err := st.LogPath(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

var graphColours = map[string]asciigraph.AnsiColor{
	"r": asciigraph.Red,
	"b": asciigraph.Blue,
	"g": asciigraph.Green,
	"y": asciigraph.Yellow,
	"m": asciigraph.Magenta,
	"c": asciigraph.Cyan,
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	if len(history) == 0 || history[0].Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("bodies: %d\n", len(history))
	fmt.Printf("samples: %d\n\n", history[0].Len())

	colours := viz.PickColours(len(history), meta.Seed)
	series := make([]asciigraph.AnsiColor, len(history))
	for i, c := range colours {
		series[i] = graphColours[c.Code]
	}

	axes := []struct {
		label string
		get   func(tr nbody.Trajectory) []float64
	}{
		{"x", func(tr nbody.Trajectory) []float64 { return tr.X }},
		{"y", func(tr nbody.Trajectory) []float64 { return tr.Y }},
		{"z", func(tr nbody.Trajectory) []float64 { return tr.Z }},
	}

	for _, ax := range axes {
		data := make([][]float64, len(history))
		for i, tr := range history {
			data[i] = finiteOnly(ax.get(tr))
		}

		graph := asciigraph.PlotMany(data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.SeriesColors(series...),
			asciigraph.SeriesLegends(meta.Bodies...),
			asciigraph.Caption(ax.label+" vs sample"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

// finiteOnly cuts the series at its first NaN or Inf, which asciigraph
// cannot scale. Truncating keeps sample i of every body in column i.
func finiteOnly(vs []float64) []float64 {
	for i, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vs = vs[:i]
			break
		}
	}
	if len(vs) == 0 {
		return []float64{0}
	}
	return vs
}

func renderRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	cam := viz.NewCamera()
	cam.Azim = azim * math.Pi / 180
	cam.Elev = elev * math.Pi / 180

	fmt.Println(viz.Title.Render(meta.ID))
	fmt.Print(viz.RenderTerminal(viz.NewScene(history), cam, viz.PickColours(len(history), meta.Seed), renderWidth, renderHeight))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	initial, _, err := st.LoadInitial(runID)
	if err != nil {
		return err
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, storage.NewExportData(meta, initial, history))
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	history, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}

	return storage.WriteCSV(os.Stdout, history)
}

// benchBodies places n equal masses on a ring in the x-y plane.
func benchBodies(n int) nbody.Bodies {
	bodies := make(nbody.Bodies, n)
	for i := range bodies {
		angle := 2 * math.Pi * float64(i) / float64(n)
		bodies[i] = nbody.Body{
			Name:     fmt.Sprintf("Body%d", i+1),
			Mass:     5e10,
			Position: nbody.Vector3{X: 1e5 * math.Cos(angle), Y: 1e5 * math.Sin(angle)},
		}
	}
	return bodies
}

func benchEngine(cmd *cobra.Command, args []string) error {
	counts := []int{2, 4, 8, 16, 32, 64}

	fmt.Printf("benchmarking %d ticks per run\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tTICKS\tTIME\tTICKS/SEC\tPAIRS/SEC")

	for _, n := range counts {
		cfg := nbody.Config{Dt: 1, Steps: benchSteps, ReportFrequency: max(benchSteps, 1)}

		start := time.Now()
		result, err := nbody.Run(context.Background(), benchBodies(n), cfg)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		ticksPerSec := float64(result.StepsTaken) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.0f\n",
			n, result.StepsTaken, elapsed, ticksPerSec, ticksPerSec*float64(n*(n-1)))
	}

	return w.Flush()
}

func inputBodies(cmd *cobra.Command, args []string) error {
	bodies, run, err := tui.RunForm()
	if err != nil {
		return err
	}

	if err := config.Save(outFile, config.FromBodies(bodies, run, 0)); err != nil {
		return err
	}

	fmt.Printf("%s %d bodies to %s\n", viz.StatusOK.Render("saved"), len(bodies), outFile)
	fmt.Printf("run with: orbitsim run --config %s\n", outFile)
	return nil
}
