package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dropsim/internal/analysis"
	"github.com/san-kum/dropsim/internal/config"
	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/experiment"
	"github.com/san-kum/dropsim/internal/export"
	"github.com/san-kum/dropsim/internal/gui"
	"github.com/san-kum/dropsim/internal/physics"
	"github.com/san-kum/dropsim/internal/sensor"
	"github.com/san-kum/dropsim/internal/storage"
	"github.com/san-kum/dropsim/internal/stream"
	"github.com/san-kum/dropsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string

	bodies    int
	maxBodies int
	ticks     int
	tickRate  int
	seed      int64
	gravity   string
	validate  bool

	jsonOut  string
	svgOut   string
	addr     string
	rate     int
	sound    bool
	runs     int
	saveFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dropsim",
		Short: "circles dropping in a phone-shaped arena",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dropsim", "data directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the simulation in the terminal",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "run the simulation in a window",
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)
	guiCmd.Flags().BoolVar(&sound, "sound", true, "play impact sounds")

	runCmd := &cobra.Command{
		Use:   "run [name]",
		Short: "run headless and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also export the result as JSON (- for stdout)")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "also write the final arena as SVG")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation over websocket",
		RunE:  runServe,
	}
	addSimFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&rate, "rate", stream.DefaultRate, "snapshots per second")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark tick throughput",
		RunE:  runBench,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&runs, "runs", 1, "parallel runs with consecutive seeds")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "settle time and energy spectrum",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export frames and final bodies as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the final arena of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets and gravity sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\ngravity sources: %v\n", sensor.NewRegistry().List())
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	addSimFlags(configCmd)

	rootCmd.AddCommand(liveCmd, guiCmd, runCmd, serveCmd, benchCmd, listCmd, plotCmd, analyzeCmd,
		exportCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd, presetsCmd, configCmd)
	rootCmd.AddCommand(automationCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&bodies, "bodies", config.DefaultBodies, "bodies dropped at start")
	cmd.Flags().IntVar(&maxBodies, "max-bodies", 0, "population cap, oldest evicted first (0 = unbounded)")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to run headless")
	cmd.Flags().IntVar(&tickRate, "tick-rate", config.DefaultTickRate, "ticks per second")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&gravity, "gravity", config.DefaultGravity, "gravity source")
	cmd.Flags().BoolVar(&validate, "validate", false, "halt on non-finite body state")
}

// resolveConfig layers preset, then config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := experiment.Resolve(preset, configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("bodies") {
		cfg.Spawn.Count = bodies
	}
	if flags.Changed("max-bodies") {
		cfg.Sim.MaxBodies = maxBodies
	}
	if flags.Changed("ticks") {
		cfg.Sim.Ticks = ticks
	}
	if flags.Changed("tick-rate") {
		cfg.Sim.TickRate = tickRate
	}
	if flags.Changed("seed") || cfg.Sim.Seed == 0 {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("gravity") {
		cfg.Sim.Gravity = gravity
	}
	if flags.Changed("validate") {
		cfg.Sim.ValidateState = validate
	}
	return cfg, cfg.Validate()
}

func scenarioName(args []string) string {
	switch {
	case len(args) > 0:
		return args[0]
	case preset != "":
		return preset
	}
	return "drop"
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := cfg.NewSimulation()
	if err != nil {
		return err
	}
	if err := cfg.Populate(s); err != nil {
		return err
	}
	return viz.Run(s, scenarioName(nil))
}

func runGUI(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	if cmd.Flags().NFlag() == 0 {
		return gui.RunInteractive(sound, logger)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return gui.Run(scenarioName(nil), cfg, sound, logger)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	name := scenarioName(args)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(name, cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("dropping %d bodies for %d ticks...\n", cfg.Spawn.Count, cfg.Sim.Ticks)
	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v (%.0f ticks/s)\n", result.Elapsed, result.TicksPerSecond())
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d, bodies: %d, stable: %.0f%%\n", result.Ticks, result.Final.Len(), 100*result.Final.StableFraction())
	fmt.Println("\nmetrics:")
	for _, k := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}

	switch jsonOut {
	case "":
	case "-":
		if err := storage.ExportJSONStdout(name, result); err != nil {
			return err
		}
	default:
		if err := storage.ExportJSON(jsonOut, name, result); err != nil {
			return err
		}
	}
	if svgOut != "" {
		svg := export.SnapshotToSVG(result.Final, cfg.Arena, export.DefaultSVGOptions())
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := cfg.NewSimulation()
	if err != nil {
		return err
	}
	if err := cfg.Populate(s); err != nil {
		return err
	}
	s.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	return stream.NewServer(s, rate, logger).ListenAndServe(ctx, addr)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tRUNS\tTICKS\tTIME\tTICKS/SEC")

	counts := []int{50, 200, 800}
	if cmd.Flags().Changed("bodies") {
		counts = []int{cfg.Spawn.Count}
	}
	for _, n := range counts {
		c := *cfg
		c.Spawn.Count = n
		run, err := c.Headless()
		if err != nil {
			return err
		}

		start := time.Now()
		results, err := dynamo.NewEnsemble(run, runs, c.Sim.Seed).Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		total, rateSum := 0, 0.0
		for _, r := range results {
			total += r.Ticks
			rateSum += r.TicksPerSecond()
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\n", n, runs, total, elapsed.Round(time.Millisecond), rateSum/float64(len(results)))
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTICKS\tBODIES\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Bodies,
			run.Seed,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("frames: %d\n\n", len(frames))

	series := []struct {
		caption string
		data    []float64
	}{
		{"kinetic energy", analysis.EnergySeries(frames)},
		{"stable fraction", analysis.StableSeries(frames)},
		{"contact pairs", analysis.ContactSeries(frames)},
	}
	for _, s := range series {
		fmt.Println(asciigraph.Plot(s.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data")
	}

	rate := float64(config.DefaultTickRate)
	if meta.Config != nil {
		rate = float64(meta.Config.Sim.TickRate)
	}
	report := analysis.Analyze(frames, rate)

	fmt.Printf("analysis: %s\n\n", meta.ID)
	ps := analysis.PowerSpectrum(analysis.EnergySeries(frames))
	if len(ps) > 8 {
		fmt.Println(asciigraph.Plot(ps[1:len(ps)/4+1],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption("kinetic energy power spectrum"),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "duration\t%.2fs\n", report.Duration)
	fmt.Fprintf(w, "peak energy\t%.4g\n", report.PeakEnergy)
	fmt.Fprintf(w, "final energy\t%.4g\n", report.FinalEnergy)
	fmt.Fprintf(w, "mean stable\t%.1f%%\n", 100*report.MeanStable)
	fmt.Fprintf(w, "mean contacts\t%.2f\n", report.MeanContacts)
	fmt.Fprintf(w, "impacts\t%d\n", report.Impacts)
	if report.SettleTime >= 0 {
		fmt.Fprintf(w, "settled at\t%.2fs\n", report.SettleTime)
	} else {
		fmt.Fprintln(w, "settled at\tnever")
	}
	fmt.Fprintf(w, "dominant frequency\t%.3f hz\n", report.DominantHz)
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// loadResult rebuilds the parts of a result that a run directory keeps.
func loadResult(st *storage.Store, runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	bodies, err := st.LoadBodies(runID)
	if err != nil {
		return nil, nil, err
	}
	result := &dynamo.Result{
		Frames:  frames,
		Final:   dynamo.Snapshot{Bodies: bodies},
		Metrics: meta.Metrics,
		Ticks:   meta.Ticks,
		Elapsed: meta.Elapsed,
		Seed:    meta.Seed,
	}
	if n := len(frames); n > 0 {
		result.Final.Tick, result.Final.Time = frames[n-1].Tick, frames[n-1].Time
	}
	return meta, result, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadResult(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSONStdout(meta.Name, result)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	frames, err := storage.New(dataDir).LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteFrames(os.Stdout, frames)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, result, err := loadResult(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	arena := physics.Arena{
		Width:       config.DefaultWidth,
		Height:      config.DefaultHeight,
		TopInset:    config.DefaultTopInset,
		BottomInset: config.DefaultBottomInset,
	}
	if meta.Config != nil {
		arena = meta.Config.Arena
	}

	svg := export.SnapshotToSVG(result.Final, arena, export.DefaultSVGOptions())
	if svgOut == "" {
		_, err := fmt.Fprint(os.Stdout, svg)
		return err
	}
	return os.WriteFile(svgOut, []byte(svg), 0644)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
