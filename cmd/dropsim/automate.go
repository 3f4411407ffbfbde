package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/dropsim/internal/automation"
	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/experiment"
	"github.com/san-kum/dropsim/internal/optim"
	"github.com/san-kum/dropsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	tuneParams []string
	tuneMetric string
)

func automationCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario of headless steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one physics parameter and summarise each run",
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "gravity", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 500, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 3000, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 6, "number of values")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search physics parameters against a metric",
		RunE:  runTune,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "settle_time", "metric to minimise")

	return []*cobra.Command{scenarioCmd, sweepCmd, tuneCmd}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunScenario(ctx, sc, st, log.Default())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tTICKS\tBODIES\tSTABLE\tRUN ID")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0f%%\t%s\n", r.Name, r.Result.Ticks, r.Result.Final.Len(),
			100*r.Result.Final.StableFraction(), r.RunID)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(context.Background(), sweep, log.Default())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK ENERGY\tSETTLE\tSTABLE\tIMPACTS\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		settle := "never"
		if r.SettleTime >= 0 {
			settle = fmt.Sprintf("%.2fs", r.SettleTime)
		}
		fmt.Fprintf(w, "%.4g\t%.1f\t%s\t%.0f%%\t%d\n", r.ParamValue, r.PeakEnergy, settle, 100*r.FinalStable, r.Impacts)
	}
	return w.Flush()
}

// parseGrid reads name=v1,v2,... flags into parallel name and value slices.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2: %w", spec, dynamo.ErrInvalidConfig)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		tuneParams = []string{"gravity=1000,2000,3000", "base_restitution=0.002,0.05,0.2"}
	}
	names, ranges, err := parseGrid(tuneParams)
	if err != nil {
		return err
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := *cfg
		for k, v := range params {
			if err := c.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		return experiment.New("tune", &c), nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, value, trials, err := optim.NewGridSearch(names, ranges).Search(ctx, build, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for _, t := range trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(t.Params[n], 'g', 4, 64)
		}
		result := fmt.Sprintf("%.4f", t.Value)
		if t.Err != nil {
			result = "error: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), result)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no trial produced a usable %s", tuneMetric)
	}
	fmt.Printf("\nbest %s = %.4f at %v\n", tuneMetric, value, best)
	return nil
}
