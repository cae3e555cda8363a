package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/experiment"
	"github.com/san-kum/pidlab/internal/fopdt"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/report"
	"github.com/san-kum/pidlab/internal/storage"
	"github.com/san-kum/pidlab/internal/tuning"
	"github.com/san-kum/pidlab/internal/viz"
)

var (
	dataDir    string
	num        []float64
	den        []float64
	method     string
	ctrlType   string
	integrator string
	reference  float64
	horizon    float64
	dt         float64
	tolerance  float64
	uMin       float64
	uMax       float64
	limitU     bool
	kp         float64
	ti         float64
	td         float64
	configFile string
	preset     string
	outFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pidlab",
		Short: "PID tuning lab: identify, tune, simulate, evaluate",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pidlab", "data directory")

	plantFlags := func(cmd *cobra.Command) {
		cmd.Flags().Float64SliceVar(&num, "num", []float64{1}, "numerator coefficients, highest power first")
		cmd.Flags().Float64SliceVar(&den, "den", []float64{20, 12, 1}, "denominator coefficients, highest power first")
		cmd.Flags().StringVar(&configFile, "config", "", "study config file (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "", "use a preset study")
	}
	loopFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4)")
		cmd.Flags().Float64Var(&reference, "ref", 1.0, "setpoint")
		cmd.Flags().Float64Var(&horizon, "time", 60.0, "simulation horizon (s)")
		cmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep (s)")
		cmd.Flags().Float64Var(&tolerance, "tolerance", 0.02, "settling band as a fraction of the setpoint")
		cmd.Flags().Float64Var(&uMin, "umin", 0, "actuator lower limit")
		cmd.Flags().Float64Var(&uMax, "umax", 0, "actuator upper limit")
		cmd.Flags().BoolVar(&limitU, "limit", false, "enable actuator limits")
	}

	identifyCmd := &cobra.Command{
		Use:   "identify",
		Short: "fit a first-order-plus-dead-time model to the plant",
		RunE:  runIdentify,
	}
	plantFlags(identifyCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "compute controller gains for the plant",
		RunE:  runTune,
	}
	plantFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&method, "method", "zn", "tuning method (zn, zn-oscillation, cc-iae, cc-ise, cc-itae)")
	tuneCmd.Flags().StringVar(&ctrlType, "type", "pid", "controller type (p, pi, pid)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the full identify-tune-simulate-evaluate study and store it",
		RunE:  runStudy,
	}
	plantFlags(runCmd)
	loopFlags(runCmd)
	runCmd.Flags().StringVar(&method, "method", "zn", "tuning method")
	runCmd.Flags().StringVar(&ctrlType, "type", "pid", "controller type")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "simulate the closed loop with explicit gains",
		RunE:  runSimulate,
	}
	plantFlags(simulateCmd)
	loopFlags(simulateCmd)
	simulateCmd.Flags().Float64Var(&kp, "kp", 1.0, "proportional gain")
	simulateCmd.Flags().Float64Var(&ti, "ti", math.Inf(1), "integral time (s)")
	simulateCmd.Flags().Float64Var(&td, "td", 0, "derivative time (s)")

	compareCmd := &cobra.Command{
		Use:   "compare [method1] [method2] ...",
		Short: "tune with several methods and compare the loops",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCompare,
	}
	plantFlags(compareCmd)
	loopFlags(compareCmd)
	compareCmd.Flags().StringVar(&ctrlType, "type", "pid", "controller type")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	reportCmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "render a stored run as a PDF report",
		Args:  cobra.ExactArgs(1),
		RunE:  renderReport,
	}
	reportCmd.Flags().StringVar(&outFile, "out", "report.pdf", "output path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "tune the plant and watch the closed loop live",
		RunE:  runLive,
	}
	plantFlags(liveCmd)
	loopFlags(liveCmd)
	liveCmd.Flags().StringVar(&method, "method", "zn", "tuning method")
	liveCmd.Flags().StringVar(&ctrlType, "type", "pid", "controller type")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available preset studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-14s %s, %s controller, num=%v den=%v\n",
					name, cfg.Method, cfg.Controller, cfg.Plant.Num, cfg.Plant.Den)
			}
			return nil
		},
	}

	rootCmd.AddCommand(identifyCmd, tuneCmd, runCmd, simulateCmd, compareCmd,
		listCmd, plotCmd, exportCSVCmd, exportJSONCmd, reportCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig merges preset, config file and flags into one study
// description. Flags changed on the command line win.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		*cfg = *p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		*cfg = *loaded
	}

	apply := func(name string, fn func()) {
		if cmd.Flags().Changed(name) {
			fn()
		}
	}
	apply("num", func() { cfg.Plant.Num = num })
	apply("den", func() { cfg.Plant.Den = den })
	apply("method", func() { cfg.Method = method })
	apply("type", func() { cfg.Controller = ctrlType })
	apply("integrator", func() { cfg.Integrator = integrator })
	apply("ref", func() { cfg.Reference = reference })
	apply("time", func() { cfg.Horizon = horizon })
	apply("dt", func() { cfg.Dt = dt })
	apply("tolerance", func() { cfg.Tolerance = tolerance })
	apply("limit", func() { cfg.Limits.Enabled = limitU })
	apply("umin", func() { cfg.Limits.Min = uMin })
	apply("umax", func() { cfg.Limits.Max = uMax })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildStudy(cmd *cobra.Command) (*plant.Model, *config.Config, experiment.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, experiment.Config{}, err
	}

	pm, err := plant.New(cfg.Plant.Num, cfg.Plant.Den)
	if err != nil {
		return nil, nil, experiment.Config{}, err
	}

	registry := experiment.NewRegistry()
	strategy, err := registry.Strategy(cfg.Method, pm)
	if err != nil {
		return nil, nil, experiment.Config{}, err
	}
	ct, err := registry.ControllerType(cfg.Controller)
	if err != nil {
		return nil, nil, experiment.Config{}, err
	}
	integ, err := registry.Integrator(cfg.Integrator)
	if err != nil {
		return nil, nil, experiment.Config{}, err
	}

	ecfg := experiment.Config{
		Strategy:   strategy,
		Controller: ct,
		Integrator: integ,
		Reference:  cfg.Reference,
		Horizon:    cfg.Horizon,
		Dt:         cfg.Dt,
		Tolerance:  cfg.Tolerance,
	}
	if cfg.Limits.Enabled {
		ecfg.Limits = &control.Limits{UMin: cfg.Limits.Min, UMax: cfg.Limits.Max}
	}
	return pm, cfg, ecfg, nil
}

func runIdentify(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	pm, err := plant.New(cfg.Plant.Num, cfg.Plant.Den)
	if err != nil {
		return err
	}

	model, err := fopdt.FromModel(pm)
	if err != nil {
		return err
	}

	fmt.Printf("identified model: %s\n", model)
	fmt.Printf("  gain K:          %.6g\n", model.K)
	fmt.Printf("  dead time L:     %.6g s\n", model.L)
	fmt.Printf("  time constant T: %.6g s\n", model.T)
	fmt.Printf("  ratio L/T:       %.4f\n", model.Ratio())
	if model.Degraded {
		fmt.Println("  warning: degraded fit, response faster than sampling")
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	pm, cfg, ecfg, err := buildStudy(cmd)
	if err != nil {
		return err
	}

	model, err := fopdt.FromModel(pm)
	if err != nil {
		return err
	}
	gains, err := tuning.Tune(ecfg.Strategy, model, ecfg.Controller)
	if err != nil {
		return err
	}

	fmt.Printf("method: %s, controller: %s\n", cfg.Method, cfg.Controller)
	printGains(gains)
	return nil
}

func printGains(g control.Gains) {
	fmt.Printf("  Kp = %.6g\n", g.Kp)
	if math.IsInf(g.Ti, 1) {
		fmt.Println("  Ti = (no integral action)")
	} else {
		fmt.Printf("  Ti = %.6g s\n", g.Ti)
	}
	fmt.Printf("  Td = %.6g s\n", g.Td)
}

func runStudy(cmd *cobra.Command, args []string) error {
	pm, cfg, ecfg, err := buildStudy(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s study...\n", cfg.Method)
	start := time.Now()
	res, err := experiment.New(pm, ecfg).Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Method:     cfg.Method,
		Controller: cfg.Controller,
		Integrator: cfg.Integrator,
		Reference:  cfg.Reference,
		Horizon:    cfg.Horizon,
		Dt:         cfg.Dt,
		Identified: res.Identified,
		Gains:      storage.RecordGains(res.Gains),
		Metrics:    res.Metrics,
	}, res.Trajectory)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n\n", runID)
	fmt.Printf("identified: %s\n", res.Identified)
	printGains(res.Gains)
	fmt.Println()
	printMetrics(res.Metrics, res.Effort)
	return nil
}

func printMetrics(m metrics.Result, e metrics.Effort) {
	fmt.Println("metrics:")
	fmt.Printf("  settling time:      %.4g s\n", m.SettlingTime)
	fmt.Printf("  overshoot:          %.2f %%\n", m.OvershootPercent)
	fmt.Printf("  rise time:          %.4g s\n", m.RiseTime)
	fmt.Printf("  steady-state error: %.4g (%.2f %%)\n", m.SteadyStateError, m.SteadyStateErrorPercent)
	fmt.Printf("  control energy:     %.4g\n", e.Energy)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	pm, cfg, ecfg, err := buildStudy(cmd)
	if err != nil {
		return err
	}

	ct := control.TypePID
	if math.IsInf(ti, 1) && td == 0 {
		ct = control.TypeP
	} else if td == 0 {
		ct = control.TypePI
	}
	gains := control.Gains{Kp: kp, Ti: ti, Td: td, Type: ct}
	if err := gains.Validate(); err != nil {
		return err
	}

	study := experiment.New(pm, ecfg)
	open, closed, err := study.OpenVsClosed(gains)
	if err != nil {
		return err
	}

	fmt.Println(asciigraph.Plot(open.Output,
		asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("open loop")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(closed.Output,
		asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("closed loop")))

	m, err := metrics.Calculate(closed.Time, closed.Output, cfg.Reference, cfg.Tolerance)
	if err != nil {
		return err
	}
	e, err := metrics.ControlEffort(closed.Time, closed.Control)
	if err != nil {
		return err
	}
	fmt.Println()
	printMetrics(m, e)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	pm, _, ecfg, err := buildStudy(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	candidates := make([]experiment.Candidate, 0, len(args))
	for _, name := range args {
		strategy, err := registry.Strategy(name, pm)
		if err != nil {
			return err
		}
		candidates = append(candidates, experiment.Candidate{Name: name, Strategy: strategy})
	}

	out, err := experiment.Compare(pm, candidates, ecfg.Controller, ecfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tKP\tTI\tTD\tSETTLING\tOVERSHOOT\tSS ERROR")
	for _, c := range out {
		tiStr := "-"
		if !math.IsInf(c.Gains.Ti, 1) {
			tiStr = fmt.Sprintf("%.4g", c.Gains.Ti)
		}
		fmt.Fprintf(w, "%s\t%.4g\t%s\t%.4g\t%.4gs\t%.2f%%\t%.4g\n",
			c.Name, c.Gains.Kp, tiStr, c.Gains.Td,
			c.Metrics.SettlingTime, c.Metrics.OvershootPercent, c.Metrics.SteadyStateError)
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
	fmt.Fprintln(w, "ID\tTIME\tMETHOD\tCTRL\tSETTLING\tOVERSHOOT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4gs\t%.2f%%\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Controller,
			run.Metrics.SettlingTime,
			run.Metrics.OvershootPercent,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%s, %s)\n\n", meta.ID, meta.Method, meta.Controller)
	fmt.Println(asciigraph.Plot(traj.Output,
		asciigraph.Height(12), asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("output (reference %.3g)", meta.Reference))))
	if traj.Control != nil {
		fmt.Println()
		fmt.Println(asciigraph.Plot(traj.Control,
			asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("control")))
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.WriteTrajectoryCSV(os.Stdout, traj)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Meta    *storage.RunMetadata `json:"meta"`
		Time    []float64            `json:"time"`
		Output  []float64            `json:"output"`
		Control []float64            `json:"control,omitempty"`
	}{meta, traj.Time, traj.Output, traj.Control})
}

func renderReport(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	traj.Reference = meta.Reference

	plots := map[string][]byte{}
	response, err := report.ResponsePNG("Closed-Loop Step Response", meta.Reference, 0.02,
		[]report.Series{{Name: meta.Method, Trajectory: traj}})
	if err != nil {
		return err
	}
	plots["response"] = response
	if traj.Control != nil {
		ctrlImg, err := report.ControlPNG("Control Signal", traj)
		if err != nil {
			return err
		}
		plots["control"] = ctrlImg
	}

	kpv, tiv, tdv, err := meta.Gains.Gains()
	if err != nil {
		return err
	}

	err = report.WritePDF(outFile, report.Data{
		Title:      fmt.Sprintf("PID Tuning Report: %s", meta.ID),
		Method:     meta.Method,
		Controller: meta.Controller,
		Identified: meta.Identified,
		Gains:      control.Gains{Kp: kpv, Ti: tiv, Td: tdv},
		Metrics:    meta.Metrics,
		Plots:      plots,
	})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	pm, cfg, ecfg, err := buildStudy(cmd)
	if err != nil {
		return err
	}

	model, err := fopdt.FromModel(pm)
	if err != nil {
		return err
	}
	gains, err := tuning.Tune(ecfg.Strategy, model, ecfg.Controller)
	if err != nil {
		return err
	}

	return viz.Run(pm, gains, cfg.Reference, cfg.Dt, cfg.Tolerance, ecfg.Integrator)
}
