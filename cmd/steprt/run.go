package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"steprt/internal/asyncrt"
	"steprt/internal/config"
	"steprt/internal/host"
	"steprt/internal/observ"
	"steprt/internal/offload"
	"steprt/internal/scenario"
	"steprt/internal/trace"
	"steprt/internal/ui"
)

type runOptions struct {
	scenario   string
	mode       string
	uiMode     string
	record     string
	replay     string
	fps        int
	frames     int
	tasks      int
	workers    int
	pollBudget int
	maxDelta   time.Duration
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run a scenario under the host loop",
		Long: `Run spawns a scenario's tasks and steps the runtime once per frame until
every task has finished or the frame limit is reached.

In virtual mode frames advance the clock by a fixed 1/fps without sleeping;
in real mode the loop sleeps to each frame boundary and feeds measured deltas.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScenario,
	}
	cmd.Flags().Int("fps", 0, "frames per second (default from config)")
	cmd.Flags().Int("frames", 0, "maximum number of frames (default from config)")
	cmd.Flags().Bool("real", false, "pace frames with the wall clock")
	cmd.Flags().Int("tasks", 0, "workload size (default from config)")
	cmd.Flags().Int("workers", 0, "offload pool size (default from config)")
	cmd.Flags().Int("poll-budget", -1, "maximum polls per step, 0 for unlimited (default from config)")
	cmd.Flags().Duration("max-delta", 0, "clamp per-frame deltas (default from config)")
	cmd.Flags().String("record", "", "save frame deltas to this file")
	cmd.Flags().String("replay", "", "replay frame deltas from a recording")
	cmd.Flags().String("ui", "auto", "terminal UI (auto|on|off)")
	return cmd
}

// resolveRunOptions layers flags over the loaded config.
func resolveRunOptions(cmd *cobra.Command, cfg config.Config, args []string) (runOptions, error) {
	opts := runOptions{
		scenario:   cfg.Run.Scenario,
		mode:       cfg.Loop.Mode,
		tasks:      config.Int(cfg.Run.Tasks),
		workers:    config.Int(cfg.Run.Workers),
		frames:     config.Int(cfg.Loop.Frames),
		pollBudget: config.Int(cfg.Loop.PollBudget),
		maxDelta:   cfg.Loop.MaxDelta,
	}
	fps, err := cfg.FPS()
	if err != nil {
		return opts, err
	}
	opts.fps = fps
	if len(args) > 0 {
		opts.scenario = args[0]
	}

	f := cmd.Flags()
	intFlags := []struct {
		name string
		dst  *int
	}{
		{"fps", &opts.fps},
		{"frames", &opts.frames},
		{"tasks", &opts.tasks},
		{"workers", &opts.workers},
		{"poll-budget", &opts.pollBudget},
	}
	for _, fl := range intFlags {
		if !f.Changed(fl.name) {
			continue
		}
		v, err := f.GetInt(fl.name)
		if err != nil {
			return opts, err
		}
		if v < 0 {
			return opts, fmt.Errorf("--%s must not be negative", fl.name)
		}
		*fl.dst = v
	}
	if f.Changed("max-delta") {
		if opts.maxDelta, err = f.GetDuration("max-delta"); err != nil {
			return opts, err
		}
	}
	if useReal, _ := f.GetBool("real"); useReal {
		opts.mode = "real"
	}
	if opts.record, err = f.GetString("record"); err != nil {
		return opts, err
	}
	if opts.replay, err = f.GetString("replay"); err != nil {
		return opts, err
	}
	if opts.uiMode, err = f.GetString("ui"); err != nil {
		return opts, err
	}
	switch opts.uiMode {
	case "auto", "on", "off":
	default:
		return opts, fmt.Errorf("invalid --ui %q (expected auto|on|off)", opts.uiMode)
	}
	if opts.replay != "" && opts.uiMode == "on" {
		return opts, errors.New("--replay cannot be combined with --ui on")
	}
	return opts, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	lc := configFrom(cmd)
	opts, err := resolveRunOptions(cmd, lc.Config, args)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	timer := observ.NewTimer()
	setupPhase := timer.Begin("setup")

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	cleanup, err := setupTracing(cmd, lc.Config.Trace)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	heartbeat := trace.HeartbeatFrom(ctx)
	observe := func(f host.Frame) { heartbeat.Observe(f.Stats.Step) }
	if lc.Path != "" {
		trace.Point(tracer, trace.ScopeHost, "config.load", lc.Path)
	}

	var replay *host.Recording
	if opts.replay != "" {
		if replay, err = host.LoadRecording(opts.replay); err != nil {
			return err
		}
		if len(args) == 0 && replay.Scenario != "" {
			opts.scenario = replay.Scenario
		}
	}

	rt := asyncrt.New(asyncrt.Config{Tracer: tracer, PollBudget: opts.pollBudget})
	defer rt.Close()
	pool := offload.NewPool(ctx, opts.workers, tracer)

	sc, err := scenario.Lookup(opts.scenario)
	if err != nil {
		return err
	}
	run, err := scenario.Start(sc.Name, scenario.Env{Runtime: rt, Pool: pool, Tasks: opts.tasks})
	if err != nil {
		return err
	}

	interval, err := host.FrameInterval(opts.fps)
	if err != nil {
		return err
	}
	var rec *host.Recording
	if opts.record != "" {
		rec = host.NewRecording(opts.scenario, opts.fps)
	}

	timer.End(setupPhase, opts.scenario)
	loopPhase := timer.Begin("loop")

	var res host.Result
	if useUI(opts, quiet) {
		res, err = ui.Run(ctx, cmd.OutOrStdout(), ui.Options{
			Runtime:  rt,
			Run:      run,
			Record:   rec,
			Title:    "steprt " + opts.scenario,
			Interval: interval,
			MaxDelta: opts.maxDelta,
			Frames:   opts.frames,
			OnFrame:  observe,
		})
	} else {
		loop := &host.Loop{
			Runtime:  rt,
			Clock:    newClock(opts, interval, replay, sc.NeedsPool),
			Tracer:   tracer,
			Until:    run.Done,
			OnFrame:  observe,
			Record:   rec,
			MaxDelta: opts.maxDelta,
			Frames:   opts.frames,
		}
		res, err = loop.Run(ctx)
	}
	if err != nil {
		return err
	}
	timer.End(loopPhase, fmt.Sprintf("%d frames", res.Frames))
	shutdownPhase := timer.Begin("shutdown")

	sum := summary{
		Scenario:  opts.scenario,
		Mode:      modeLabel(opts, replay),
		Result:    res,
		Snapshot:  rt.Snapshot(),
		Completed: run.Completed(),
		Total:     run.Total(),
		Recorded:  opts.record,
	}
	finished := run.Done()
	runErr := run.Err()
	rt.Close()
	poolErr := pool.Wait()

	if rec != nil {
		if err := rec.Save(opts.record); err != nil {
			return fmt.Errorf("save recording: %w", err)
		}
	}
	if runErr != nil {
		sum.Failed = len(unjoin(runErr))
	}
	timer.End(shutdownPhase, "")
	if !quiet {
		printSummary(cmd.OutOrStdout(), sum)
	}
	if timings {
		fmt.Fprint(cmd.OutOrStdout(), timer.Summary())
	}

	if !finished {
		return fmt.Errorf("%s: stopped by %s with %d/%d tasks done", opts.scenario, res.Reason, sum.Completed, sum.Total)
	}
	// a pool error is the same job failure the scenario already reported
	if runErr != nil {
		return runErr
	}
	return poolErr
}

func newClock(opts runOptions, interval time.Duration, replay *host.Recording, offThread bool) host.Clock {
	switch {
	case replay != nil:
		return host.NewReplayClock(replay)
	case opts.mode == "real":
		return &host.RealClock{Interval: interval}
	case offThread:
		return &host.VirtualClock{Delta: interval, Pace: interval}
	default:
		return &host.VirtualClock{Delta: interval}
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func useUI(opts runOptions, quiet bool) bool {
	switch opts.uiMode {
	case "on":
		return true
	case "off":
		return false
	}
	// virtual runs finish before a UI could draw a frame
	return !quiet && opts.replay == "" && opts.mode == "real" && isTerminal(os.Stdout)
}

func modeLabel(opts runOptions, replay *host.Recording) string {
	if replay != nil {
		return "replay " + opts.replay
	}
	return strings.ToLower(opts.mode)
}
