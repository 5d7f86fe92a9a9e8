package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/logging"
	"github.com/signalsfoundry/orrery-simulator/internal/observability"
	"github.com/signalsfoundry/orrery-simulator/internal/render/terminal"
	"github.com/signalsfoundry/orrery-simulator/kb"
	"github.com/signalsfoundry/orrery-simulator/timectrl"
)

type runOptions struct {
	headless bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation in the terminal, or headless",
		Long: `run advances the scene on a tick clock and draws it in the terminal.

Keys: arrows edit the time amplifier (enter commits), a/d switch
siblings, w/s move into and out of the selected child, q/e pick the
child, c/z zoom, f toggles the free camera, space pauses, esc quits.

With --headless nothing is drawn; combine with --ticks and
--clock-mode accelerated for batch runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.headless, "headless", false, "tick without drawing")
	f.Int("ticks", 0, "stop after this many ticks; 0 runs until interrupted")
	f.Duration("duration", 0, "stop once this much simulated time has passed, e.g. 8760h")
	f.String("clock-mode", "realtime", "realtime or accelerated")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	_ = a.v.BindPFlag("clock.ticks", f.Lookup("ticks"))
	_ = a.v.BindPFlag("clock.duration", f.Lookup("duration"))
	_ = a.v.BindPFlag("clock.mode", f.Lookup("clock-mode"))
	_ = a.v.BindPFlag("metrics.addr", f.Lookup("metrics-addr"))
	return cmd
}

func (a *app) run(ctx context.Context, opts runOptions) error {
	base := a.log
	if !opts.headless && a.cfg.Log.File == "" {
		// The terminal belongs to the UI.
		base = logging.Noop()
	}
	ctx, log := logging.WithRunLogger(ctx, base)

	shutdownTracing, err := observability.InitTracing(ctx, a.cfg.TracingSettings(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewSimCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	mode, err := a.cfg.ClockMode()
	if err != nil {
		return err
	}

	poses := kb.NewKnowledgeBase()
	sceneOpts := []core.SceneOption{
		core.WithMetrics(collector),
		core.WithPublisher(poses),
	}
	var renderer *terminal.Renderer
	if !opts.headless {
		renderer = terminal.NewRenderer()
		sceneOpts = append(sceneOpts, core.WithRenderer(renderer))
	}
	scene, err := a.newScene(ctx, log, sceneOpts...)
	if err != nil {
		return err
	}

	ts := scene.TimeScale()
	start := scene.Config().Epoch
	if start.IsZero() {
		start = time.Now().UTC()
	}
	clock := timectrl.NewTimeController(start, ts.FrameInterval(), mode)
	clock.SetStep(ts.SimDuration())
	clock.AddListener(func(ctx context.Context, _ time.Time) error {
		return scene.Tick(ctx)
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metricsDone := make(chan error, 1)
	if addr := a.cfg.Metrics.Addr; addr != "" {
		go func() {
			err := observability.ServeMetrics(ctx, addr, collector.Handler(), log)
			if err != nil {
				cancel()
			}
			metricsDone <- err
		}()
	} else {
		metricsDone <- nil
	}

	log.Info(ctx, "simulation starting",
		logging.String("scenario", a.cfg.Scenario),
		logging.Int("bodies", scene.Len()),
		logging.String("clock_mode", mode.String()),
		logging.String("time_scale", ts.String()),
		logging.Int("ticks", a.cfg.Clock.Ticks),
		logging.Duration("duration", a.cfg.Clock.Duration),
	)

	if opts.headless {
		err = a.drive(ctx, clock)
	} else {
		err = a.runUI(ctx, scene, renderer, poses, clock)
	}
	cancel()
	if merr := <-metricsDone; merr != nil && (err == nil || stopped(err)) {
		err = merr
	}

	if stopped(err) {
		err = nil
	}
	if err != nil {
		log.Error(ctx, "simulation stopped", logging.Err(err), logging.Int64("ticks", scene.TickCount()))
		return err
	}
	log.Info(ctx, "simulation finished", logging.Int64("ticks", scene.TickCount()))
	return nil
}

// runUI drives the clock in the background while the UI owns the terminal.
// The UI returning ends the run, and so does a failed tick.
func (a *app) runUI(ctx context.Context, scene *core.Scene, r *terminal.Renderer, poses *kb.KnowledgeBase, clock *timectrl.TimeController) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer screen.Fini()

	ui, err := terminal.NewUI(screen, scene, r, logging.FromContext(ctx),
		terminal.WithPoses(poses),
		terminal.WithClock(clock),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clockDone := make(chan error, 1)
	go func() {
		err := a.drive(ctx, clock)
		if err != nil && !stopped(err) {
			cancel()
		}
		clockDone <- err
	}()

	uiErr := ui.Run(ctx)
	cancel()
	clockErr := <-clockDone
	if uiErr != nil {
		return uiErr
	}
	if stopped(clockErr) {
		return nil
	}
	return clockErr
}

// drive runs the clock to the configured tick count or simulated duration.
func (a *app) drive(ctx context.Context, clock *timectrl.TimeController) error {
	if d := a.cfg.Clock.Duration; d > 0 {
		return clock.RunFor(ctx, d)
	}
	return clock.Run(ctx, a.cfg.Clock.Ticks)
}

// stopped reports whether err only says the run was interrupted.
func stopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
