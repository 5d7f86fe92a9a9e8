package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/logging"
	"github.com/signalsfoundry/orrery-simulator/internal/render/raster"
	"github.com/signalsfoundry/orrery-simulator/timectrl"
)

type snapshotOptions struct {
	ticks    int
	duration time.Duration
	out      string
	width    int
	height   int
	focus    string
	radius   float64
	labels   bool
}

func newSnapshotCmd(a *app) *cobra.Command {
	var opts snapshotOptions
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Advance the scene and write a top-down PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.snapshot(cmd.Context(), opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.out)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.ticks, "ticks", 0, "ticks to advance before drawing")
	f.DurationVar(&opts.duration, "duration", 0, "simulated time to advance before drawing, e.g. 720h")
	f.StringVarP(&opts.out, "out", "o", "orrery.png", "output file")
	f.IntVar(&opts.width, "width", 1024, "image width in pixels")
	f.IntVar(&opts.height, "height", 1024, "image height in pixels")
	f.StringVar(&opts.focus, "focus", "", "centre on this body instead of fitting the whole scene")
	f.Float64Var(&opts.radius, "radius", 0, "scene units shown around the focused body; 0 fits its children")
	f.BoolVar(&opts.labels, "labels", true, "label bodies")
	cmd.MarkFlagsMutuallyExclusive("ticks", "duration")
	return cmd
}

func (a *app) snapshot(ctx context.Context, opts snapshotOptions) error {
	if opts.ticks < 0 || opts.duration < 0 {
		return fmt.Errorf("%w: ticks and duration must not be negative", core.ErrInvalidConfiguration)
	}
	ctx, log := logging.WithRunLogger(ctx, a.log)

	canvas, err := raster.New(opts.width, opts.height, raster.WithLabels(opts.labels))
	if err != nil {
		return err
	}
	scene, err := a.newScene(ctx, log, core.WithRenderer(canvas))
	if err != nil {
		return err
	}

	if opts.ticks > 0 || opts.duration > 0 {
		ts := scene.TimeScale()
		clock := timectrl.NewTimeController(time.Now().UTC(), ts.FrameInterval(), timectrl.Accelerated)
		clock.SetStep(ts.SimDuration())
		clock.AddListener(func(ctx context.Context, _ time.Time) error {
			return scene.Tick(ctx)
		})
		run := func() error { return clock.Run(ctx, opts.ticks) }
		if opts.duration > 0 {
			run = func() error { return clock.RunFor(ctx, opts.duration) }
		}
		if err := run(); err != nil {
			return err
		}
	}

	view := canvas.FitView()
	if opts.focus != "" {
		if view, err = focusView(scene, canvas, opts.focus, opts.radius); err != nil {
			return err
		}
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := canvas.WritePNG(f, view); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	log.Info(ctx, "snapshot written",
		logging.String("path", opts.out),
		logging.Int64("ticks", scene.TickCount()),
		logging.String("focus", opts.focus),
	)
	return nil
}

// focusView centres on the named body. With no radius given it frames the
// body's children, or four body radii when it has none.
func focusView(scene *core.Scene, canvas *raster.Canvas, name string, radius float64) (raster.View, error) {
	id, err := scene.Lookup(name)
	if err != nil {
		return raster.View{}, err
	}
	pose, err := scene.Pose(id)
	if err != nil {
		return raster.View{}, err
	}
	if radius <= 0 {
		radius = 4 * pose.Radius
		children, err := scene.Children(id)
		if err != nil {
			return raster.View{}, err
		}
		for _, c := range children {
			cp, err := scene.Pose(c)
			if err != nil {
				return raster.View{}, err
			}
			dx, dy := cp.Position.X-pose.Position.X, cp.Position.Y-pose.Position.Y
			radius = math.Max(radius, 1.1*(math.Hypot(dx, dy)+cp.Radius))
		}
	}
	center := core.Vec3{X: pose.Position.X, Y: pose.Position.Y, Z: pose.Position.Z}
	return canvas.FocusView(center, radius), nil
}
