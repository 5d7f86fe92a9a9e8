package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/logging"
)

func newBodiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bodies",
		Short: "Print the scenario's body tree with the derived per-tick rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, log := logging.WithRunLogger(cmd.Context(), a.log)
			scene, err := a.newScene(ctx, log)
			if err != nil {
				return err
			}
			return printBodies(cmd.OutOrStdout(), scene)
		},
	}
}

const msPerDay = 86_400_000.0

func printBodies(out io.Writer, scene *core.Scene) error {
	fmt.Fprintf(out, "time scale %s\n\n", scene.TimeScale())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BODY\tKIND\tRADIUS\tDISTANCE\tSPIN°/TICK\tORBIT°/TICK\tVERTICAL°/TICK\tMEAN ANOMALY°/DAY")

	var walk func(id core.BodyID, depth int) error
	walk = func(id core.BodyID, depth int) error {
		pose, err := scene.Pose(id)
		if err != nil {
			return err
		}
		rates, err := scene.Rates(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%.3f\t%.3f\t%.6g\t%.6g\t%.6g\t%.6g\n",
			strings.Repeat("  ", depth), pose.Name, pose.Kind,
			pose.Radius, pose.Distance,
			rates.RotationDegPerTick, rates.OrbitDegPerTick, rates.VerticalDegPerTick, rates.MeanAnomalyDegPerMs*msPerDay)

		children, err := scene.Children(id)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range scene.Roots() {
		if err := walk(root, 0); err != nil {
			return err
		}
	}
	return tw.Flush()
}
