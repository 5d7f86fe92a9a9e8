package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery-simulator/catalog"
	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/config"
	"github.com/signalsfoundry/orrery-simulator/internal/logging"
	"github.com/signalsfoundry/orrery-simulator/model"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg     config.Config
	log     logging.Logger
	logFile *os.File
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	d := core.DefaultSceneConfig()

	root := &cobra.Command{
		Use:   "orrery",
		Short: "Simulate a hierarchy of orbiting bodies",
		Long: `orrery advances stars, planets, moons and satellites frame by frame,
propagating every parent's motion down to its children.

Scenarios are either built in (see "orrery scenarios") or read from a
YAML, TOML or JSON file. Every setting can also come from a config file
or an ORRERY_* environment variable, e.g. ORRERY_SIM_TIME_AMPLIFIER.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.String("scenario", "solar-system", "built-in scenario name or path to a scenario file")
	pf.Int("ms-per-tick", d.MsPerTick, "real milliseconds per tick")
	pf.Float64("amplifier", d.TimeAmplifier, "simulated milliseconds per real millisecond")
	pf.Float64("pixels-per-au", d.PixelsPerAU, "scene units per astronomical unit")
	pf.Float64("size-scale", d.SizeScale, "kilometres of diameter per scene unit")
	pf.String("kepler-mode", d.KeplerMode.String(), "kepler anomaly chain: standard or legacy")
	pf.String("epoch", "", "RFC 3339 start time; empty starts at J2000 and TLE epochs")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "text", "text or json")
	pf.String("log-file", "", "write logs to this file instead of stderr")

	for key, flag := range map[string]string{
		"scenario":           "scenario",
		"sim.ms_per_tick":    "ms-per-tick",
		"sim.time_amplifier": "amplifier",
		"sim.pixels_per_au":  "pixels-per-au",
		"sim.size_scale":     "size-scale",
		"sim.kepler_mode":    "kepler-mode",
		"sim.epoch":          "epoch",
		"log.level":          "log-level",
		"log.format":         "log-format",
		"log.file":           "log-file",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newRunCmd(a),
		newSnapshotCmd(a),
		newBodiesCmd(a),
		newScenariosCmd(),
	)
	return root
}

func (a *app) load(stderr io.Writer) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	lc := cfg.Logging()
	lc.Output = stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		lc.Output = f
	}
	a.log = logging.New(lc)
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// scenario resolves the configured scenario: a catalog name first, then a
// file path.
func (a *app) scenario() (model.Scenario, error) {
	sc, err := catalog.Lookup(a.cfg.Scenario)
	if err == nil {
		return sc, nil
	}
	if !errors.Is(err, catalog.ErrUnknownScenario) {
		return model.Scenario{}, err
	}
	if _, statErr := os.Stat(a.cfg.Scenario); statErr != nil {
		return model.Scenario{}, fmt.Errorf("%w; built-in scenarios are %v", err, catalog.Names())
	}
	return core.LoadScenarioFile(a.cfg.Scenario)
}

// newScene builds a scene from the loaded config and scenario.
func (a *app) newScene(ctx context.Context, log logging.Logger, opts ...core.SceneOption) (*core.Scene, error) {
	sceneCfg, err := a.cfg.SceneConfig()
	if err != nil {
		return nil, err
	}
	sc, err := a.scenario()
	if err != nil {
		return nil, err
	}
	scene, err := core.NewScene(sceneCfg, log, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := scene.AddScenario(sc); err != nil {
		return nil, err
	}
	log.Debug(ctx, "scene ready",
		logging.String("scenario", sc.Name),
		logging.Int("bodies", scene.Len()),
		logging.String("time_scale", scene.TimeScale().String()),
	)
	return scene, nil
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range catalog.Names() {
				sc, _ := catalog.Lookup(name)
				sum := core.Summarize(sc)
				fmt.Fprintf(out, "%-14s %2d bodies  %v\n", name, sum.Bodies, sum.KindNames())
			}
			return nil
		},
	}
}
