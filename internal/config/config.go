// Package config assembles the simulator's settings from defaults, an
// optional config file, ORRERY_* environment variables and command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/internal/logging"
	"github.com/signalsfoundry/orrery-simulator/internal/observability"
	"github.com/signalsfoundry/orrery-simulator/timectrl"
)

// EnvPrefix is prepended to every environment override, e.g.
// ORRERY_SIM_TIME_AMPLIFIER.
const EnvPrefix = "ORRERY"

// Config is the full runtime configuration.
type Config struct {
	Scenario string        `mapstructure:"scenario"`
	Sim      SimConfig     `mapstructure:"sim"`
	Clock    ClockConfig   `mapstructure:"clock"`
	Log      LogConfig     `mapstructure:"log"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Tracing  TracingConfig `mapstructure:"tracing"`
}

// SimConfig mirrors core.SceneConfig in file-friendly units.
type SimConfig struct {
	MsPerTick       int     `mapstructure:"ms_per_tick"`
	TimeAmplifier   float64 `mapstructure:"time_amplifier"`
	PixelsPerAU     float64 `mapstructure:"pixels_per_au"`
	SizeScale       float64 `mapstructure:"size_scale"`
	OrbitDotDensity float64 `mapstructure:"orbit_dot_density"`
	KeplerMode      string  `mapstructure:"kepler_mode"`
	PathTolerance   float64 `mapstructure:"path_tolerance"`
	// Epoch is an RFC 3339 start time. Empty starts at each model's own epoch.
	Epoch string `mapstructure:"epoch"`
}

// ClockConfig controls the tick driver.
type ClockConfig struct {
	Mode string `mapstructure:"mode"`
	// Ticks stops the run after this many ticks. Zero runs until cancelled.
	Ticks int `mapstructure:"ticks"`
	// Duration stops the run once this much simulated time has passed.
	// It excludes Ticks.
	Duration time.Duration `mapstructure:"duration"`
}

// LogConfig controls the slog handler. File, when set, receives the log
// instead of stderr.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
	File      string `mapstructure:"file"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// New returns a viper instance carrying every default and wired to the
// ORRERY_ environment.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	d := core.DefaultSceneConfig()
	v.SetDefault("scenario", "solar-system")
	v.SetDefault("sim.ms_per_tick", d.MsPerTick)
	v.SetDefault("sim.time_amplifier", d.TimeAmplifier)
	v.SetDefault("sim.pixels_per_au", d.PixelsPerAU)
	v.SetDefault("sim.size_scale", d.SizeScale)
	v.SetDefault("sim.orbit_dot_density", d.OrbitDotDensity)
	v.SetDefault("sim.kepler_mode", d.KeplerMode.String())
	v.SetDefault("sim.path_tolerance", d.PathTolerance)
	v.SetDefault("sim.epoch", "")
	v.SetDefault("clock.mode", timectrl.RealTime.String())
	v.SetDefault("clock.ticks", 0)
	v.SetDefault("clock.duration", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "orrery")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load reads path, when non-empty, into v and decodes the result.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.SceneConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ClockMode(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", core.ErrInvalidConfiguration, err))
	}
	if c.Clock.Ticks < 0 {
		errs = append(errs, fmt.Errorf("%w: clock.ticks must not be negative", core.ErrInvalidConfiguration))
	}
	if c.Clock.Duration < 0 {
		errs = append(errs, fmt.Errorf("%w: clock.duration must not be negative", core.ErrInvalidConfiguration))
	}
	if c.Clock.Ticks > 0 && c.Clock.Duration > 0 {
		errs = append(errs, fmt.Errorf("%w: clock.ticks and clock.duration are exclusive", core.ErrInvalidConfiguration))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: tracing.sample_ratio %v outside [0, 1]", core.ErrInvalidConfiguration, c.Tracing.SampleRatio))
	}
	return errors.Join(errs...)
}

// SceneConfig converts the sim section into a validated core.SceneConfig.
func (c Config) SceneConfig() (core.SceneConfig, error) {
	mode, err := core.ParseKeplerMode(strings.ToLower(c.Sim.KeplerMode))
	if err != nil {
		return core.SceneConfig{}, err
	}
	sc := core.SceneConfig{
		MsPerTick:       c.Sim.MsPerTick,
		TimeAmplifier:   c.Sim.TimeAmplifier,
		PixelsPerAU:     c.Sim.PixelsPerAU,
		SizeScale:       c.Sim.SizeScale,
		OrbitDotDensity: c.Sim.OrbitDotDensity,
		KeplerMode:      mode,
		PathTolerance:   c.Sim.PathTolerance,
	}
	if c.Sim.Epoch != "" {
		t, err := time.Parse(time.RFC3339, c.Sim.Epoch)
		if err != nil {
			return core.SceneConfig{}, fmt.Errorf("%w: sim.epoch: %v", core.ErrInvalidConfiguration, err)
		}
		sc.Epoch = t.UTC()
	}
	if err := sc.Validate(); err != nil {
		return core.SceneConfig{}, err
	}
	return sc, nil
}

// ClockMode parses the clock mode.
func (c Config) ClockMode() (timectrl.Mode, error) {
	return timectrl.ParseMode(strings.ToLower(c.Clock.Mode))
}

// Logging returns the logger settings.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, AddSource: c.Log.AddSource}
}

// TracingSettings returns the tracing settings.
func (c Config) TracingSettings() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    strings.ToLower(c.Tracing.Exporter),
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
		Scenario:    c.Scenario,
	}
}
