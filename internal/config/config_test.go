package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalsfoundry/orrery-simulator/core"
	"github.com/signalsfoundry/orrery-simulator/timectrl"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc, err := cfg.SceneConfig()
	if err != nil {
		t.Fatalf("SceneConfig: %v", err)
	}
	if sc != core.DefaultSceneConfig() {
		t.Fatalf("default scene config = %+v, want %+v", sc, core.DefaultSceneConfig())
	}
	mode, err := cfg.ClockMode()
	if err != nil || mode != timectrl.RealTime {
		t.Fatalf("clock mode = %v, %v; want realtime", mode, err)
	}
	if cfg.Scenario != "solar-system" || cfg.Metrics.Addr != "" || cfg.Tracing.Enabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orrery.yaml")
	data := `
scenario: kepler
sim:
  time_amplifier: 5000
  kepler_mode: legacy
  epoch: "2024-03-20T03:06:00Z"
clock:
  mode: accelerated
  ticks: 120
log:
  level: debug
  format: json
metrics:
  addr: ":9100"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc, err := cfg.SceneConfig()
	if err != nil {
		t.Fatalf("SceneConfig: %v", err)
	}
	if sc.TimeAmplifier != 5000 || sc.KeplerMode != core.KeplerLegacy || sc.MsPerTick != 16 {
		t.Fatalf("unexpected scene config %+v", sc)
	}
	if want := time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC); !sc.Epoch.Equal(want) {
		t.Fatalf("epoch = %v, want %v", sc.Epoch, want)
	}
	if cfg.Clock.Ticks != 120 || cfg.Scenario != "kepler" || cfg.Metrics.Addr != ":9100" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if lc := cfg.Logging(); lc.Level != "debug" || lc.Format != "json" {
		t.Fatalf("unexpected logging config %+v", lc)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ORRERY_SIM_TIME_AMPLIFIER", "250")
	t.Setenv("ORRERY_TRACING_ENABLED", "true")
	t.Setenv("ORRERY_TRACING_EXPORTER", "OTLP")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sim.TimeAmplifier != 250 {
		t.Fatalf("time amplifier = %v, want 250", cfg.Sim.TimeAmplifier)
	}
	tc := cfg.TracingSettings()
	if !tc.Enabled || tc.Exporter != "otlp" || tc.ServiceName != "orrery" {
		t.Fatalf("unexpected tracing config %+v", tc)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ms_per_tick": "sim:\n  ms_per_tick: 0\n",
		"amplifier":   "sim:\n  time_amplifier: -1\n",
		"kepler_mode": "sim:\n  kepler_mode: fancy\n",
		"epoch":       "sim:\n  epoch: yesterday\n",
		"clock_mode":  "clock:\n  mode: sideways\n",
		"ticks":       "clock:\n  ticks: -3\n",
		"duration":    "clock:\n  duration: -1h\n",
		"exclusive":   "clock:\n  ticks: 10\n  duration: 24h\n",
		"sample":      "tracing:\n  sample_ratio: 2\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := Load(New(), path)
			if !errors.Is(err, core.ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadClockDuration(t *testing.T) {
	t.Setenv("ORRERY_CLOCK_DURATION", "720h")
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clock.Duration != 30*24*time.Hour || cfg.Clock.Ticks != 0 {
		t.Fatalf("unexpected clock config %+v", cfg.Clock)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
