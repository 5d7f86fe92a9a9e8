// core/scenario_loader.go
package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery-simulator/model"
)

// ScenarioSummary is a small summary of what was loaded from a scenario file.
// It's mainly useful for logging or for the CLI's bodies listing.
type ScenarioSummary struct {
	Name   string
	Roots  []string
	Bodies int
	Kinds  map[model.OrbitKind]int
}

// LoadScenario decodes a scenario from r. format is any config type viper
// understands ("yaml", "toml", "json", ...).
//
// It fails only on decode and structural errors; orbit parameters are
// validated when the scenario is added to a Scene.
func LoadScenario(r io.Reader, format string) (model.Scenario, error) {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if format == "yml" {
		format = "yaml"
	}

	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return model.Scenario{}, fmt.Errorf("LoadScenario: decode %s: %w", format, err)
	}

	var sc model.Scenario
	if err := v.Unmarshal(&sc); err != nil {
		return model.Scenario{}, fmt.Errorf("LoadScenario: unmarshal: %w", err)
	}
	if len(sc.Bodies) == 0 {
		return model.Scenario{}, fmt.Errorf("LoadScenario: %w: scenario %q has no bodies", ErrInvalidConfiguration, sc.Name)
	}
	if err := checkNames(sc.Bodies, make(map[string]struct{})); err != nil {
		return model.Scenario{}, fmt.Errorf("LoadScenario: %w", err)
	}
	return sc, nil
}

// LoadScenarioFile reads a scenario file, taking the format from its
// extension. A scenario without a name is named after the file.
func LoadScenarioFile(path string) (model.Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("LoadScenarioFile: %w", err)
	}
	defer f.Close()

	sc, err := LoadScenario(f, filepath.Ext(path))
	if err != nil {
		return model.Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// LoadScenarioIntoScene decodes a scenario from r, adds it to s and returns
// a summary of what was loaded.
func LoadScenarioIntoScene(s *Scene, r io.Reader, format string) (*ScenarioSummary, error) {
	if s == nil {
		return nil, fmt.Errorf("LoadScenarioIntoScene: scene is nil")
	}
	sc, err := LoadScenario(r, format)
	if err != nil {
		return nil, err
	}
	if _, err := s.AddScenario(sc); err != nil {
		return nil, fmt.Errorf("LoadScenarioIntoScene: %w", err)
	}
	return Summarize(sc), nil
}

// Summarize counts the bodies of sc by orbit kind.
func Summarize(sc model.Scenario) *ScenarioSummary {
	sum := &ScenarioSummary{
		Name:  sc.Name,
		Roots: make([]string, 0, len(sc.Bodies)),
		Kinds: make(map[model.OrbitKind]int),
	}
	var walk func(d model.BodyDefinition, root bool)
	walk = func(d model.BodyDefinition, root bool) {
		sum.Bodies++
		kind := d.Orbit.Kind
		if kind == "" {
			kind = model.OrbitSimplified
			if root {
				kind = model.OrbitStatic
			}
		}
		sum.Kinds[kind]++
		for _, c := range d.Children {
			walk(c, false)
		}
	}
	for _, b := range sc.Bodies {
		sum.Roots = append(sum.Roots, b.Name)
		walk(b, true)
	}
	return sum
}

// KindNames returns the orbit kinds present in the summary, sorted.
func (s *ScenarioSummary) KindNames() []string {
	out := make([]string, 0, len(s.Kinds))
	for k := range s.Kinds {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

func checkNames(defs []model.BodyDefinition, seen map[string]struct{}) error {
	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("%w: body with empty name", ErrInvalidConfiguration)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: duplicate body name %q", ErrInvalidConfiguration, d.Name)
		}
		seen[d.Name] = struct{}{}
		if err := checkNames(d.Children, seen); err != nil {
			return err
		}
	}
	return nil
}
