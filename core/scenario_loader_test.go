// core/scenario_loader_test.go
package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/orrery-simulator/model"
)

const yamlScenario = `
name: inner
bodies:
  - name: Sun
    diameter_km: 92733
    rotation_hours: 576
    color: "#ffcc33"
    children:
      - name: Earth
        diameter_km: 12756
        obliquity_deg: 23.4
        rotation_hours: 23.9
        orbit:
          kind: kepler
          perihelion_mkm: 147.1
          eccentricity: 0.017
          arg_perihelion_deg: 288.064
          ascending_node_deg: 174.873
          mean_anomaly_j2000_deg: 357.529
        children:
          - name: Moon
            diameter_km: 3475
            rotation_hours: 655.7
            orbit:
              kind: simplified
              period_days: 27.3
              width_mkm: 8.12
              height_mkm: 7.26
              max_angle_deg: 5.1
  - name: Sirius
    diameter_km: 2380000
    orbit:
      kind: static
      position: {x: 400, y: -20, z: 0}
    rings:
      - radius_km: 5000000
        tilt_deg: 10
`

func TestLoadScenario_YAML(t *testing.T) {
	sc, err := LoadScenario(strings.NewReader(yamlScenario), "yaml")
	if err != nil {
		t.Fatalf("LoadScenario returned error: %v", err)
	}
	if sc.Name != "inner" || len(sc.Bodies) != 2 || sc.Count() != 4 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	earth := sc.Bodies[0].Children[0]
	if earth.Orbit.Kind != model.OrbitKepler || earth.Orbit.Eccentricity != 0.017 {
		t.Fatalf("earth orbit not decoded: %+v", earth.Orbit)
	}
	moon := earth.Children[0]
	if moon.Orbit.MaxAngleDeg != 5.1 || moon.Orbit.PeriodDays != 27.3 {
		t.Fatalf("moon orbit not decoded: %+v", moon.Orbit)
	}
	sirius := sc.Bodies[1]
	if sirius.Orbit.Position != (model.Coordinates{X: 400, Y: -20}) || len(sirius.Rings) != 1 {
		t.Fatalf("sirius not decoded: %+v", sirius)
	}
}

func TestLoadScenario_JSONAndTOML(t *testing.T) {
	jsonData := `{"name": "solo", "bodies": [{"name": "Sun", "diameter_km": 1000}]}`
	sc, err := LoadScenario(strings.NewReader(jsonData), ".json")
	if err != nil {
		t.Fatalf("LoadScenario(json): %v", err)
	}
	if sc.Bodies[0].DiameterKm != 1000 {
		t.Fatalf("diameter not decoded: %+v", sc.Bodies[0])
	}

	tomlData := `
name = "solo"

[[bodies]]
name = "Sun"
diameter_km = 1000
`
	sc, err = LoadScenario(strings.NewReader(tomlData), "toml")
	if err != nil {
		t.Fatalf("LoadScenario(toml): %v", err)
	}
	if sc.Bodies[0].Name != "Sun" {
		t.Fatalf("unexpected toml scenario %+v", sc)
	}
}

func TestLoadScenario_Rejects(t *testing.T) {
	if _, err := LoadScenario(strings.NewReader(`name: empty`), "yaml"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for no bodies, got %v", err)
	}
	dup := `{"bodies": [{"name": "A", "children": [{"name": "A"}]}]}`
	if _, err := LoadScenario(strings.NewReader(dup), "json"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for duplicate names, got %v", err)
	}
	if _, err := LoadScenario(strings.NewReader(`{not json`), "json"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadScenarioFile_NamesAfterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.yml")
	data := "bodies:\n  - name: A\n    diameter_km: 10\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	sc, err := LoadScenarioFile(path)
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	if sc.Name != "binary" {
		t.Fatalf("name = %q, want binary", sc.Name)
	}
}

func TestLoadScenarioIntoScene_PopulatesScene(t *testing.T) {
	s := newTestScene(t)
	sum, err := LoadScenarioIntoScene(s, strings.NewReader(yamlScenario), "yaml")
	if err != nil {
		t.Fatalf("LoadScenarioIntoScene: %v", err)
	}
	if sum.Bodies != 4 || len(sum.Roots) != 2 || sum.Kinds[model.OrbitStatic] != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if got := sum.KindNames(); strings.Join(got, ",") != "kepler,simplified,static" {
		t.Fatalf("kinds = %v", got)
	}
	if s.Len() != 4 || len(s.Roots()) != 2 {
		t.Fatalf("scene has %d bodies, %d roots", s.Len(), len(s.Roots()))
	}
	sirius := mustLookup(t, s, "Sirius")
	if got := mustPosition(t, s, sirius); got != (Vec3{X: 400, Y: -20}) {
		t.Fatalf("sirius at %v", got)
	}
}
