package model

// Scenario is a forest of body definitions. Each top-level entry becomes a
// root of the scene, in order.
type Scenario struct {
	Name   string           `mapstructure:"name"`
	Bodies []BodyDefinition `mapstructure:"bodies"`
}

// Count returns the total number of bodies in the scenario.
func (s Scenario) Count() int {
	n := 0
	for _, b := range s.Bodies {
		n += b.Count()
	}
	return n
}
