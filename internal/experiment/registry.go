package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/integrators"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/tuning"
)

// Registry maps the short names used on the command line and in config
// files to their concrete pieces.
type Registry struct {
	integrators map[string]func() sim.Integrator
	strategies  map[string]func(pm *plant.Model) tuning.Strategy
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
		strategies:  make(map[string]func(pm *plant.Model) tuning.Strategy),
	}

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }

	r.strategies["zn"] = func(*plant.Model) tuning.Strategy {
		return tuning.ZieglerNichols()
	}
	r.strategies["zn-oscillation"] = func(pm *plant.Model) tuning.Strategy {
		return tuning.ZieglerNicholsOscillation(pm)
	}
	r.strategies["cc-iae"] = func(*plant.Model) tuning.Strategy {
		return tuning.CohenCoon(tuning.IAE)
	}
	r.strategies["cc-ise"] = func(*plant.Model) tuning.Strategy {
		return tuning.CohenCoon(tuning.ISE)
	}
	r.strategies["cc-itae"] = func(*plant.Model) tuning.Strategy {
		return tuning.CohenCoon(tuning.ITAE)
	}

	return r
}

func (r *Registry) Integrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (have %v)", name, r.Integrators())
	}
	return fn(), nil
}

// Strategy resolves a method name. The plant is only consulted by the
// oscillation variant but must always be supplied.
func (r *Registry) Strategy(name string, pm *plant.Model) (tuning.Strategy, error) {
	fn, ok := r.strategies[name]
	if !ok {
		return tuning.Strategy{}, fmt.Errorf("unknown tuning method %q (have %v)", name, r.Strategies())
	}
	return fn(pm), nil
}

func (r *Registry) ControllerType(name string) (control.Type, error) {
	return control.ParseType(name)
}

func (r *Registry) Integrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
