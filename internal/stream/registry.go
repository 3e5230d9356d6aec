package stream

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSystem indicates a system name with no registered constructor.
var ErrUnknownSystem = errors.New("stream: unknown system")

// Params carries the knobs a registered system constructor may use. Unused
// fields are ignored by systems that do not need them.
type Params struct {
	Dim    int     // state dimension (random)
	Omega  float64 // angular frequency (rotation, drift, damped)
	Rate   float64 // frequency drift per unit time (drift)
	Growth float64 // exponential growth rate, negative decays (damped)
	Radius float64 // spectral radius (random)
	Dt     float64 // sampling interval
	Seed   int64   // noise and operator seed (random)
}

// Registry maps system names to constructors.
type Registry struct {
	systems map[string]func(Params) (System, error)
}

// NewRegistry returns a registry with every built-in system.
func NewRegistry() *Registry {
	r := &Registry{systems: make(map[string]func(Params) (System, error))}

	r.systems["rotation"] = func(p Params) (System, error) {
		if err := checkDt(p); err != nil {
			return nil, err
		}
		return NewRotation(p.Omega, p.Dt), nil
	}
	r.systems["drift"] = func(p Params) (System, error) {
		if err := checkDt(p); err != nil {
			return nil, err
		}
		return NewDrift(p.Omega, p.Rate, p.Dt), nil
	}
	r.systems["damped"] = func(p Params) (System, error) {
		if err := checkDt(p); err != nil {
			return nil, err
		}
		return NewDamped(p.Omega, p.Growth, p.Dt), nil
	}
	r.systems["random"] = func(p Params) (System, error) {
		return NewRandomStable(p.Dim, p.Radius, p.Seed)
	}

	return r
}

// Get constructs the named system from p.
func (r *Registry) Get(name string, p Params) (System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSystem, name)
	}
	return fn(p)
}

// List returns the registered system names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkDt(p Params) error {
	if !(p.Dt > 0) {
		return fmt.Errorf("stream: sampling interval %v, want positive", p.Dt)
	}
	return nil
}
