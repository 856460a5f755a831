// Package scenario holds the end-to-end user journeys. Each scenario is a
// sequential script over page objects; any error aborts it.
package scenario

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/devicelab-dev/gaiatest/pkg/gaia"
)

// Func is one phase of a scenario.
type Func func(ctx context.Context, env *gaia.Env) error

// Scenario is one user journey.
type Scenario struct {
	Name        string
	Description string
	Tags        []string

	// Requires lists the test variables the scenario reads, as dotted keys.
	Requires []string
	// Resources lists files pushed from the resource directory.
	Resources []string

	// Setup prepares device state and may be nil. Run is the journey itself.
	Setup Func
	Run   Func
}

// HasTag reports whether s carries tag.
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Execute resets the device, then runs Setup and Run against env.
func (s Scenario) Execute(ctx context.Context, env *gaia.Env) error {
	if err := env.Reset(ctx); err != nil {
		return err
	}
	if s.Setup != nil {
		if err := s.Setup(ctx, env); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	return s.Run(ctx, env)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Scenario)
)

// Register adds s to the suite. It panics on a duplicate or incomplete
// scenario, which is a programming error.
func Register(s Scenario) {
	if s.Name == "" || s.Run == nil {
		panic("scenario: Register needs a name and a Run func")
	}
	mu.Lock()
	defer mu.Unlock()

	if _, dup := registry[s.Name]; dup {
		panic(fmt.Sprintf("scenario: %s registered twice", s.Name))
	}
	registry[s.Name] = s
}

// All returns every registered scenario sorted by name.
func All() []Scenario {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	mu.RLock()
	defer mu.RUnlock()

	s, ok := registry[name]
	return s, ok
}

// Select resolves names in order; no names selects every scenario.
func Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		s, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Filter keeps the scenarios carrying at least one include tag (any, when
// include is empty) and none of the exclude tags.
func Filter(scenarios []Scenario, include, exclude []string) []Scenario {
	var out []Scenario
	for _, s := range scenarios {
		if len(include) > 0 {
			hasTag := false
			for _, tag := range include {
				if s.HasTag(tag) {
					hasTag = true
					break
				}
			}
			if !hasTag {
				continue
			}
		}

		excluded := false
		for _, tag := range exclude {
			if s.HasTag(tag) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, s)
		}
	}
	return out
}
