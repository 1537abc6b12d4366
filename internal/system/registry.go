// Package system implements the physical systems the sampler can walk:
// concrete mc.System implementations behind a name registry.
package system

import (
	"fmt"
	"sort"

	"github.com/san-kum/dosim/internal/config"
	"github.com/san-kum/dosim/internal/mc"
)

type factory struct {
	build func(config.GeomConfig) mc.System
	blank func() mc.System
}

var registry = map[string]factory{}

// Register makes a system constructible by name. build creates a ready
// system from geometry; blank creates an empty one for a checkpoint to
// unmarshal into.
func Register(name string, build func(config.GeomConfig) mc.System, blank func() mc.System) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("system: duplicate registration of %q", name))
	}
	registry[name] = factory{build: build, blank: blank}
}

// New builds the named system from the given geometry.
func New(name string, geom config.GeomConfig) (mc.System, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("system: unknown system %q", name)
	}
	return f.build(geom), nil
}

// Blank returns an empty system of the named kind. It satisfies
// mc.SystemFactory for resuming checkpoints.
func Blank(name string) (mc.System, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f.blank(), true
}

// Names lists the registered systems in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
