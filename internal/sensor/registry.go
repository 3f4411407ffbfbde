package sensor

import (
	"fmt"
	"sort"

	"github.com/san-kum/dropsim/internal/dynamo"
)

type Registry struct {
	sources map[string]func() dynamo.GravitySource
}

// NewRegistry returns the built-in gravity sources by name.
func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]func() dynamo.GravitySource)}

	r.sources["down"] = func() dynamo.GravitySource { return Fixed{G: Down} }
	r.sources["up"] = func() dynamo.GravitySource { return Fixed{G: Up} }
	r.sources["left"] = func() dynamo.GravitySource { return Fixed{G: Left} }
	r.sources["right"] = func() dynamo.GravitySource { return Fixed{G: Right} }
	r.sources["zero"] = func() dynamo.GravitySource { return Fixed{} }
	r.sources["orientation"] = func() dynamo.GravitySource { return NewOrientation() }
	r.sources["accelerometer"] = func() dynamo.GravitySource { return NewAccelerometer(DefaultMaxAge) }
	r.sources["swirl"] = func() dynamo.GravitySource { return NewCycle(120) }

	return r
}

func (r *Registry) Register(name string, fn func() dynamo.GravitySource) {
	r.sources[name] = fn
}

func (r *Registry) Get(name string) (dynamo.GravitySource, error) {
	fn, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown gravity source: %s", name)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
