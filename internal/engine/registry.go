package engine

// Registry holds the process-wide engine set, constructed once at startup and
// passed into components explicitly. Lookup order is stable.
type Registry struct {
	engines []Engine
	byID    map[string]Engine
}

func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{byID: make(map[string]Engine, len(engines))}
	for _, e := range engines {
		if _, dup := r.byID[e.ID()]; dup {
			continue
		}
		r.engines = append(r.engines, e)
		r.byID[e.ID()] = e
	}
	return r
}

// Get returns the engine with the given id, if registered.
func (r *Registry) Get(id string) (Engine, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// All returns the registered engines in registration order.
func (r *Registry) All() []Engine {
	out := make([]Engine, len(r.engines))
	copy(out, r.engines)
	return out
}
