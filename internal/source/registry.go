package source

import "github.com/rotisserie/eris"

// Registry maps source names to their descriptors.
type Registry struct {
	sources map[string]Descriptor
	order   []string // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Descriptor),
	}
}

// Register adds a descriptor to the registry. Registering a name again
// replaces the earlier entry but keeps its position.
func (r *Registry) Register(d Descriptor) {
	if _, ok := r.sources[d.Name]; !ok {
		r.order = append(r.order, d.Name)
	}
	r.sources[d.Name] = d
}

// Get returns a descriptor by name.
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.sources[name]
	if !ok {
		return Descriptor{}, eris.Errorf("source: unknown source %q", name)
	}
	return d, nil
}

// Select returns descriptors by name, or every descriptor when names is
// empty. An optional category narrows either set.
func (r *Registry) Select(names []string, category *Category) ([]Descriptor, error) {
	if len(names) > 0 {
		result := make([]Descriptor, 0, len(names))
		for _, name := range names {
			d, err := r.Get(name)
			if err != nil {
				return nil, err
			}
			if category != nil && d.Category != *category {
				continue
			}
			result = append(result, d)
		}
		return result, nil
	}

	var result []Descriptor
	for _, d := range r.All() {
		if category != nil && d.Category != *category {
			continue
		}
		result = append(result, d)
	}
	return result, nil
}

// ByCategory returns all descriptors in the given category, in registration
// order.
func (r *Registry) ByCategory(cat Category) []Descriptor {
	var result []Descriptor
	for _, name := range r.order {
		if r.sources[name].Category == cat {
			result = append(result, r.sources[name])
		}
	}
	return result
}

// All returns all descriptors in registration order.
func (r *Registry) All() []Descriptor {
	result := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.sources[name])
	}
	return result
}

// Names returns all registered source names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
