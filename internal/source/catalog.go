package source

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// catalogEntry is the YAML shape of one descriptor.
type catalogEntry struct {
	Name             string   `yaml:"name"`
	Label            string   `yaml:"label"`
	Category         string   `yaml:"category"`
	BaseURL          string   `yaml:"base_url"`
	LayerID          int      `yaml:"layer_id"`
	GeometryKind     string   `yaml:"geometry_kind"`
	MaxRadiusMiles   float64  `yaml:"max_radius_miles"`
	SupportsContains bool     `yaml:"supports_contains"`
	IDFields         []string `yaml:"id_fields,omitempty"`
	NameFields       []string `yaml:"name_fields,omitempty"`
}

// LoadFile registers sources from a YAML catalog file. Entries with a name
// already present replace the builtin definition; new names extend the set.
// Every entry is validated before any is registered, so a bad file leaves
// the registry untouched.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "source: read catalog %s", path)
	}

	var wrapper struct {
		Sources []catalogEntry `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return eris.Wrapf(err, "source: parse catalog %s", path)
	}

	descriptors := make([]Descriptor, 0, len(wrapper.Sources))
	for i, e := range wrapper.Sources {
		d := Descriptor{
			Name:             e.Name,
			Label:            e.Label,
			Category:         Category(e.Category),
			BaseURL:          e.BaseURL,
			LayerID:          e.LayerID,
			GeometryKind:     GeometryKind(e.GeometryKind),
			MaxRadiusMiles:   e.MaxRadiusMiles,
			SupportsContains: e.SupportsContains,
			IDFields:         e.IDFields,
			NameFields:       e.NameFields,
		}
		if err := d.Validate(); err != nil {
			return eris.Wrapf(err, "source: catalog %s entry %d", path, i)
		}
		descriptors = append(descriptors, d)
	}

	for _, d := range descriptors {
		r.Register(d)
	}
	return nil
}
