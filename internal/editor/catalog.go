package editor

import (
	"fmt"
	"sort"
)

// Plugin is an export backend offered for a format.
type Plugin struct {
	Title      string `json:"title" yaml:"title"`
	PluginName string `json:"pluginName" yaml:"plugin_name"`
	IsDefault  bool   `json:"isDefault" yaml:"is_default"`
}

type Format struct {
	Name    string   `json:"name" yaml:"name"`
	Plugins []Plugin `json:"plugins" yaml:"plugins"`
}

// Catalog is the ordered list of formats offered by the export options.
type Catalog []Format

// FormatOrder is the order formats are presented in when the options arrive
// unordered. Unknown formats follow, alphabetically.
var FormatOrder = []string{"gif", "mp4", "webm", "apng"}

// Lookup returns the named format.
func (c Catalog) Lookup(name string) (Format, bool) {
	for _, f := range c {
		if f.Name == name {
			return f, true
		}
	}
	return Format{}, false
}

func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name
	}
	return names
}

// Validate checks the catalog is non-empty, has unique names and that every
// format offers at least one plugin.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: no formats", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c))
	for _, f := range c {
		if f.Name == "" {
			return fmt.Errorf("%w: format name is required", ErrInvalidCatalog)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate format %q", ErrInvalidCatalog, f.Name)
		}
		seen[f.Name] = true
		if len(f.Plugins) == 0 {
			return fmt.Errorf("%w: format %q has no plugins", ErrInvalidCatalog, f.Name)
		}
		for _, p := range f.Plugins {
			if p.Title == "" {
				return fmt.Errorf("%w: format %q has a plugin without title", ErrInvalidCatalog, f.Name)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so the session never shares plugin slices with
// its caller.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	for i, f := range c {
		out[i] = Format{Name: f.Name, Plugins: append([]Plugin(nil), f.Plugins...)}
	}
	return out
}

// FindPlugin returns the plugin titled title within format.
func (f Format) FindPlugin(title string) (Plugin, bool) {
	for _, p := range f.Plugins {
		if p.Title == title {
			return p, true
		}
	}
	return Plugin{}, false
}

// CatalogFromMap orders a format → plugins mapping using FormatOrder.
func CatalogFromMap(m map[string][]Plugin) Catalog {
	rank := make(map[string]int, len(FormatOrder))
	for i, name := range FormatOrder {
		rank[name] = i
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, iok := rank[names[i]]
		rj, jok := rank[names[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})

	c := make(Catalog, 0, len(names))
	for _, name := range names {
		c = append(c, Format{Name: name, Plugins: append([]Plugin(nil), m[name]...)})
	}
	return c
}
