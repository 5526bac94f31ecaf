// Package plugins loads the export options offered to the dialog: the
// output formats and, per format, the plugins that can handle them.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/heimdex/heimdex-editor/internal/editor"
)

// File is the on-disk layout of plugins.yaml.
type File struct {
	Formats []editor.Format `yaml:"formats"`
}

const (
	DefaultPluginName  = "default"
	DefaultPluginTitle = "Save to Disk"
)

// Default is the catalog used when no plugins file exists: every built-in
// format, each with the bundled save-to-disk plugin.
func Default() editor.Catalog {
	c := make(editor.Catalog, 0, len(editor.FormatOrder))
	for _, name := range editor.FormatOrder {
		c = append(c, editor.Format{
			Name: name,
			Plugins: []editor.Plugin{{
				Title:      DefaultPluginTitle,
				PluginName: DefaultPluginName,
				IsDefault:  true,
			}},
		})
	}
	return c
}

// Load reads the catalog from path. A missing file yields Default.
func Load(path string) (editor.Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plugins file and validates it.
func Parse(data []byte) (editor.Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plugins file: %w", err)
	}

	c := editor.Catalog(f.Formats)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c to path in the format Load reads.
func Save(c editor.Catalog, path string) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plugins dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plugins file: %w", err)
	}
	return nil
}

func Marshal(c editor.Catalog) ([]byte, error) {
	data, err := yaml.Marshal(File{Formats: c})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize plugins: %w", err)
	}
	return data, nil
}
