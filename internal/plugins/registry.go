package plugins

import (
	"log/slog"
	"sync"

	"github.com/heimdex/heimdex-editor/internal/editor"
)

// Registry holds the current catalog and swaps it when the plugins file
// changes on disk.
type Registry struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	catalog editor.Catalog
}

func NewRegistry(path string, initial editor.Catalog, logger *slog.Logger) *Registry {
	return &Registry{path: path, catalog: initial.Clone(), logger: logger}
}

// Catalog returns a copy of the current catalog.
func (r *Registry) Catalog() editor.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Clone()
}

// Reload re-reads the plugins file. An invalid file keeps the previous
// catalog in place.
func (r *Registry) Reload() error {
	c, err := Load(r.path)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("plugins file rejected, keeping previous catalog", "error", err)
		}
		return err
	}

	r.mu.Lock()
	r.catalog = c
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("plugin catalog reloaded", "formats", c.Names())
	}
	return nil
}
