// Package publish hands a finished render to the destination plugin the user
// picked in the export dialog.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/heimdex/heimdex-editor/internal/export"
)

// DiskPluginName is the bundled plugin that leaves the render in the output
// directory.
const DiskPluginName = "default"

var ErrUnknownPlugin = errors.New("export plugin not available")

// Publisher delivers a rendered file. The returned location is a path or URL
// the user can open.
type Publisher interface {
	Publish(ctx context.Context, path string, job export.Job) (string, error)
}

// Registry maps plugin names from the catalog to publishers.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Publisher
	logger *slog.Logger
}

// NewRegistry returns a registry holding the disk plugin.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byName: map[string]Publisher{DiskPluginName: Disk{}},
		logger: logger,
	}
}

func (r *Registry) Register(name string, p Publisher) {
	r.mu.Lock()
	r.byName[name] = p
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("export plugin registered", "plugin", name)
	}
}

// Names lists the registered plugins, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Publish hands path to the plugin named by the job. Jobs without a plugin
// name go to disk.
func (r *Registry) Publish(ctx context.Context, path string, job export.Job) (string, error) {
	name := job.PluginName
	if name == "" {
		name = DiskPluginName
	}
	r.mu.RLock()
	p, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlugin, name)
	}
	location, err := p.Publish(ctx, path, job)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return location, nil
}

// Disk keeps the render where it was written.
type Disk struct{}

func (Disk) Publish(ctx context.Context, path string, job export.Job) (string, error) {
	return path, nil
}
