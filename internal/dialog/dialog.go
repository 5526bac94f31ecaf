// Package dialog provides destination choosers for snapshots.
package dialog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/heimdex/heimdex-editor/internal/export"
)

// DirChooser places files in a fixed directory without prompting. It is used
// when the agent runs headless or the front end has no native save dialog.
type DirChooser struct {
	Dir string
}

func NewDirChooser(dir string) *DirChooser {
	return &DirChooser{Dir: filepath.Clean(dir)}
}

func (c *DirChooser) Choose(ctx context.Context, suggestedName string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := export.ValidateDir(c.Dir); err != nil {
		return "", false, err
	}
	name := export.SanitizeName(suggestedName, 160)
	if name == "" {
		return "", false, fmt.Errorf("suggested name %q is empty after sanitizing", suggestedName)
	}
	return filepath.Join(c.Dir, name), true, nil
}

// Static returns a path the front end already obtained from its own save
// dialog. An empty Path means the user cancelled. A relative Path is
// resolved against Dir when set.
type Static struct {
	Path string
	Dir  string
}

func (s Static) Choose(ctx context.Context, suggestedName string) (string, bool, error) {
	if s.Path == "" {
		return "", false, nil
	}
	if filepath.IsAbs(s.Path) {
		return filepath.Clean(s.Path), true, nil
	}
	if s.Dir == "" {
		return "", false, fmt.Errorf("relative output path %q without a base directory", s.Path)
	}
	name := export.SanitizeName(filepath.Base(s.Path), 160)
	return filepath.Join(s.Dir, name), true, nil
}
