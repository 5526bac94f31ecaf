package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var ErrInvalidDir = errors.New("invalid output directory")

// SanitizeName strips control characters and replaces anything outside a
// conservative file-name alphabet with an underscore.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// OutputName derives the rendered file name for a source: the source's base
// name without extension, sanitised, with the format as extension.
func OutputName(sourcePath, format string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := SanitizeName(base, 120)
	if name == "" || name == "." {
		name = "export"
	}
	return name + "." + strings.ToLower(format)
}

// NumberedOutputName is OutputName with " n" appended to the base name, the
// way Finder names copies. n below 2 gives the plain name.
func NumberedOutputName(sourcePath, format string, n int) string {
	name := OutputName(sourcePath, format)
	if n < 2 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s %d%s", strings.TrimSuffix(name, ext), n, ext)
}

// ValidateDir checks that dir is a clean, existing directory without
// traversal segments.
func ValidateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidDir)
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("%w: path cannot contain traversal", ErrInvalidDir)
		}
	}

	if filepath.Clean(dir) != dir {
		return fmt.Errorf("%w: path must be clean", ErrInvalidDir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", ErrInvalidDir, dir)
		}
		return fmt.Errorf("%w: %v", ErrInvalidDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidDir, dir)
	}

	return nil
}
