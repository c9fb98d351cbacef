package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultLogSubdir = "logs"

// resolvePath returns raw, or fallback when raw is empty, as a clean path.
// Relative paths are joined to base, or to the working directory when base
// is empty.
func resolvePath(base, raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = fallback
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	if strings.TrimSpace(base) == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		base = wd
	}
	return filepath.Clean(filepath.Join(base, target))
}
