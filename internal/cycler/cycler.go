// Package cycler resolves the active wallpaper directory and supports
// advancing to the next one, wrapping around the configured list.
package cycler

import (
	"fmt"

	"github.com/jpfender/wallch/internal/config"
)

// Active returns the directory currently selected by the config index.
func Active(cfg *config.Config) (string, error) {
	if len(cfg.Dirs) == 0 {
		return "", config.ErrNoDirectories
	}
	if cfg.Current < 0 || cfg.Current >= len(cfg.Dirs) {
		return "", fmt.Errorf("%w: %d of %d", config.ErrOutOfRange, cfg.Current, len(cfg.Dirs))
	}
	return cfg.Dirs[cfg.Current], nil
}

// Advance computes the index of the next directory, wrapping around. It is
// pure: the caller decides whether and when to persist the new index. A
// single-element list advances to itself.
func Advance(cfg *config.Config) int {
	if len(cfg.Dirs) == 0 {
		return 0
	}
	return (cfg.Current + 1) % len(cfg.Dirs)
}
