// Package picker enumerates candidate wallpaper images in a directory and
// selects one at random.
package picker

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ErrNoCandidates is returned when a directory contains no matching images.
var ErrNoCandidates = errors.New("picker: no candidate images")

// DefaultPatterns match the common wallpaper image formats.
var DefaultPatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.webp", "*.bmp"}

// Picker matches directory entries against a list of glob patterns and
// picks wallpapers from the result.
type Picker struct {
	globs []glob.Glob
}

// New creates a Picker from a list of glob patterns. Patterns are matched
// case-insensitively against base filenames. An empty list uses
// DefaultPatterns.
func New(patterns []string) (*Picker, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	var globs []glob.Glob
	for _, pat := range patterns {
		g, err := glob.Compile(strings.ToLower(pat), '/')
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
		}
		globs = append(globs, g)
	}
	return &Picker{globs: globs}, nil
}

// List enumerates candidate images in dir, non-recursively, in sorted
// order. It fails with ErrNoCandidates when nothing matches.
func (p *Picker) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if p.matches(entry.Name()) {
			candidates = append(candidates, filepath.Join(dir, entry.Name()))
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCandidates, dir)
	}
	sort.Strings(candidates)
	return candidates, nil
}

// Pick selects one candidate uniformly at random. The exclude path is
// skipped whenever more than one candidate exists, so small directories do
// not show visible repeats; a lone candidate may legitimately be
// reselected.
func (p *Picker) Pick(candidates []string, exclude string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	pool := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != exclude {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}
	return pool[rand.IntN(len(pool))], nil
}

// PickFrom lists dir and picks in one step.
func (p *Picker) PickFrom(dir string, exclude string) (string, error) {
	candidates, err := p.List(dir)
	if err != nil {
		return "", err
	}
	return p.Pick(candidates, exclude)
}

func (p *Picker) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, g := range p.globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}
