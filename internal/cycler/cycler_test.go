package cycler

import (
	"errors"
	"testing"

	"github.com/jpfender/wallch/internal/config"
)

func TestActive_ReturnsSelectedDirectory(t *testing.T) {
	cfg := &config.Config{Dirs: []string{"/a", "/b", "/c"}, Current: 1}
	dir, err := Active(cfg)
	if err != nil {
		t.Fatalf("Active returned error: %v", err)
	}
	if dir != "/b" {
		t.Fatalf("Active = %q, want %q", dir, "/b")
	}
}

func TestActive_EmptyDirsFails(t *testing.T) {
	_, err := Active(&config.Config{})
	if !errors.Is(err, config.ErrNoDirectories) {
		t.Fatalf("Active error = %v, want ErrNoDirectories", err)
	}
}

func TestActive_OutOfRangeIndexFails(t *testing.T) {
	_, err := Active(&config.Config{Dirs: []string{"/a"}, Current: 5})
	if !errors.Is(err, config.ErrOutOfRange) {
		t.Fatalf("Active error = %v, want ErrOutOfRange", err)
	}
}

func TestAdvance_WrapsAround(t *testing.T) {
	cfg := &config.Config{Dirs: []string{"/a", "/b", "/c"}, Current: 2}
	if got := Advance(cfg); got != 0 {
		t.Fatalf("Advance = %d, want 0", got)
	}
}

// Advancing len(dirs) times from any starting index must return to it.
func TestAdvance_CycleClosure(t *testing.T) {
	dirs := []string{"/a", "/b", "/c", "/d"}
	for start := range dirs {
		cfg := &config.Config{Dirs: dirs, Current: start}
		for i := 0; i < len(dirs); i++ {
			cfg.Current = Advance(cfg)
		}
		if cfg.Current != start {
			t.Fatalf("after %d advances from %d, Current = %d, want %d", len(dirs), start, cfg.Current, start)
		}
	}
}

func TestAdvance_SingleElementIsNoOp(t *testing.T) {
	cfg := &config.Config{Dirs: []string{"/only"}, Current: 0}
	if got := Advance(cfg); got != 0 {
		t.Fatalf("Advance = %d, want 0", got)
	}
}
