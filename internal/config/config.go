package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/jpfender/wallch/internal/utils"
)

var (
	// ErrNotFound is returned when the config file does not exist.
	ErrNotFound = errors.New("config: not found")
	// ErrMalformed is returned when the config file cannot be parsed or
	// fails validation.
	ErrMalformed = errors.New("config: malformed")
	// ErrNoDirectories is returned when the config lists no wallpaper
	// directories.
	ErrNoDirectories = errors.New("config: no wallpaper directories configured")
	// ErrOutOfRange is returned when a directory index is outside the
	// configured dirs list.
	ErrOutOfRange = errors.New("config: directory index out of range")
)

// DefaultDuration is used when the config does not specify a duration.
const DefaultDuration = Duration(10 * time.Minute)

// Config holds the persisted wallch configuration.
type Config struct {
	Dirs          []string `toml:"dirs"`                     // Wallpaper directories, in rotation order
	Current       int      `toml:"current"`                  // Index of the active directory
	Duration      Duration `toml:"duration"`                 // Time between rotations
	LastWallpaper string   `toml:"last_wallpaper,omitempty"` // Most recently applied image
	Next          []string `toml:"next,omitempty"`           // Pre-selected candidate per directory
	Patterns      []string `toml:"patterns,omitempty"`       // Glob patterns for candidate images
	Notifications bool     `toml:"notifications,omitempty"`  // Send desktop notifications on failures
	LogLevel      string   `toml:"log_level,omitempty"`      // Logging level: debug, info, warn, error
}

// Store reads and writes a Config at a fixed path.
type Store struct {
	path string
}

// NewStore creates a Store for the given config file path. A tilde prefix
// is expanded to the user's home directory.
func NewStore(path string) *Store {
	return &Store{path: utils.ExpandTilde(path)}
}

// Path returns the resolved config file path.
func (s *Store) Path() string { return s.path }

// DefaultPath returns the default config file location, wallch.toml in the
// user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "wallch.toml"
	}
	return filepath.Join(home, "wallch.toml")
}

// Load reads and validates the config file. The directory index is clamped
// into range, a missing duration defaults to ten minutes, and a stale next
// cache whose length no longer matches dirs is dropped.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read config %s: %w", s.path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if len(cfg.Dirs) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, ErrNoDirectories)
	}
	for i, dir := range cfg.Dirs {
		cfg.Dirs[i] = utils.ExpandTilde(dir)
	}

	if cfg.Duration == 0 {
		cfg.Duration = DefaultDuration
	}

	// Clamp rather than fail if the dirs list shrank since last save.
	if cfg.Current >= len(cfg.Dirs) {
		cfg.Current = len(cfg.Dirs) - 1
	}
	if cfg.Current < 0 {
		cfg.Current = 0
	}

	if len(cfg.Next) != 0 && len(cfg.Next) != len(cfg.Dirs) {
		cfg.Next = nil
	}

	return cfg, nil
}

// Save writes the config atomically: marshal to a temp file in the same
// directory, then rename over the target so a concurrent reader never
// observes a half-written file.
func (s *Store) Save(cfg *Config) error {
	if cfg.Duration == 0 {
		cfg.Duration = DefaultDuration
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".wallch-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace config %s: %w", s.path, err)
	}
	return nil
}
