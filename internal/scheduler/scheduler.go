// Package scheduler owns the wallpaper rotation loop. It waits for the
// configured duration or an external command, whichever comes first, and
// keeps the in-memory schedule consistent with the persisted config.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jpfender/wallch/internal/config"
	"github.com/jpfender/wallch/internal/cycler"
	"github.com/jpfender/wallch/internal/picker"
	"github.com/jpfender/wallch/internal/setter"
	"github.com/jpfender/wallch/internal/utils"
)

// Kind identifies a scheduler command.
type Kind int

const (
	// KindNext forces an immediate out-of-schedule rotation.
	KindNext Kind = iota
	// KindToggle advances to the next wallpaper directory.
	KindToggle
	// KindSetDuration changes the persisted rotation duration.
	KindSetDuration
)

// Command is a runtime request delivered to a running scheduler.
type Command struct {
	Kind     Kind
	Duration time.Duration // Only set for KindSetDuration
}

// Scheduler rotates wallpapers from the active directory and reacts to
// runtime commands.
type Scheduler struct {
	store *config.Store
	set   setter.Setter
}

// New creates a Scheduler over the given config store and wallpaper setter.
func New(store *config.Store, set setter.Setter) *Scheduler {
	return &Scheduler{store: store, set: set}
}

// Run starts the indefinite rotation loop: an immediate initial rotation,
// then alternating sleeps and rotations until ctx is cancelled. Commands
// arriving on cmds are processed in arrival order; a command that arrives
// after a timeout fired applies to the following cycle.
//
// The persisted duration is re-read at the start of each cycle, so edits
// take effect only after the cycle in progress completes.
func (s *Scheduler) Run(ctx context.Context, cmds <-chan Command) error {
	cfg, err := s.store.Load()
	if err != nil {
		return err
	}

	if err := s.rotate(cfg); err != nil {
		if startupFatal(err) {
			return err
		}
		log.Errorf("Initial rotation failed: %v", err)
	}

	// active governs the sleep currently in progress. It is refreshed only
	// at rotation boundaries, never by a mid-cycle duration change.
	active := cfg.Duration.Std()
	timer := time.NewTimer(active)
	defer timer.Stop()
	log.Infof("Rotating wallpapers every %s", active)

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopping")
			return nil

		case <-timer.C:
			// Reload boundary: pick up external config edits before rotating.
			if fresh, err := s.store.Load(); err != nil {
				log.Warnf("Could not reload config, keeping previous: %v", err)
			} else {
				cfg = fresh
			}
			if err := s.rotate(cfg); err != nil {
				log.Errorf("Rotation failed: %v", err)
			}
			// The deadline advances even when the rotation failed, so a
			// single bad cycle cannot stall the loop.
			active = cfg.Duration.Std()
			timer.Reset(active)

		case cmd, ok := <-cmds:
			if !ok {
				cmds = nil
				continue
			}
			switch cmd.Kind {
			case KindNext:
				log.Info("Command: next")
				if err := s.rotate(cfg); err != nil {
					log.Errorf("Rotation failed: %v", err)
				}
				active = cfg.Duration.Std()
				resetTimer(timer, active)

			case KindToggle:
				cfg.Current = cycler.Advance(cfg)
				log.Infof("Command: toggle, active directory now %d (%s)", cfg.Current, cfg.Dirs[cfg.Current])
				if err := s.store.Save(cfg); err != nil {
					log.Errorf("Could not persist directory change: %v", err)
				}
				// Deadline untouched; the new directory takes effect at the
				// next rotation.

			case KindSetDuration:
				if cmd.Duration <= 0 {
					log.Warnf("Ignoring non-positive duration %s", cmd.Duration)
					continue
				}
				cfg.Duration = config.Duration(cmd.Duration)
				log.Infof("Command: duration %s, effective next cycle", cmd.Duration)
				if err := s.store.Save(cfg); err != nil {
					log.Errorf("Could not persist duration change: %v", err)
				}
				// active and the running timer stay untouched: duration
				// edits are observed at the next cycle boundary only.
			}
		}
	}
}

// RotateOnce performs a single rotation and exits. Used by the one-shot
// `next` invocation when no daemon is running; all errors surface to the
// caller since there is no following cycle to retry on.
func (s *Scheduler) RotateOnce() error {
	cfg, err := s.store.Load()
	if err != nil {
		return err
	}
	return s.rotate(cfg)
}

// ToggleOnce advances to the next directory, persists the change, and
// applies a fresh wallpaper from it right away, matching the behavior of a
// CLI toggle.
func (s *Scheduler) ToggleOnce() error {
	cfg, err := s.store.Load()
	if err != nil {
		return err
	}
	cfg.Current = cycler.Advance(cfg)
	if err := s.store.Save(cfg); err != nil {
		return err
	}
	return s.rotate(cfg)
}

// SetDurationOnce validates and persists a new rotation duration.
func (s *Scheduler) SetDurationOnce(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration %s must be positive", d)
	}
	cfg, err := s.store.Load()
	if err != nil {
		return err
	}
	cfg.Duration = config.Duration(d)
	return s.store.Save(cfg)
}

// rotate selects a wallpaper from the active directory, applies it, and
// persists the updated config. It prefers the pre-selected cache entry for
// the active directory and refills the cache for every directory
// afterwards, so the following rotation needs no enumeration.
//
// On apply failure last_wallpaper stays unchanged so the next attempt
// still avoids the previously visible image.
func (s *Scheduler) rotate(cfg *config.Config) error {
	dir, err := cycler.Active(cfg)
	if err != nil {
		return err
	}
	p, err := picker.New(cfg.Patterns)
	if err != nil {
		return err
	}

	choice := cachedNext(cfg, dir)
	if choice == "" {
		choice, err = p.PickFrom(dir, cfg.LastWallpaper)
		if err != nil {
			return err
		}
	}

	if err := s.set.Apply(choice); err != nil {
		utils.SendNotification(cfg.Notifications, "wallch", fmt.Sprintf("Could not set wallpaper: %v", err))
		return err
	}
	log.Infof("Set wallpaper %s", choice)

	cfg.LastWallpaper = choice
	refillNext(cfg, p)
	if err := s.store.Save(cfg); err != nil {
		return fmt.Errorf("persist rotation: %w", err)
	}
	return nil
}

// cachedNext returns the pre-selected candidate for the active directory,
// or "" when the cache is absent, stale, or would repeat the current
// wallpaper.
func cachedNext(cfg *config.Config, dir string) string {
	if len(cfg.Next) != len(cfg.Dirs) {
		return ""
	}
	entry := cfg.Next[cfg.Current]
	if entry == "" || entry == cfg.LastWallpaper {
		return ""
	}
	if _, err := os.Stat(entry); err != nil {
		return ""
	}
	return entry
}

// refillNext pre-selects one candidate per directory. A directory that
// yields no candidate gets an empty entry, which rotate treats as a miss.
func refillNext(cfg *config.Config, p *picker.Picker) {
	next := make([]string, len(cfg.Dirs))
	for i, dir := range cfg.Dirs {
		exclude := ""
		if i == cfg.Current {
			exclude = cfg.LastWallpaper
		}
		choice, err := p.PickFrom(dir, exclude)
		if err != nil {
			log.Debugf("No pre-selection for %s: %v", dir, err)
			continue
		}
		next[i] = choice
	}
	cfg.Next = next
}

// startupFatal reports whether a rotation error should abort startup
// rather than be retried on the next cycle.
func startupFatal(err error) bool {
	return errors.Is(err, config.ErrNoDirectories) ||
		errors.Is(err, config.ErrOutOfRange) ||
		errors.Is(err, picker.ErrNoCandidates)
}

// resetTimer restarts t for d, draining a concurrently fired tick so the
// completed timeout is not replayed on top of the command that won the
// race.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
