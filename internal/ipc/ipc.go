// Package ipc relays commands from one-shot CLI invocations to a running
// wallch loop. Commands are appended as text lines to a spool file next to
// the config; the running side watches the spool with fsnotify and consumes
// it in arrival order.
package ipc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/jpfender/wallch/internal/scheduler"
)

// SpoolPath returns the command spool location for a given config file.
func SpoolPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "wallch.cmd")
}

// Send appends a command to the spool. O_APPEND keeps concurrent senders
// ordered without locking.
func Send(spool string, cmd scheduler.Command) error {
	line, err := encode(cmd)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(spool, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open command spool: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write command spool: %w", err)
	}
	return nil
}

// Watcher watches the spool file and delivers parsed commands.
type Watcher struct {
	fsw   *fsnotify.Watcher
	spool string
	cmds  chan scheduler.Command
}

// Watch starts watching the spool's directory. Commands already spooled
// before the watcher started are delivered first. The watcher shuts down
// and closes its channel when ctx is cancelled.
func Watch(ctx context.Context, spool string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(spool)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(spool), err)
	}

	w := &Watcher{fsw: fsw, spool: spool, cmds: make(chan scheduler.Command, 16)}
	go w.loop(ctx)
	return w, nil
}

// Commands returns the channel commands are delivered on.
func (w *Watcher) Commands() <-chan scheduler.Command { return w.cmds }

func (w *Watcher) loop(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.cmds)

	// Deliver anything spooled while no daemon was running.
	w.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name == w.spool && (event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				w.drain(ctx)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Errorf("Spool watch error: %v", err)
		}
	}
}

// drain claims the spool by renaming it aside, then parses and emits each
// line in order. Renaming first means a concurrent sender appends to a
// fresh spool instead of racing the read.
func (w *Watcher) drain(ctx context.Context) {
	claimed := fmt.Sprintf("%s.%d", w.spool, time.Now().UnixNano())
	if err := os.Rename(w.spool, claimed); err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("Could not claim command spool: %v", err)
		}
		return
	}

	data, err := os.ReadFile(claimed)
	os.Remove(claimed)
	if err != nil {
		log.Warnf("Could not read command spool: %v", err)
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := Parse(line)
		if err != nil {
			log.Warnf("Ignoring command %q: %v", line, err)
			continue
		}
		select {
		case w.cmds <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

// Parse decodes one spool line into a command.
func Parse(line string) (scheduler.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return scheduler.Command{}, fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "next":
		return scheduler.Command{Kind: scheduler.KindNext}, nil
	case "toggle":
		return scheduler.Command{Kind: scheduler.KindToggle}, nil
	case "duration":
		if len(fields) != 2 {
			return scheduler.Command{}, fmt.Errorf("duration command needs an argument")
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			return scheduler.Command{}, fmt.Errorf("bad duration %q: %w", fields[1], err)
		}
		if d <= 0 {
			return scheduler.Command{}, fmt.Errorf("duration %q must be positive", fields[1])
		}
		return scheduler.Command{Kind: scheduler.KindSetDuration, Duration: d}, nil
	}
	return scheduler.Command{}, fmt.Errorf("unknown command %q", fields[0])
}

func encode(cmd scheduler.Command) (string, error) {
	switch cmd.Kind {
	case scheduler.KindNext:
		return "next", nil
	case scheduler.KindToggle:
		return "toggle", nil
	case scheduler.KindSetDuration:
		if cmd.Duration <= 0 {
			return "", fmt.Errorf("duration %s must be positive", cmd.Duration)
		}
		return "duration " + cmd.Duration.String(), nil
	}
	return "", fmt.Errorf("unknown command kind %d", cmd.Kind)
}
