package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sevlyar/go-daemon"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/jpfender/wallch/internal/config"
	"github.com/jpfender/wallch/internal/ipc"
	"github.com/jpfender/wallch/internal/scheduler"
	"github.com/jpfender/wallch/internal/setter"
)

// Set at build time: go build -ldflags "-X main.version=1.2.3"
var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "wallch",
		Usage:   "Wallpaper switcher for GNOME",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("WALLCH_CONFIG"),
				Value:   config.DefaultPath(),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "logging level: debug, info, warn, error",
				Sources: cli.EnvVars("WALLCH_LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "set/change wallpaper duration",
			},
			&cli.IntFlag{
				Name:    "active",
				Aliases: []string{"a"},
				Usage:   "set active wallpaper directory (index into dirs)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "start the wallpaper changer loop",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "daemonize",
						Usage:   "run as daemon",
						Sources: cli.EnvVars("WALLCH_DAEMONIZE"),
					},
				},
				Action: runAction,
			},
			{
				Name:   "next",
				Usage:  "change to a new wallpaper",
				Action: nextAction,
			},
			{
				Name:   "toggle",
				Usage:  "change wallpaper directory and apply a new wallpaper",
				Action: toggleAction,
			},
			{
				Name:   "current",
				Usage:  "print current wallpaper path",
				Action: currentAction,
			},
			{
				Name:      "set-duration",
				Usage:     "update the rotation duration",
				ArgsUsage: "<duration>",
				Action:    setDurationAction,
			},
		},
		Action: rootAction,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// rootAction mirrors a bare invocation: apply the --duration/--active
// overrides when given and write the normalized config back to file.
func rootAction(ctx context.Context, cmd *cli.Command) error {
	store := config.NewStore(cmd.String("config"))
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	setLogLevel(cmd.String("log-level"), cfg.LogLevel)

	dirty := false

	if cmd.IsSet("duration") {
		d := cmd.Duration("duration")
		if d <= 0 {
			return fmt.Errorf("duration %s must be positive", d)
		}
		if daemonRunning(store.Path()) {
			log.Debug("Daemon running, relaying duration change")
			if err := ipc.Send(ipc.SpoolPath(store.Path()), scheduler.Command{Kind: scheduler.KindSetDuration, Duration: d}); err != nil {
				return err
			}
		} else {
			cfg.Duration = config.Duration(d)
			dirty = true
		}
	}

	if cmd.IsSet("active") {
		idx := int(cmd.Int("active"))
		if idx < 0 || idx >= len(cfg.Dirs) {
			return fmt.Errorf("%w: %d of %d", config.ErrOutOfRange, idx, len(cfg.Dirs))
		}
		cfg.Current = idx
		dirty = true
	}

	if !dirty {
		return nil
	}
	return store.Save(cfg)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	store := config.NewStore(cmd.String("config"))
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	setLogLevel(cmd.String("log-level"), cfg.LogLevel)

	pidFile := pidPath(store.Path())

	if cmd.Bool("daemonize") {
		daemonCtx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: filepath.Join(filepath.Dir(store.Path()), "wallch.log"),
			LogFilePerm: 0640,
			WorkDir:     "./",
			Umask:       027,
			Args:        []string{"[wallch-daemon]"},
		}

		d, err := daemonCtx.Reborn()
		if err != nil {
			log.Fatalf("Unable to run: %s", err)
		}
		if d != nil {
			return nil // Parent process exits
		}
		defer daemonCtx.Release()
		log.Info("Daemon started")
	} else {
		log.Info("Running in foreground (not daemonized)")
		if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
			log.Warnf("Could not write PID file: %v", err)
		}
	}

	// Graceful shutdown: the loop only observes cancellation between
	// iterations, so an in-flight save always completes.
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := ipc.Watch(runCtx, ipc.SpoolPath(store.Path()))
	if err != nil {
		return err
	}

	runErr := scheduler.New(store, setter.New()).Run(runCtx, watcher.Commands())

	if err := os.Remove(pidFile); err != nil && !os.IsNotExist(err) {
		log.Warnf("Error removing PID file: %v", err)
	}
	log.Info("Cleanup complete. Exiting.")
	return runErr
}

func nextAction(ctx context.Context, cmd *cli.Command) error {
	store := setup(cmd)
	if daemonRunning(store.Path()) {
		log.Debug("Daemon running, relaying next command")
		return ipc.Send(ipc.SpoolPath(store.Path()), scheduler.Command{Kind: scheduler.KindNext})
	}
	return scheduler.New(store, setter.New()).RotateOnce()
}

func toggleAction(ctx context.Context, cmd *cli.Command) error {
	store := setup(cmd)
	if daemonRunning(store.Path()) {
		log.Debug("Daemon running, relaying toggle command")
		return ipc.Send(ipc.SpoolPath(store.Path()), scheduler.Command{Kind: scheduler.KindToggle})
	}
	return scheduler.New(store, setter.New()).ToggleOnce()
}

func currentAction(ctx context.Context, cmd *cli.Command) error {
	store := setup(cmd)
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	fmt.Println(cfg.LastWallpaper)
	return nil
}

func setDurationAction(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.Args().First()
	if arg == "" {
		return fmt.Errorf("set-duration needs a duration argument, e.g. \"10m\"")
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", arg, err)
	}

	store := setup(cmd)
	if daemonRunning(store.Path()) {
		log.Debug("Daemon running, relaying duration change")
		return ipc.Send(ipc.SpoolPath(store.Path()), scheduler.Command{Kind: scheduler.KindSetDuration, Duration: d})
	}
	return scheduler.New(store, setter.New()).SetDurationOnce(d)
}

// setup resolves the config store and applies the log level for one-shot
// commands.
func setup(cmd *cli.Command) *config.Store {
	store := config.NewStore(cmd.String("config"))
	cfgLevel := ""
	if cfg, err := store.Load(); err == nil {
		cfgLevel = cfg.LogLevel
	}
	setLogLevel(cmd.String("log-level"), cfgLevel)
	return store
}

func setLogLevel(flagLevel, cfgLevel string) {
	level := flagLevel
	if level == "" {
		level = cfgLevel
	}
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// pidPath returns the PID file location next to the config file.
func pidPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "wallch.pid")
}

// daemonRunning reports whether a wallch loop is alive according to the
// PID file, so commands can be relayed instead of applied in-process.
func daemonRunning(configPath string) bool {
	data, err := os.ReadFile(pidPath(configPath))
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
