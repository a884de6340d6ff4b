// Command zes bridges a terminal shell to the host windowing system's
// PRIMARY selection and CLIPBOARD state, over X11/XFixes or Wayland
// (primary-selection-unstable-v1 + wl_data_device), auto-detected from the
// environment.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/zsh-edit-select/zes/internal/backend"
	x11backend "github.com/zsh-edit-select/zes/internal/backend/x11"
	waylandbackend "github.com/zsh-edit-select/zes/internal/backend/wayland"
	"github.com/zsh-edit-select/zes/internal/copyserver"
	"github.com/zsh-edit-select/zes/internal/detect"
	"github.com/zsh-edit-select/zes/internal/modearg"
	"github.com/zsh-edit-select/zes/internal/rendezvous"
	"github.com/zsh-edit-select/zes/internal/zesconfig"
	"github.com/zsh-edit-select/zes/internal/zeslog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	parsed, err := modearg.Parse(argv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if parsed.Mode == modearg.ModeHelp {
		fmt.Print(modearg.HelpText)
		return 0
	}

	cfg, err := zesconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if parsed.Internal {
		return runInternalCopyServe(parsed, cfg)
	}

	if parsed.Mode == modearg.ModeDaemon && !parsed.InternalDaemon {
		return launchDaemon(parsed)
	}

	logFile := ""
	if parsed.Mode == modearg.ModeDaemon {
		logFile = cfg.LogFile
	}
	log, err := zeslog.New(zeslog.Options{Level: cfg.LogLevel, LogFile: logFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	result, err := detect.Detect()
	if err != nil {
		log.Error("backend detection failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		if parsed.InternalDaemon {
			copyserver.SignalReady(false)
		}
		return 1
	}
	log.Info("backend detected", zap.String("kind", result.Kind.String()), zap.String("reason", result.Reason))

	preferRuntimeDir := result.Kind != detect.X11Native
	cacheDir, err := rendezvous.ResolveDir(parsed.CacheDir, preferRuntimeDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if parsed.InternalDaemon {
			copyserver.SignalReady(false)
		}
		return 1
	}

	var store *rendezvous.Store
	if parsed.Mode == modearg.ModeDaemon || parsed.Mode == modearg.ModeOneshot {
		store, err = rendezvous.Open(cacheDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			if parsed.InternalDaemon {
				copyserver.SignalReady(false)
			}
			return 1
		}
	}

	b, err := openBackend(result.Kind, backendConfig(store, log, cfg))
	if err != nil {
		log.Error("backend init failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		if parsed.InternalDaemon {
			copyserver.SignalReady(false)
		}
		return 1
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandlers(cancel, parsed.Mode == modearg.ModeDaemon)

	switch parsed.Mode {
	case modearg.ModeDaemon:
		// Reaching here means this process IS the detached re-exec'd
		// child (the foreground invocation returned from launchDaemon
		// already). Write the PID file, then report readiness over the
		// inherited pipe before entering the event loop.
		if err := daemonize(store, log); err != nil {
			copyserver.SignalReady(false)
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		copyserver.SignalReady(true)
		if err := b.Daemon(ctx); err != nil {
			log.Error("daemon loop terminated", zap.Error(err))
			_ = store.Cleanup()
			return 0
		}
		_ = store.Cleanup()
		return 0

	case modearg.ModeOneshot:
		data, ok, err := b.OneShot(ctx)
		if err != nil {
			log.Error("oneshot failed", zap.Error(err))
			return 1
		}
		if !ok {
			return 1
		}
		os.Stdout.Write(data)
		return 0

	case modearg.ModeGetClipboard:
		data, err := b.GetClipboard(ctx)
		if err != nil {
			log.Error("get-clipboard failed", zap.Error(err))
			return 1
		}
		os.Stdout.Write(data)
		return 0

	case modearg.ModeCopyClipboard:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data = backend.Truncate(data, cfg.MaxClipboardSize)
		if err := b.CopyClipboard(ctx, data); err != nil {
			log.Error("copy-clipboard failed", zap.Error(err))
			return 1
		}
		return 0

	case modearg.ModeClearPrimary:
		if err := b.ClearPrimary(ctx); err != nil {
			log.Error("clear-primary failed", zap.Error(err))
			return 1
		}
		return 0
	}

	return 1
}

// launchDaemon re-execs the current binary as a detached daemon child and
// waits for it to signal readiness, mirroring daemon(0,0) in the original C
// monitor without an actual fork (internal/copyserver's design note).
func launchDaemon(parsed modearg.Parsed) int {
	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var args []string
	if parsed.CacheDir != "" {
		args = append(args, parsed.CacheDir)
	}
	args = append(args, modearg.InternalDaemonFlag)

	if err := copyserver.LaunchDetached(exe, args, copyserver.DaemonReadyTimeout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runInternalCopyServe is the detached child side of the copy-clipboard
// hand-off (internal/copyserver's design note). It never touches stdio
// after reporting readiness, and ignores SIGHUP so the parent shell exiting
// doesn't tear it down.
func runInternalCopyServe(parsed modearg.Parsed, cfg *zesconfig.Config) int {
	signal.Ignore(syscall.SIGHUP)

	data, err := copyserver.ReadPayload(parsed.PayloadPath)
	if err != nil {
		copyserver.SignalReady(false)
		return 1
	}

	log, err := zeslog.New(zeslog.Options{Level: cfg.LogLevel, LogFile: cfg.LogFile})
	if err != nil {
		copyserver.SignalReady(false)
		return 1
	}
	defer log.Sync()

	result, err := detect.Detect()
	if err != nil {
		copyserver.SignalReady(false)
		return 1
	}

	preferRuntimeDir := result.Kind != detect.X11Native
	cacheDir, _ := rendezvous.ResolveDir(parsed.CacheDir, preferRuntimeDir)
	var store *rendezvous.Store
	if cacheDir != "" {
		store, _ = rendezvous.Open(cacheDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()

	switch result.Kind {
	case detect.X11Native, detect.XWayland:
		b, err := x11backend.New(backendConfig(store, log, cfg).x11)
		if err != nil {
			copyserver.SignalReady(false)
			return 1
		}
		defer b.Close()
		if err := b.ServeCopyClipboardChild(ctx, data); err != nil {
			log.Error("copy-clipboard server exited with error", zap.Error(err))
			return 1
		}
		return 0
	case detect.WaylandNative:
		b, err := waylandbackend.New(backendConfig(store, log, cfg).wayland)
		if err != nil {
			copyserver.SignalReady(false)
			return 1
		}
		defer b.Close()
		if err := b.ServeCopyClipboardChild(ctx, data); err != nil {
			log.Error("copy-clipboard server exited with error", zap.Error(err))
			return 1
		}
		return 0
	}
	copyserver.SignalReady(false)
	return 1
}

type backendConfigs struct {
	x11     x11backend.Config
	wayland waylandbackend.Config
}

func backendConfig(store *rendezvous.Store, log *zap.Logger, cfg *zesconfig.Config) backendConfigs {
	return backendConfigs{
		x11: x11backend.Config{
			Store: store, Logger: log,
			MaxSelectionSize: cfg.MaxSelectionSize,
			MaxClipboardSize: cfg.MaxClipboardSize,
			Backoff: x11backend.Backoff{
				FastIterations: cfg.Backoff.FastIterations,
				FastDelayUs:    cfg.Backoff.FastDelayUs,
				MidIterations:  cfg.Backoff.MidIterations,
				MidDelayUs:     cfg.Backoff.MidDelayUs,
				SlowIterations: cfg.Backoff.SlowIterations,
				SlowDelayUs:    cfg.Backoff.SlowDelayUs,
			},
		},
		wayland: waylandbackend.Config{
			Store: store, Logger: log,
			MaxSelectionSize: cfg.MaxSelectionSize,
			MaxClipboardSize: cfg.MaxClipboardSize,
		},
	}
}

func openBackend(kind detect.Kind, cfgs backendConfigs) (backend.Backend, error) {
	switch kind {
	case detect.X11Native, detect.XWayland:
		return x11backend.New(cfgs.x11)
	case detect.WaylandNative:
		return waylandbackend.New(cfgs.wayland)
	default:
		return nil, fmt.Errorf("zes: unsupported backend kind %v", kind)
	}
}

// daemonize writes the PID file after the daemon has connected
// successfully. By the time this runs, the process is already the
// detached re-exec'd child launchDaemon started (Setsid, own session, no
// controlling terminal) — the actual detachment happens before this
// function is ever reached, not inside it.
func daemonize(store *rendezvous.Store, log *zap.Logger) error {
	if store == nil {
		return nil
	}
	if err := store.WritePID(os.Getpid()); err != nil {
		return err
	}
	log.Debug("pid file written", zap.Int("pid", os.Getpid()), zap.String("path", filepath.Join(store.Dir(), "monitor.pid")))
	return nil
}

func setupSignalHandlers(cancel context.CancelFunc, handleHup bool) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	if handleHup {
		// Daemon mode treats SIGHUP like SIGTERM/SIGINT: it cancels the
		// context for an orderly shutdown (so the rendezvous files are
		// cleaned up) instead of letting the default disposition kill it,
		// matching the original C monitors.
		signal.Notify(c, syscall.SIGHUP)
	}
	go func() {
		<-c
		cancel()
	}()
}
