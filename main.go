// pulsebar is a status line generator for i3bar-compatible bars.
//
// It polls a set of configured blocks (time tracking, system metrics, a
// clock) and emits the i3bar JSON protocol on stdout, consuming click
// events on stdin. Blocks are declared as [[block]] tables in a TOML
// config file.
//
// Usage:
//
//	pulsebar [flags]
//
// Flags:
//
//	-config string  Path to configuration file (default: ~/.config/pulsebar/config.toml)
//	-once           Run a single update pass and print plain text
//	-preview        Run a single update pass and print an ANSI-styled line
//	-validate       Check the configuration and exit
//	-send string    Send a command to a running bar's control socket
//	-verbose        Enable verbose logging
//	-version        Print version and exit
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"

	"gitlab.com/tinyland/lab/pulsebar/pkg/bar"
	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/config"
	"gitlab.com/tinyland/lab/pulsebar/pkg/ipc"
	"gitlab.com/tinyland/lab/pulsebar/pkg/protocol"

	// Block implementations register themselves with the block registry.
	_ "gitlab.com/tinyland/lab/pulsebar/pkg/blocks/clock"
	_ "gitlab.com/tinyland/lab/pulsebar/pkg/blocks/sysmetrics"
	_ "gitlab.com/tinyland/lab/pulsebar/pkg/blocks/timewarrior"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		runOnce     = flag.Bool("once", false, "Run a single update pass and print plain text")
		runPreview  = flag.Bool("preview", false, "Run a single update pass and print an ANSI-styled line")
		runValidate = flag.Bool("validate", false, "Check the configuration and exit")
		sendCmd     = flag.String("send", "", "Send a command to a running bar's control socket")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("pulsebar %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *sendCmd != "" {
		if cfg.IPCSocket == "" {
			fmt.Fprintln(os.Stderr, "no ipc_socket configured")
			os.Exit(1)
		}
		resp, err := ipc.NewClient(cfg.IPCSocket).SendCommand(*sendCmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Println(resp)
		os.Exit(0)
	}

	logger, closeLog, err := newLogger(cfg.LogFile, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	shared, err := cfg.Shared(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	switch {
	case *runValidate:
		if _, err := bar.New(cfg, shared, io.Discard); err != nil {
			fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("configuration OK (%s)\n", path)

	case *runOnce:
		b, err := bar.New(cfg, shared, io.Discard)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
			os.Exit(1)
		}
		if err := b.RunOnce(os.Stdout); err != nil {
			logger.Error("update pass failed", "error", err)
			os.Exit(1)
		}

	case *runPreview:
		b, err := bar.New(cfg, shared, io.Discard)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(b.Preview())

	default:
		if err := runBar(ctx, cancel, cfg, path, logger); err != nil && err != context.Canceled {
			logger.Error("bar error", "error", err)
			os.Exit(1)
		}
	}
}

// loadConfig resolves and loads the configuration, returning the config and
// the path it came from.
func loadConfig(flagPath string) (*config.Config, string, error) {
	if flagPath != "" {
		cfg, err := config.LoadFromFile(flagPath)
		return cfg, flagPath, err
	}
	for _, p := range config.SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			cfg, err := config.LoadFromFile(p)
			return cfg, p, err
		}
	}
	return nil, "", fmt.Errorf("no config.toml found in %v", config.SearchPaths())
}

// newLogger builds the slog logger: stderr always, plus a copy to the
// configured log file when set.
func newLogger(logFile string, verbose bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeLog := func() {}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeLog, nil
}

// runBar drives the live bar: protocol stream on stdout, clicks on stdin,
// optional control socket, and config reload on file change. The protocol
// writer outlives individual Bar instances so the header is emitted once.
func runBar(ctx context.Context, quit context.CancelFunc, cfg *config.Config, path string, logger *slog.Logger) error {
	pw := protocol.NewWriter(os.Stdout)

	clicks := make(chan protocol.ClickEvent, 8)
	go func() {
		if err := protocol.ReadClicks(os.Stdin, clicks); err != nil {
			logger.Warn("click stream ended", "error", err)
		}
	}()

	for {
		shared, err := cfg.Shared(logger)
		if err != nil {
			return err
		}
		b, err := bar.NewWithWriter(cfg, shared, pw)
		if err != nil {
			return err
		}

		runCtx, stop := context.WithCancel(ctx)

		var srv *ipc.Server
		if cfg.IPCSocket != "" {
			pidPath := cfg.IPCSocket + ".pid"
			if err := ipc.AcquirePID(pidPath); err != nil {
				stop()
				return err
			}
			srv = ipc.NewServer(cfg.IPCSocket, &barHandler{bar: b, quit: quit})
			if err := srv.Start(); err != nil {
				ipc.ReleasePID(pidPath)
				stop()
				return err
			}
			logger.Info("control socket listening", "path", cfg.IPCSocket)
		}

		changed, err := config.Watch(runCtx, path, logger)
		if err != nil {
			logger.Warn("config watch unavailable", "error", err)
		}
		var reloaded atomic.Bool
		go func() {
			select {
			case <-runCtx.Done():
			case _, ok := <-changed:
				if ok {
					reloaded.Store(true)
					stop()
				}
			}
		}()

		err = b.Run(runCtx, clicks)
		stop()
		if srv != nil {
			srv.Stop()
			ipc.ReleasePID(cfg.IPCSocket + ".pid")
		}

		if ctx.Err() != nil || !reloaded.Load() {
			return err
		}

		logger.Info("config changed, reloading", "path", path)
		next, err := config.LoadFromFile(path)
		if err != nil {
			// Keep running with the previous config rather than dying on a
			// half-saved file.
			logger.Error("reload failed, keeping previous config", "error", err)
		} else {
			cfg = next
		}
	}
}

// barHandler implements the control socket commands against a running bar.
type barHandler struct {
	bar  *bar.Bar
	quit context.CancelFunc
}

func (h *barHandler) HandleCommand(cmd string, args []string) (string, error) {
	switch cmd {
	case "PING":
		return fmt.Sprintf(`{"status":"ok","version":%q}`, version), nil

	case "STATUS":
		data, err := json.Marshal(h.bar.Statuses())
		if err != nil {
			return "", err
		}
		return string(data), nil

	case "REFRESH":
		ids := h.bar.BlockIDs()
		if len(args) > 0 {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return "", fmt.Errorf("bad block id %q", args[0])
			}
			ids = []int{id}
		}
		for _, id := range ids {
			h.bar.Tasks() <- blocks.Task{ID: id}
		}
		return fmt.Sprintf(`{"refreshed":%d}`, len(ids)), nil

	case "QUIT":
		h.quit()
		return `{"status":"stopping"}`, nil

	default:
		return "", fmt.Errorf("unknown command %q (supported: PING, STATUS, REFRESH, QUIT)", cmd)
	}
}
