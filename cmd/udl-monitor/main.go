// Command udl-monitor is an interactive terminal dashboard over the
// attached display adapters: enumerate once at startup, inspect each
// adapter's mode state, watch host resource usage. It does not select
// modes.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/gousb"
	"github.com/spf13/pflag"

	"udl/internal/config"
	"udl/internal/tui"
	"udl/internal/usbtransport"
	"udl/pkg/udl"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to a YAML config file")
	bufSize    = pflag.Int("buffer-size", 4096, "per-device command buffer size in bytes")
	memory     = pflag.Uint32("memory", 16*1024*1024, "assumed adapter framebuffer memory in bytes")
	verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
)

func main() {
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "udl-monitor: loading config:", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Options.Verbose = true
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if cfg.Options.Verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	ctx := gousb.NewContext()
	defer ctx.Close()

	registry := udl.NewRegistry()
	if err := sweepOnce(registry, ctx, cfg, logger); err != nil {
		logger.Warn("initial enumeration sweep failed", "err", err)
	}

	model := tui.NewModel(registry)
	program := tea.NewProgram(model, tea.WithAltScreen())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		logger.Error("tui exited with error", "err", err)
		os.Exit(1)
	}
}

func sweepOnce(registry *udl.Registry, ctx *gousb.Context, cfg *config.Config, logger *log.Logger) error {
	found, err := usbtransport.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("enumerate: %w", err)
	}

	gen := registry.BeginSweep()
	for _, f := range found {
		if !cfg.IsAllowed(f.Serial) {
			logger.Debug("skipping device not in allow-list", "serial", f.Serial)
			continue
		}
		serial, typ, dev := f.Serial, f.Type, f.Dev
		registry.Touch(serial, gen, func() *udl.Device {
			transport, err := usbtransport.Open(ctx, dev, logger)
			if err != nil {
				logger.Warn("failed to open device", "serial", serial, "err", err)
				return udl.NewDevice(serial, typ, nil, *memory, *bufSize, cfg.Options)
			}
			return udl.NewDevice(serial, typ, transport, *memory, *bufSize, cfg.Options)
		})
	}
	registry.EndSweep(gen)
	return nil
}
