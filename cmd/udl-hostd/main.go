// Command udl-hostd is a small daemon: it runs a periodic USB
// enumeration sweep against a Registry and serves the read-only
// introspection API over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/gousb"
	"github.com/spf13/pflag"

	"udl/internal/config"
	"udl/internal/httpapi"
	"udl/internal/usbtransport"
	"udl/pkg/udl"
)

const portFile = "/tmp/udl-hostd.port"

var (
	configPath    = pflag.StringP("config", "c", "", "path to a YAML config file")
	addr          = pflag.String("addr", ":0", "HTTP listen address (port 0 picks an open port)")
	sweepEvery    = pflag.Duration("sweep-interval", 5*time.Second, "USB enumeration sweep period")
	bufSize       = pflag.Int("buffer-size", 4096, "per-device command buffer size in bytes")
	memory        = pflag.Uint32("memory", 16*1024*1024, "assumed adapter framebuffer memory in bytes")
	writePortFile = pflag.Bool("write-port-file", true, "write the bound port to "+portFile)
)

func main() {
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "udl-hostd: loading config:", err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if cfg.Options.Verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	registry := udl.NewRegistry()
	ctx := gousb.NewContext()
	defer ctx.Close()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal("failed to listen", "addr", *addr, "err", err)
	}
	boundAddr := lis.Addr().String()
	logger.Info("listening", "addr", boundAddr)

	if *writePortFile {
		if err := writePort(boundAddr); err != nil {
			logger.Warn("failed to write port file", "err", err)
		}
		defer os.Remove(portFile)
	}

	server := httpapi.NewServer(registry)
	httpServer := &http.Server{Handler: server.Handler()}

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go runSweepLoop(sweepCtx, registry, ctx, cfg, logger)

	go func() {
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancelSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func runSweepLoop(ctx context.Context, registry *udl.Registry, usbCtx *gousb.Context, cfg *config.Config, logger *log.Logger) {
	ticker := time.NewTicker(*sweepEvery)
	defer ticker.Stop()

	sweep := func() {
		found, err := usbtransport.Enumerate(usbCtx)
		if err != nil {
			logger.Warn("enumeration sweep failed", "err", err)
			return
		}
		gen := registry.BeginSweep()
		for _, f := range found {
			if !cfg.IsAllowed(f.Serial) {
				continue
			}
			serial, typ, dev := f.Serial, f.Type, f.Dev
			registry.Touch(serial, gen, func() *udl.Device {
				transport, err := usbtransport.Open(usbCtx, dev, logger)
				if err != nil {
					logger.Warn("failed to open device", "serial", serial, "err", err)
					return udl.NewDevice(serial, typ, nil, *memory, *bufSize, cfg.Options)
				}
				return udl.NewDevice(serial, typ, transport, *memory, *bufSize, cfg.Options)
			})
		}
		removed := registry.EndSweep(gen)
		for _, d := range removed {
			logger.Info("device detached", "serial", d.Serial)
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func writePort(boundAddr string) error {
	logger := log.Default()
	logger.Debug("writing port file", "path", portFile, "addr", boundAddr)
	return os.WriteFile(portFile, []byte(boundAddr), 0o644)
}
