// Command drivectl is the drive-controller daemon (C1/C2's "hands"): it
// owns the optical drives physically attached to this host and exposes
// raw tray control and MakeMKV rip execution to a coordinator over HTTP.
// It never touches a blob store or index; the coordinator decides what a
// finished rip means.
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

	"mediacorral/internal/config"
	"mediacorral/internal/drive"
	"mediacorral/internal/drive/hwtray"
	"mediacorral/internal/drivehttp"
	"mediacorral/internal/logging"
	"mediacorral/internal/ripperbridge"
)

const ripperBinary = "makemkvcon"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "drivectl:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	for i, arg := range os.Args[1:] {
		if arg == "--config" && i+2 <= len(os.Args[1:]) {
			configPath = os.Args[i+2]
		}
	}

	cfg, resolvedPath, _, err := config.LoadDriveController(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldComponent, "drivectl"))
	logger.Info("starting drive controller",
		logging.String("config_path", resolvedPath),
		logging.String("address", cfg.Address),
		logging.Int("drive_count", len(cfg.Drives)),
	)

	if err := os.MkdirAll(cfg.RipDirectory, 0o755); err != nil {
		return fmt.Errorf("prepare rip directory: %w", err)
	}

	drives := make([]drivehttp.Drive, 0, len(cfg.Drives))
	var monitors []*drive.DiscMonitor
	for _, spec := range cfg.Drives {
		ripper, err := ripperbridge.New(ripperBinary, ripperbridge.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("build ripper for drive %s: %w", spec.Name, err)
		}
		drives = append(drives, drivehttp.Drive{
			ID:     spec.Name,
			Name:   spec.Name,
			Path:   spec.Path,
			Tray:   hwtray.New(spec.Path),
			Ripper: ripper,
		})

		driveLogger := logger.With(logging.String("drive_id", spec.Name))
		monitor := drive.NewDiscMonitor(spec.Path, driveLogger, func(device string) {
			driveLogger.Info("udev reported media insertion",
				logging.String(logging.FieldEventType, "udev_disc_inserted"),
			)
		})
		monitors = append(monitors, monitor)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, m := range monitors {
		m.Start(ctx)
	}
	defer func() {
		for _, m := range monitors {
			m.Stop()
		}
	}()

	server := drivehttp.NewServer(cfg.RipDirectory, drives, logger)
	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	logger.Info("drive controller listening", logging.String("address", listener.Addr().String()))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
