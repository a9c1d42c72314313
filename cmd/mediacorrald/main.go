// Command mediacorrald is the coordinator daemon: it owns the blob store,
// the relational index, the catalog client, the export renderer, and one
// drive.Machine actor for every drive exposed by a remote cmd/drivectl host
// over internal/drivehttp (it drives no hardware attached to its own host).
// It exposes its functionality to cmd/mediacorralctl and other callers over
// the plain HTTP/JSON transport in internal/coordinatorhttp.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediacorral/internal/blobstore"
	"mediacorral/internal/config"
	"mediacorral/internal/coordinatorhttp"
	"mediacorral/internal/drive"
	"mediacorral/internal/drivehttp"
	"mediacorral/internal/export"
	"mediacorral/internal/idx"
	"mediacorral/internal/lifecycle"
	"mediacorral/internal/logging"
	"mediacorral/internal/matcher"
	"mediacorral/internal/ocr"
	"mediacorral/internal/ocr/tesseract"
	"mediacorral/internal/opensubtitles"
)

// lifecycleLanguage selects the OCR engine pool and preferred subtitle
// track language. There is no per-install config knob for it yet; English
// covers every disc in the reference corpus this build was grounded on.
const lifecycleLanguage = "eng"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mediacorrald:", err)
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

	cfg, resolvedPath, _, err := config.LoadCoordinator(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldComponent, "mediacorrald"))
	logger.Info("starting coordinator",
		logging.String("config_path", resolvedPath),
		logging.String("serve_address", cfg.ServeAddress),
		logging.Int("drive_controller_count", len(cfg.DriveControllers)),
	)

	if err := os.MkdirAll(cfg.DataDirectory, 0o755); err != nil {
		return fmt.Errorf("prepare data directory: %w", err)
	}

	blobs, err := blobstore.Open(cfg.DataDirectory)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	defer blobs.Close()

	index, err := idx.Open(cfg.DataDirectory)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer index.Close()

	catalog, err := opensubtitles.New(opensubtitles.Config{
		APIKey:   cfg.OSTLogin.APIKey,
		Username: cfg.OSTLogin.Username,
		Password: cfg.OSTLogin.Password,
	})
	if err != nil {
		return fmt.Errorf("build catalog client: %w", err)
	}

	engines := ocr.NewEngineCache(tesseract.Factory)
	matcherEngine := matcher.New(index, blobs, catalog)
	tagger := lifecycle.New(index, blobs, matcherEngine, engines, lifecycleLanguage, logger)

	exportTargets := make([]export.Target, 0, len(cfg.ExportsDirs))
	for name, spec := range cfg.ExportsDirs {
		if err := os.MkdirAll(spec.Dir, 0o755); err != nil {
			return fmt.Errorf("prepare export dir %s: %w", name, err)
		}
		mediaType := export.MediaMovies
		if spec.MediaType == "tv" {
			mediaType = export.MediaTvShows
		}
		linkType := export.LinkHard
		if spec.LinkType == "symlink" {
			linkType = export.LinkSymbolic
		}
		exportTargets = append(exportTargets, export.Target{Name: name, Dir: spec.Dir, MediaType: mediaType, LinkType: linkType})
	}
	exporter, err := export.New(exportTargets, blobs, index)
	if err != nil {
		return fmt.Errorf("build export renderer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var coordServer *coordinatorhttp.Server
	onDiscInserted := func(_ context.Context, _ string) bool {
		if coordServer == nil {
			return false
		}
		return coordServer.Autorip()
	}

	machines, order, err := buildMachines(ctx, cfg, blobs, index, tagger, logger, onDiscInserted)
	if err != nil {
		return fmt.Errorf("build drive machines: %w", err)
	}

	coordServer = coordinatorhttp.NewServer(logger, index, blobs, catalog, exporter, machines, order, cfg.EnableAutorip)

	for _, id := range order {
		go machines[id].Run(ctx)
	}

	httpServer := &http.Server{
		Handler:           coordServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", cfg.ServeAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ServeAddress, err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	logger.Info("coordinator listening", logging.String("address", listener.Addr().String()))

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

// buildMachines enumerates each configured drive-controller host's drives
// over internal/drivehttp and builds one drive.Machine per remote drive,
// using a drivehttp.Client (which implements both drive.TrayController and
// drive.Ripper) as the machine's hardware adapter. The coordinator never
// talks to hardware directly; it only ever drives a remote drivectl host,
// since it alone holds the blob store's single-writer lock.
func buildMachines(ctx context.Context, cfg *config.CoordinatorConfig, blobs *blobstore.Store, index *idx.Store,
	tagger drive.Tagger, logger *slog.Logger, onDiscInserted func(context.Context, string) bool) (map[string]*drive.Machine, []string, error) {
	machines := make(map[string]*drive.Machine)
	var order []string

	for name, address := range cfg.DriveControllers {
		remoteDrives, err := drivehttp.ListDrives(ctx, address, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("listing drives on controller %s (%s): %w", name, address, err)
		}
		for _, d := range remoteDrives {
			if _, dup := machines[d.ID]; dup {
				return nil, nil, fmt.Errorf("drive ID %q is served by more than one controller", d.ID)
			}
			client := drivehttp.NewClient(address, d.ID, nil)
			driveLogger := logger.With(logging.String("drive_id", d.ID), logging.String("controller", name))
			m := drive.NewMachine(d.ID, d.Path, client, client, blobs, index, tagger, driveLogger, onDiscInserted)
			machines[d.ID] = m
			order = append(order, d.ID)
		}
	}

	return machines, order, nil
}
