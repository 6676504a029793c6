package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	httpapi "github.com/i474232898/gridmet-summary/internal/api/http"
	"github.com/i474232898/gridmet-summary/internal/config"
	"github.com/i474232898/gridmet-summary/internal/earthengine"
	"github.com/i474232898/gridmet-summary/internal/export"
	"github.com/i474232898/gridmet-summary/internal/gridmet"
	"github.com/i474232898/gridmet-summary/internal/observability"
	"github.com/i474232898/gridmet-summary/internal/scheduler"
	"github.com/i474232898/gridmet-summary/internal/store"
	"github.com/i474232898/gridmet-summary/internal/summary"
)

const usage = `usage: gridmet-summary [serve | export <flags> | preview <flags>]`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(cfg, log)
	case "export":
		err = runExport(cfg, log, args)
	case "preview":
		err = runPreview(args, os.Stdout)
	default:
		err = fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	var verr *gridmet.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		fmt.Fprintln(os.Stderr, verr.Error())
		os.Exit(2)
	default:
		log.Error("command failed",
			zap.String("command", cmd),
			zap.Error(err),
		)
		os.Exit(1)
	}
}

// app bundles the long-lived collaborators shared by serve and export.
type app struct {
	service  *summary.Service
	registry *prometheus.Registry
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(a.registry)

	// One Earth Engine session for the life of the process.
	session, err := earthengine.NewSession(ctx, earthengine.Config{
		Project:         cfg.EarthEngineProject,
		BaseURL:         cfg.EarthEngineBaseURL,
		CredentialsFile: cfg.EarthEngineCredentials,
		Timeout:         cfg.EarthEngineTimeout,
		Logger:          log.Named("earthengine"),
		OnStateChange:   metrics.ObserveCircuit,
	})
	if err != nil {
		return nil, fmt.Errorf("open earth engine session: %w", err)
	}
	a.closers = append(a.closers, session.Close)

	sink, err := newSink(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	clock := clockwork.NewRealClock()
	exporter := export.NewExporter(log.Named("export"), session, sink)
	records := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)
	a.service = summary.NewService(log.Named("summary"), records, exporter, metrics, clock)
	return a, nil
}

func newSink(ctx context.Context, cfg *config.AppConfig, a *app) (export.Sink, error) {
	if cfg.GCSBucket != "" {
		var opts []option.ClientOption
		if cfg.EarthEngineCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.EarthEngineCredentials))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("open storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return export.NewGCSSink(client, cfg.GCSBucket, cfg.GCSPrefix), nil
	}

	root, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	return export.NewFSSink(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func runPreview(args []string, w io.Writer) error {
	req, err := parseRequestFlags("preview", args)
	if err != nil {
		return err
	}
	d, err := gridmet.Build(req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func runExport(cfg *config.AppConfig, log *zap.Logger, args []string) error {
	req, err := parseRequestFlags("export", args)
	if err != nil {
		return err
	}
	// Reject bad input before authenticating.
	if _, err := gridmet.Build(req); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.service.Run(ctx, req)
	if err != nil {
		return err
	}
	for _, f := range rec.Files {
		fmt.Println(f)
	}
	return nil
}

func serve(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// Scheduler that periodically runs the configured preset exports.
	sched := scheduler.New(log.Named("scheduler"), cfg.Jobs, cfg.JobTimeout, a.service)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	server := fiber.New(fiber.Config{
		AppName:               "gridmet-summary",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Exports block on the platform for up to the session timeout.
		WriteTimeout: cfg.EarthEngineTimeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	server.Use(logger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "gridmet-summary",
		})
	})

	httpapi.RegisterRoutes(server, a.service)
	httpapi.RegisterMetrics(server, a.registry)

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := server.Listen(cfg.Addr); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("error during shutdown", zap.Error(err))
	}
	return nil
}
