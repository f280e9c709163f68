// cmd/hp82240/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"hp82240-service/internal/config"
	"hp82240-service/internal/database"
	"hp82240-service/internal/model"
	"hp82240-service/internal/paper"
	"hp82240-service/internal/protocol"
	"hp82240-service/internal/repository"
	"hp82240-service/internal/routes"
	"hp82240-service/internal/service"
	"hp82240-service/internal/utils"
)

// Application is the emulated printer with its input source, paper sinks
// and optional HTTP service
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	source    protocol.Source
	roll      *paper.Roll
	files     *paper.FilePaper
	bus       *service.EventBus
	printer   *service.PrinterService
	paperRepo repository.PaperRepository
	archive   *paper.ArchivePaper
	session   *model.PrintSession
}

func main() {
	flags := config.Flags("hp82240")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app, err := NewApplication(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Error("Application failed", zap.Error(err))
		utils.CloseLogger(app.logger)
		os.Exit(1)
	}
}

// NewApplication creates a new application instance
func NewApplication(flags *pflag.FlagSet) (*Application, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "hp82240")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg.Printer)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeSource(); err != nil {
		return nil, fmt.Errorf("failed to initialize input source: %w", err)
	}

	if err := app.initializeArchive(); err != nil {
		return nil, fmt.Errorf("failed to initialize paper archive: %w", err)
	}

	if err := app.initializePrinter(); err != nil {
		return nil, fmt.Errorf("failed to initialize printer: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeSource creates the input source
func (app *Application) initializeSource() error {
	src, err := protocol.NewSource(app.config, app.logger)
	if err != nil {
		return err
	}
	app.source = src
	return nil
}

// initializeArchive connects the database, runs migrations and opens the
// print session. It does nothing unless the archive is enabled.
func (app *Application) initializeArchive() error {
	app.session = model.NewPrintSession(app.source.Name(), app.config.Printer.Model)
	if !app.config.Archive.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(ctx, app.config.GetDatabaseDSN(), &app.config.Archive.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if err := database.NewMigrator(db, app.logger).Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.paperRepo = repository.NewPaperRepository(db, app.logger)
	if err := app.paperRepo.CreateSession(ctx, app.session); err != nil {
		return fmt.Errorf("failed to create print session: %w", err)
	}
	app.archive = paper.NewArchivePaper(app.paperRepo, app.session.ID, app.config.Archive.QueueSize, app.logger)

	app.logger.Info("Paper archive initialized", zap.String("session_id", app.session.ID.String()))
	return nil
}

// initializePrinter creates the paper sinks and the printer
func (app *Application) initializePrinter() error {
	app.roll = paper.NewRoll(app.config.Paper.RollSize)
	app.bus = service.NewEventBus(app.logger)

	var sinks []paper.LineSink
	if app.archive != nil {
		sinks = append(sinks, app.archive)
	}

	var extra []paper.Paper
	if app.config.Paper.WriteFiles {
		files, err := paper.NewFilePaper(
			app.config.Paper.OutputDir,
			app.config.Paper.TextFile,
			app.config.Paper.ImageFile,
			paper.RenderOptions{Scale: app.config.Paper.Scale},
			app.logger,
		)
		if err != nil {
			return err
		}
		app.files = files
		extra = append(extra, files)
	}

	printer, err := service.NewPrinterService(app.config, app.roll, app.bus, sinks, extra, app.logger)
	if err != nil {
		return err
	}
	app.printer = printer.WithSession(app.session.ID)

	app.logger.Info("Printer initialized",
		zap.String("model", app.config.Printer.Model),
		zap.String("charset", app.config.Input.Charset),
		zap.Bool("write_files", app.files != nil),
	)
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	if !app.config.Server.Enabled {
		return nil
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.printer,
		app.bus,
		app.paperRepo,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
	return nil
}

// Start runs the printer until a shutdown signal arrives. Without the HTTP
// service the application also stops when a finite source such as a file
// has been printed.
func (app *Application) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go app.bus.Start(ctx)

	serverErr := make(chan error, 1)
	if app.server != nil {
		go func() {
			app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	app.startBackgroundServices(ctx)

	sourceDone := make(chan error, 1)
	go func() {
		sourceDone <- app.printer.RunSource(ctx, app.source)
	}()

	reason, err := app.waitForShutdown(sourceDone, serverErr)
	cancel()

	select {
	case <-sourceDone:
	case <-time.After(5 * time.Second):
		app.logger.Warn("Input source did not stop in time")
	}

	app.shutdown(reason)
	return err
}

// waitForShutdown blocks until a signal, a server failure or, without a
// server, the end of the input
func (app *Application) waitForShutdown(sourceDone chan error, serverErr <-chan error) (string, error) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	for {
		select {
		case sig := <-quit:
			app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
			return "shutdown signal received", nil

		case err := <-serverErr:
			return "HTTP server failed", fmt.Errorf("HTTP server: %w", err)

		case err := <-sourceDone:
			// Hand the result back so Start does not wait for it again
			sourceDone <- err
			if err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Error("Input source failed", zap.String("source", app.source.Name()), zap.Error(err))
				if app.server == nil {
					return "input source failed", err
				}
			}
			if app.server == nil {
				return "input ended", nil
			}
			app.logger.Info("Input ended, HTTP service keeps running")
			sourceDone = nil
		}
	}
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices(ctx context.Context) {
	if app.database != nil && app.config.Archive.Retention > 0 {
		go app.startCleanupService(ctx)
	}
}

// startCleanupService deletes archived sessions older than the retention
func (app *Application) startCleanupService(ctx context.Context) {
	interval := app.config.Archive.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	migrator := database.NewMigrator(app.database, app.logger)
	app.logger.Info("Archive cleanup started",
		zap.Duration("interval", interval),
		zap.Duration("retention", app.config.Archive.Retention),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := migrator.RunCleanup(app.config.Archive.Retention)
			if err != nil {
				app.logger.Error("Failed to cleanup old print sessions", zap.Error(err))
			} else if deleted > 0 {
				app.logger.Info("Cleaned up old print sessions", zap.Int("deleted", deleted))
			}
		}
	}
}

// shutdown performs graceful shutdown
func (app *Application) shutdown(reason string) {
	serviceLogger := utils.NewServiceLogger(app.logger, "hp82240")
	serviceLogger.LogServiceStop(reason)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			app.logger.Error("HTTP server shutdown error", zap.Error(err))
		} else {
			app.logger.Info("HTTP server stopped")
		}
	}

	if app.archive != nil {
		app.archive.Close()
		stored, failures := app.archive.Counts()
		if err := app.paperRepo.EndSession(ctx, app.session.ID, time.Now()); err != nil {
			app.logger.Error("Failed to end print session", zap.Error(err))
		}
		app.logger.Info("Print session archived",
			zap.String("session_id", app.session.ID.String()),
			zap.Int("stored", stored),
			zap.Int("failures", failures),
		)
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		}
	}

	if app.files != nil {
		text, image := app.files.Paths()
		app.logger.Info("Paper written", zap.String("text_file", text), zap.String("image_file", image))
	}

	app.logger.Info("Application shutdown completed", zap.Int("lines_printed", app.printer.Printed()))
	utils.CloseLogger(app.logger)
}
