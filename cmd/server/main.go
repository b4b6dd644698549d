package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/digitradex/trade-console/internal/apiclient"
	"github.com/digitradex/trade-console/internal/auth"
	"github.com/digitradex/trade-console/internal/config"
	"github.com/digitradex/trade-console/internal/gate"
	httpapi "github.com/digitradex/trade-console/internal/interfaces/http"
	"github.com/digitradex/trade-console/internal/memo"
	"github.com/digitradex/trade-console/internal/polist"
	"github.com/digitradex/trade-console/internal/session"
	"github.com/digitradex/trade-console/internal/shipping"
	"github.com/digitradex/trade-console/internal/upload"
	"github.com/digitradex/trade-console/pkg/database"
	"github.com/digitradex/trade-console/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting DigiTradeX trade console",
		zap.Int("port", cfg.Server.Port),
		zap.String("api", cfg.API.BaseURL))

	// Initialize the console-local database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Session state: the local credential sink feeds the store, which is
	// resolved from storage before the server accepts traffic.
	localSink := session.NewLocalSink(db.DB, logger)
	store := session.NewStore(localSink, logger)
	store.Load()

	// Remote trade API
	api := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, logger)

	token := func() string { return store.Snapshot().Token }

	authCtrl := auth.NewController(api, store, localSink, auth.Config{
		LoginPath:   cfg.Auth.LoginPath,
		LandingPath: cfg.Auth.LandingPath,
		DevLogin:    cfg.Auth.DevLogin,
	}, logger)

	edgeGate := gate.New(cfg.Auth.LoginPath, cfg.Auth.LandingPath, cfg.Auth.CookieName, logger)
	if cfg.Auth.DevLogin {
		logger.Warn("Dev auto-login is enabled")
		edgeGate.Allow("/api/dev-login")
	}

	// Upload pipeline and document preview
	pipeline := upload.New(api, token, upload.Config{
		PollInterval: cfg.Upload.PollInterval,
		MaxProducts:  cfg.Upload.MaxProducts,
	}, logger)
	defer pipeline.Close()
	pipeline.SetAuditLog(upload.NewAuditLog(db.DB, logger))

	previewer, err := upload.NewPreviewer(cfg.Upload.PreviewDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize previewer", zap.Error(err))
	}

	// List, memo and shipping services
	poList := polist.NewService(api, token, logger)
	memoEditor := memo.NewEditor(api, token, logger)
	shipSvc := shipping.NewService(api, logger)

	handlers := httpapi.NewHandlers(
		authCtrl, store, pipeline, previewer,
		poList, memoEditor, shipSvc,
		cfg.Auth, logger,
	)
	server := httpapi.NewServer(cfg.Server, handlers, edgeGate, logger)

	// Run until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("Shutting down server...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
