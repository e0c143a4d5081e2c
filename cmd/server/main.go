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

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/config"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/blob"
	"github.com/mamadbah2/hisaab/internal/repository/memory"
	"github.com/mamadbah2/hisaab/internal/repository/mongodb"
	"github.com/mamadbah2/hisaab/internal/repository/sheets"
	"github.com/mamadbah2/hisaab/internal/repository/sqlite"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/scheduler"
	"github.com/mamadbah2/hisaab/internal/server/handlers"
	"github.com/mamadbah2/hisaab/internal/server/middleware"
	"github.com/mamadbah2/hisaab/internal/server/router"
	analyticssvc "github.com/mamadbah2/hisaab/internal/service/analytics"
	branchsvc "github.com/mamadbah2/hisaab/internal/service/branches"
	documentsvc "github.com/mamadbah2/hisaab/internal/service/documents"
	metricssvc "github.com/mamadbah2/hisaab/internal/service/metrics"
	recordsvc "github.com/mamadbah2/hisaab/internal/service/records"
	reportingsvc "github.com/mamadbah2/hisaab/internal/service/reporting"
	vendorsvc "github.com/mamadbah2/hisaab/internal/service/vendors"
	whatsappsvc "github.com/mamadbah2/hisaab/internal/service/whatsapp"
	"github.com/mamadbah2/hisaab/internal/telemetry"
	whatsappclient "github.com/mamadbah2/hisaab/pkg/clients/whatsapp"
	"github.com/mamadbah2/hisaab/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()
	loc := cfg.Location()

	st, err := openStore(ctx, cfg)
	if err != nil {
		baseLogger.Fatal("failed to open record store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close record store", zap.Error(err))
		}
	}()

	blobs, err := openBlobs(ctx, cfg.Blob)
	if err != nil {
		baseLogger.Fatal("failed to init blob store", zap.String("driver", cfg.Blob.Driver), zap.Error(err))
	}

	tel := telemetry.New()
	bus := events.NewBus()

	recordSvc := recordsvc.NewService(st, bus, baseLogger)
	vendorSvc := vendorsvc.NewService(st, bus, baseLogger)
	branchSvc := branchsvc.NewService(st, bus, baseLogger)
	branchCtx := branchsvc.NewContext(st, bus, baseLogger)
	documentSvc := documentsvc.NewService(st, blobs, bus, baseLogger)

	metricsSvc := metricssvc.NewService(st, baseLogger,
		metricssvc.WithTTL(cfg.Business.MetricsCacheTTL),
		metricssvc.WithLocation(loc),
		metricssvc.WithTelemetry(tel),
	)
	defer metricsSvc.Watch(bus)()

	analyticsSvc := analyticssvc.NewService(st, cfg.Business.Type, loc, baseLogger)

	var exporter reportingsvc.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = sheets.NewReportExporter(sheetsRepo)
		baseLogger.Info("google sheets export enabled")
	}
	reportingSvc := reportingsvc.NewService(st, analyticsSvc, exporter, loc, baseLogger)

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		messagingSvc = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsappclient.NewClient(cfg.WhatsApp), baseLogger)
	} else {
		baseLogger.Warn("whatsapp credentials missing, weekly reports will only be logged")
		messagingSvc = whatsappsvc.NewLogOnlyService(baseLogger)
	}

	sched := scheduler.NewScheduler(cfg.Reporting, loc, reportingSvc, recordSvc, messagingSvc, st.Branches, tel, baseLogger)
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	var auth middleware.Authenticator = middleware.HeaderAuthenticator{}
	if cfg.Auth.Enabled() {
		oidcAuth, err := middleware.NewOIDCAuthenticator(ctx, cfg.Auth)
		if err != nil {
			baseLogger.Fatal("failed to init oidc verifier", zap.String("issuer", cfg.Auth.IssuerURL), zap.Error(err))
		}
		auth = oidcAuth
	} else {
		baseLogger.Warn("auth issuer not configured, trusting identity headers")
	}

	h := handlers.New(handlers.Services{
		Records:       recordSvc,
		Vendors:       vendorSvc,
		Branches:      branchSvc,
		BranchContext: branchCtx,
		Metrics:       metricsSvc,
		Analytics:     analyticsSvc,
		Reporting:     reportingSvc,
		Documents:     documentSvc,
	}, baseLogger.Named("handlers"))
	engine := router.New(h, auth, tel, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("blob", cfg.Blob.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageSQLite:
		return sqlite.Open(ctx, cfg.Storage.SQLitePath)
	case config.StorageMongoDB:
		return mongodb.Open(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openBlobs(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Driver {
	case config.BlobMemory:
		return blob.NewMemory(), nil
	case config.BlobS3:
		s3Store, err := blob.NewS3(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
