package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appinvoicing "github.com/flechaamarilla/mdm/internal/application/invoicing"
	appmdm "github.com/flechaamarilla/mdm/internal/application/mdm"
	"github.com/flechaamarilla/mdm/internal/application/upload"
	"github.com/flechaamarilla/mdm/internal/domain/invoicing"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/flechaamarilla/mdm/internal/infrastructure/cache"
	"github.com/flechaamarilla/mdm/internal/infrastructure/config"
	"github.com/flechaamarilla/mdm/internal/infrastructure/lock"
	"github.com/flechaamarilla/mdm/internal/infrastructure/logger"
	"github.com/flechaamarilla/mdm/internal/infrastructure/messaging"
	"github.com/flechaamarilla/mdm/internal/infrastructure/persistence"
	"github.com/flechaamarilla/mdm/internal/infrastructure/seed"
	"github.com/flechaamarilla/mdm/internal/infrastructure/storage"
	"github.com/flechaamarilla/mdm/internal/infrastructure/telemetry"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/handler"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/middleware"
	"github.com/flechaamarilla/mdm/internal/interfaces/http/router"
	consumers "github.com/flechaamarilla/mdm/internal/interfaces/messaging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//	@title			MDM API
//	@version		1.0
//	@description	Master data ingestion for issuers, receivers and products, plus ticket to invoice conversion.

//	@host		localhost:8080
//	@BasePath	/api/v1

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, cfg.App.Name)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting MDM service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("broker", cfg.Messaging.Driver),
	)

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DefaultDBTracingConfig(cfg.Database.Driver), log); err != nil {
			return err
		}
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(log); err != nil {
			return err
		}
	}

	issuers := persistence.NewGormIssuerRepository(db.DB)
	receivers := persistence.NewGormReceiverRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	units := persistence.NewGormBusinessUnitRepository(db.DB)
	mappings := persistence.NewGormFieldMappingRepository(db.DB)
	tickets := persistence.NewGormTicketRepository(db.DB)

	if cfg.Seed.Enabled {
		if err := seed.NewSeeder(units, tickets, log).Run(ctx); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	locker := newLocker(cfg, redisClient)
	store := newIdempotencyStore(redisClient)
	defer func() { _ = store.Close() }()

	broker, err := messaging.New(ctx, &cfg.Messaging, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := broker.Close(); err != nil {
			log.Warn("Broker close failed", zap.Error(err))
		}
	}()

	var archive upload.Archiver
	if cfg.Upload.ArchiveEnabled {
		s3Archive, err := storage.NewS3Archive(ctx, &cfg.Upload, log)
		if err != nil {
			return err
		}
		archive = s3Archive
	}

	producer := appmdm.NewProducerService(broker, cfg.Messaging.RawDataTopic, log)
	ingest := appmdm.NewIngestService(persistence.NewGormUnitOfWork(db.DB), locker, log)
	cfdi := appmdm.NewCfdiService(issuers, receivers, ingest, invoicing.SimulatedCatalog{}, invoicing.RandomFolioGenerator{}, log)
	query := appmdm.NewQueryService(issuers, receivers, products)
	uploads := upload.NewService(producer, archive, log)
	businessUnits := appinvoicing.NewBusinessUnitService(units, mappings, tickets, log)
	invoices := appinvoicing.NewInvoiceService(units, tickets, invoicing.NewTransformer(invoicing.UUIDFolioGenerator{}), log)

	engine := router.NewEngine(router.EngineConfig{
		Tracing:       middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		CORS:          corsConfig(cfg.HTTP),
		MaxBodySize:   cfg.HTTP.MaxBodySize,
		MaxUploadSize: cfg.Upload.MaxSize,
	}, log, router.Handlers{
		Health:        handler.NewHealthHandler(db),
		MDM:           handler.NewMDMHandler(producer, ingest, cfdi, query, uploads, cfg.Upload.MaxSize),
		BusinessUnits: handler.NewBusinessUnitHandler(businessUnits),
		Invoices:      handler.NewInvoiceHandler(invoices, broker, cfg.Messaging.InvoiceRequestsTopic),
	})

	runner := consumers.NewRunner(broker, store, shared.IdempotencyConfig{
		Enabled: cfg.Idempotency.Enabled,
		TTL:     cfg.Idempotency.TTL,
	}, log).
		Add(consumers.Route{
			Name:         "raw-data",
			Subscription: cfg.Messaging.RawDataSubscription,
			Topic:        cfg.Messaging.RawDataTopic,
			Handler:      consumers.NewRawDataConsumer(ingest, broker, cfg.Messaging.ProcessedDataTopic, log).Handle,
		}).
		Add(consumers.Route{
			Name:         "invoice-requests",
			Subscription: cfg.Messaging.InvoiceRequestSubscription,
			Topic:        cfg.Messaging.InvoiceRequestsTopic,
			Handler:      consumers.NewInvoiceRequestConsumer(invoices, broker, cfg.Messaging.InvoiceDataTopic, log).Handle,
		})
	if err := runner.EnsureSubscriptions(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := runner.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newLocker returns nil when upsert locking is disabled
func newLocker(cfg *config.Config, client *redis.Client) shared.Locker {
	switch {
	case !cfg.Lock.Enabled:
		return nil
	case client != nil:
		return lock.NewRedisLocker(client, cfg.Lock.TTL, cfg.Lock.Wait)
	default:
		return lock.NewLocalLocker()
	}
}

func newIdempotencyStore(client *redis.Client) shared.IdempotencyStore {
	if client != nil {
		return cache.NewRedisIdempotencyStore(client, "mdm:idempotency:")
	}
	return cache.NewInMemoryIdempotencyStore(time.Minute)
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
