package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	receivableapp "github.com/arledger/backend/internal/application/receivable"
	reconciliationapp "github.com/arledger/backend/internal/application/reconciliation"
	"github.com/arledger/backend/internal/domain/reconciliation"
	"github.com/arledger/backend/internal/domain/shared"
	"github.com/arledger/backend/internal/infrastructure/auth"
	"github.com/arledger/backend/internal/infrastructure/cache"
	"github.com/arledger/backend/internal/infrastructure/config"
	"github.com/arledger/backend/internal/infrastructure/logger"
	"github.com/arledger/backend/internal/infrastructure/persistence"
	"github.com/arledger/backend/internal/infrastructure/telemetry"
	"github.com/arledger/backend/internal/interfaces/http/handler"
	"github.com/arledger/backend/internal/interfaces/http/middleware"
	"github.com/arledger/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Database with the zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	// Tracing
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterOtelGorm(db.DB, telemetry.DBTracingConfig{
			Enabled: true,
			DBName:  cfg.Database.DBName,
		}); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	disputeRepo := persistence.NewGormDisputeRepository(db.DB)
	settler := persistence.NewGormReconciliationSettler(db.DB)

	// Idempotency store: redis when reachable, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Warn("Failed to close idempotency store", zap.Error(err))
		}
	}()

	// Application services
	params := reconciliation.Params{
		Epsilon:            decimal.NewFromFloat(cfg.Reconciliation.Epsilon),
		TolerancePercent:   decimal.NewFromFloat(cfg.Reconciliation.TolerancePercent),
		ToleranceFloor:     decimal.NewFromFloat(cfg.Reconciliation.ToleranceFloor),
		MaxCombinationSize: cfg.Reconciliation.MaxCombinationSize,
		MaxSuggestions:     cfg.Reconciliation.MaxSuggestions,
	}
	idemConfig := shared.IdempotencyConfig{
		TTL:     time.Duration(cfg.Reconciliation.IdempotencyTTLHrs) * time.Hour,
		Enabled: cfg.Reconciliation.IdempotencyEnabled,
	}

	invoiceService := receivableapp.NewInvoiceService(invoiceRepo, log)
	paymentService := receivableapp.NewPaymentService(paymentRepo, log)
	disputeService := receivableapp.NewDisputeService(disputeRepo, invoiceRepo, log)
	reconciliationService := reconciliationapp.NewService(
		invoiceRepo, paymentRepo, settler, idempotencyStore, idemConfig, params, log)

	// JWT validation
	jwtService := auth.NewJWTService(cfg.JWT)

	// Handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService, reconciliationService)
	disputeHandler := handler.NewDisputeHandler(disputeService)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check outside API versioning and authentication
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/api/v1/ping"},
		Logger:     log,
	}))

	receivableRoutes := router.NewDomainGroup("receivable", "/receivable")

	receivableRoutes.POST("/invoices", invoiceHandler.Create)
	receivableRoutes.GET("/invoices", invoiceHandler.List)
	receivableRoutes.GET("/invoices/stats/outstanding", invoiceHandler.Stats)
	receivableRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	receivableRoutes.PUT("/invoices/:id", invoiceHandler.Update)
	receivableRoutes.DELETE("/invoices/:id", invoiceHandler.Delete)

	receivableRoutes.POST("/payments", paymentHandler.Create)
	receivableRoutes.GET("/payments", paymentHandler.List)
	receivableRoutes.GET("/payments/:id", paymentHandler.GetByID)
	receivableRoutes.POST("/payments/:id/reconcile", paymentHandler.Reconcile)
	receivableRoutes.POST("/payments/:id/reset", paymentHandler.ResetStatus)
	receivableRoutes.DELETE("/payments/:id", paymentHandler.Delete)

	receivableRoutes.POST("/disputes", disputeHandler.Create)
	receivableRoutes.GET("/disputes", disputeHandler.List)
	receivableRoutes.GET("/disputes/:id", disputeHandler.GetByID)
	receivableRoutes.POST("/disputes/:id/resolve", disputeHandler.Resolve)
	receivableRoutes.POST("/disputes/:id/reject", disputeHandler.Reject)

	r.Register(receivableRoutes)
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.App.Port),
		Handler:        engine,
		ReadTimeout:    time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.HTTP.IdleTimeout) * time.Second,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(c.Request.Context()); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
