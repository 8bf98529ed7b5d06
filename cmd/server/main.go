package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	eventapp "github.com/oms/backend/internal/application/event"
	inventoryapp "github.com/oms/backend/internal/application/inventory"
	orderapp "github.com/oms/backend/internal/application/order"
	returnsapp "github.com/oms/backend/internal/application/returns"
	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/infrastructure/cache"
	"github.com/oms/backend/internal/infrastructure/config"
	"github.com/oms/backend/internal/infrastructure/event"
	"github.com/oms/backend/internal/infrastructure/logger"
	"github.com/oms/backend/internal/infrastructure/migration"
	"github.com/oms/backend/internal/infrastructure/persistence"
	"github.com/oms/backend/internal/interfaces/http/handler"
	"github.com/oms/backend/internal/interfaces/http/middleware"
	"github.com/oms/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting order fulfillment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Run schema migrations
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
	}
	migrator, err := migration.New(sqlDB, "migrations", log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Up(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	unitRepo := persistence.NewGormUnitRepository(db.DB)
	returnRepo := persistence.NewGormCustomerReturnRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Catalog, payment and shipping collaborators
	priceResolver := persistence.NewGormPriceResolver(db.DB)
	paymentLedger := persistence.NewGormPaymentLedger(db.DB)
	rateProvider := persistence.NewGormShippingRateProvider(db.DB)
	stockLedger := persistence.NewGormStockLedger(db.DB)
	locationResolver := persistence.NewGormStockLocationResolver(db.DB)

	// Initialize event serializer with all workflow event types
	eventSerializer := event.NewEventSerializer()

	// Create outbox publisher so aggregate events commit with the aggregate
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	orderRepo.SetOutboxEventSaver(outboxPublisher)
	shipmentRepo.SetOutboxEventSaver(outboxPublisher)
	unitRepo.SetOutboxEventSaver(outboxPublisher)
	returnRepo.SetOutboxEventSaver(outboxPublisher)

	// Initialize application services
	allocator := inventory.NewAllocationService(stockLedger)
	orderService := orderapp.NewOrderService(orderRepo, priceResolver, paymentLedger, rateProvider)
	shipmentService := inventoryapp.NewShipmentService(shipmentRepo, unitRepo, stockLedger)
	returnService := returnsapp.NewReturnService(returnRepo, unitRepo, locationResolver)

	// Idempotency store for event handlers. Redis shares dedup state across
	// instances; the in-memory store is for single-node deployments.
	var idemStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		idemStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idemStore = redisStore
	}

	// Initialize event bus and subscribe workflow handlers
	eventBus := event.NewInMemoryEventBus(log)

	subscribe := func(h shared.EventHandler) {
		wrapped := event.NewIdempotentHandler(h, idemStore, log)
		eventBus.Subscribe(wrapped, h.EventTypes()...)
	}

	// Payment entered -> allocate a shipment
	allocationHandler := inventoryapp.NewAllocationHandler(log, shipmentRepo, orderRepo, locationResolver, allocator)
	subscribe(allocationHandler)

	// Order canceled -> cancel shipments and restock
	orderCanceledHandler := inventoryapp.NewOrderCanceledHandler(log, shipmentRepo, stockLedger)
	subscribe(orderCanceledHandler)

	// Order completed -> ready pending shipments
	orderCompletedHandler := inventoryapp.NewOrderCompletedHandler(log, shipmentRepo)
	subscribe(orderCompletedHandler)

	// Return item received -> mark unit returned and restock
	returnReceivedHandler := inventoryapp.NewReturnReceivedHandler(log, unitRepo, stockLedger)
	subscribe(returnReceivedHandler)

	// Exchange requested -> allocate a replacement unit
	exchangeHandler := inventoryapp.NewExchangeRequestedHandler(log, returnRepo, unitRepo, orderRepo, priceResolver, allocator)
	subscribe(exchangeHandler)

	log.Info("Event handlers registered",
		zap.Strings("allocation_events", allocationHandler.EventTypes()),
		zap.Strings("order_canceled_events", orderCanceledHandler.EventTypes()),
		zap.Strings("order_completed_events", orderCompletedHandler.EventTypes()),
		zap.Strings("return_received_events", returnReceivedHandler.EventTypes()),
		zap.Strings("exchange_events", exchangeHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Start the outbox processor for at-least-once event delivery
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Initialize HTTP handlers
	outboxService := eventapp.NewOutboxService(outboxRepo, log)
	orderHandler := handler.NewOrderHandler(orderService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	returnHandler := handler.NewReturnHandler(returnService)
	outboxHandler := handler.NewOutboxHandler(outboxService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Register custom binding validations
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

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(orderHandler).
		Register(shipmentHandler).
		Register(returnHandler).
		Register(outboxHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
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
