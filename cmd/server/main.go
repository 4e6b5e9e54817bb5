package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"shop_api/internal/cache"
	"shop_api/internal/config"
	"shop_api/internal/handler"
	"shop_api/internal/mailer"
	"shop_api/internal/middleware"
	"shop_api/internal/model"
	"shop_api/internal/observability"
	"shop_api/internal/repository"
	"shop_api/internal/service"
	"shop_api/internal/storage"
	"shop_api/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "shop-api"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// --- Tracing ---
	if cfg.OTelEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: serviceName,
			Environment: cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, &cfg.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	if err := config.AutoMigrate(ctx, dbPool); err != nil {
		logger.Fatal("failed to auto-migrate database", zap.Error(err))
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// --- Supporting services ---
	store, err := newFileStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to init file storage", zap.Error(err))
	}

	var mail mailer.Mailer
	if cfg.Mail.SendGridAPIKey != "" {
		mail = mailer.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress, logger)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, OTP emails are written to the log")
		mail = mailer.NewLogMailer(logger)
	}

	var statsCache cache.StatsCache = cache.NoopStatsCache{}
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cache.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, category stats cache degrades to database reads", zap.Error(err))
		}
		statsCache = cache.NewRedisStatsCache(rdb, cfg.StatsCacheTTL)
	}

	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTTTL)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool, prom)
	productRepo := repository.NewProductRepository(dbPool, prom)
	imageRepo := repository.NewImageRepository(dbPool, prom)
	categoryRepo := repository.NewCategoryRepository(dbPool, prom)
	purchaseRepo := repository.NewPurchaseRepository(dbPool, prom)

	// --- Initialize Services ---
	authService := service.NewAuthService(service.AuthDeps{
		Users:             userRepo,
		JWT:               jwtUtil,
		Mailer:            mail,
		Store:             store,
		Prom:              prom,
		Log:               logger,
		InitialAdminEmail: cfg.InitialAdminEmail,
	})
	userService := service.NewUserService(userRepo, purchaseRepo, store)
	productService := service.NewProductService(service.ProductDeps{
		Products:   productRepo,
		Images:     imageRepo,
		Categories: categoryRepo,
		Store:      store,
		Stats:      statsCache,
		Prom:       prom,
		Log:        logger,
	})
	purchaseService := service.NewPurchaseService(purchaseRepo, prom, logger)

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService, logger)
	userHandler := handler.NewUserHandler(authHandler, userService, logger)
	productHandler := handler.NewProductHandler(productService, purchaseService, logger)

	// --- Setup Gin Router ---
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(gin.Recovery())
	if cfg.OTelEndpoint != "" {
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		prom.GinHandleMiddleware(),
	)

	// Simple CORS middleware (allow all)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// --- Initialize Middlewares ---
	jwtAuthMW := middleware.JWTAuthMiddleware(jwtUtil)
	catalogAdminMW := middleware.AdminMiddleware()
	usersAdminMW := middleware.RequireCapability(model.CapManageUsers)

	// --- Register Routes ---
	apiGroup := router.Group("/api")
	productHandler.RegisterProductRoutes(apiGroup, jwtAuthMW, catalogAdminMW)
	userHandler.RegisterUserRoutes(apiGroup, jwtAuthMW, usersAdminMW)

	if cfg.Storage.Driver == "local" {
		router.Static("/uploads", filepath.Clean(cfg.UploadsDir))
	}
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the shop API"})
	})
	router.GET("/health", func(c *gin.Context) {
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := dbPool.Ping(pctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.Storage.Driver == "s3" {
		return storage.NewS3Store(ctx, cfg.Storage.AWSRegion, cfg.Storage.S3Bucket)
	}
	return storage.NewLocalStore(cfg.UploadsDir, "/uploads")
}
