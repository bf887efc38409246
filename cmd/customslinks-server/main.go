package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/customslinks/customslinks/pkg/customslinks/admin"
	"github.com/customslinks/customslinks/pkg/customslinks/auth"
	"github.com/customslinks/customslinks/pkg/customslinks/config"
	"github.com/customslinks/customslinks/pkg/customslinks/database"
	"github.com/customslinks/customslinks/pkg/customslinks/geoip"
	"github.com/customslinks/customslinks/pkg/customslinks/links"
	"github.com/customslinks/customslinks/pkg/customslinks/middleware"
	"github.com/customslinks/customslinks/pkg/customslinks/models"
	"github.com/customslinks/customslinks/pkg/customslinks/notify"
	"github.com/customslinks/customslinks/pkg/customslinks/payments"
	"github.com/customslinks/customslinks/pkg/customslinks/redirect"
	"github.com/customslinks/customslinks/pkg/customslinks/resolver"
	"github.com/customslinks/customslinks/pkg/customslinks/stats"
	"github.com/customslinks/customslinks/pkg/customslinks/store"
	"github.com/customslinks/customslinks/pkg/customslinks/wallets"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := database.Connect(cfg.Database.Path); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	db := database.GetDB()

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Database migrations completed")

	if err := ensureAdminExists(db, logger); err != nil {
		logger.Fatal("Failed to ensure admin user exists", zap.Error(err))
	}

	// Domain wiring: geo lookup, click store, resolver
	locator := geoip.NewClient(cfg.Geo.BaseURL, cfg.Geo.Timeout, logger)
	linkStore := store.New(db)
	res := resolver.New(linkStore, linkStore, locator, logger,
		resolver.WithClickFilter(func(req resolver.Request) bool {
			return middleware.IsBotUserAgent(req.UserAgent)
		}),
	)

	notifier := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	redirectHandler := redirect.NewHandler(res)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "customslinks",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Public resolution endpoint, rate limited per client IP
		resolveGroup := api.Group("", middleware.RateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window))
		redirectHandler.RegisterAPIRoutes(resolveGroup)

		// Public link creation and payment flow
		linksHandler := links.NewHandler(db, cfg.Server.DefaultDomain)
		linksHandler.RegisterRoutes(api)

		paymentsHandler := payments.NewHandler(db, cfg.Payments.ExpiryWindow, notifier, logger)
		paymentsHandler.RegisterRoutes(api)

		walletsHandler := wallets.NewHandler(db)
		walletsHandler.RegisterRoutes(api)

		// Admin routes (JWT auth, admin role required)
		adminGroup := api.Group("/admin")
		adminGroup.Use(auth.AuthMiddleware(), auth.RequireAdmin())

		admin.NewHandler(db).RegisterRoutes(adminGroup)
		linksHandler.RegisterAdminRoutes(adminGroup)
		paymentsHandler.RegisterAdminRoutes(adminGroup)
		walletsHandler.RegisterAdminRoutes(adminGroup)
		stats.NewHandler(db).RegisterRoutes(adminGroup)
	}

	// Redirect routes (public, must be registered LAST to avoid conflicts)
	redirectHandler.RegisterRoutes(r)

	// Background payment expiry
	sweeper := payments.NewSweeper(db, cfg.Payments.SweepInterval, logger)
	sweeper.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// ensureAdminExists creates a default admin user when the database
// holds none, so a fresh deployment can always be logged into.
func ensureAdminExists(db *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	adminUser := models.User{
		Email:        "admin@customslinks.local",
		Name:         "Admin",
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	logger.Info("Created default admin user",
		zap.String("email", adminUser.Email),
		zap.String("password", "changeme"),
	)
	return nil
}
