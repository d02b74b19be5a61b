package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"affiliate-program/internal/auth"
	"affiliate-program/internal/cache"
	"affiliate-program/internal/config"
	"affiliate-program/internal/database"
	"affiliate-program/internal/handlers"
	"affiliate-program/internal/models"
	"affiliate-program/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to the tracking-cookie store
	redisClient := cache.Connect(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	trackingStore := cache.NewTrackingStore(redisClient, cfg.App.CookieTTLDays)

	// Initialize services
	authService := services.NewAuthService(database.GetDB())
	affiliateService := services.NewAffiliateService(database.GetDB())
	trackingService := services.NewTrackingService(database.GetDB(), trackingStore)
	campaignService := services.NewCampaignService(database.GetDB())
	transactionService := services.NewTransactionService(database.GetDB())
	commissionService := services.NewCommissionService(database.GetDB(), cfg.App.MaxAffiliateLevels)
	payoutService := services.NewPayoutService(database.GetDB(), cfg.App.MinPayoutAmount)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	affiliateHandler := handlers.NewAffiliateHandler(affiliateService, trackingService, cfg.App.CookieTTLDays, cfg.App.RedirectURL)
	webhookHandler := handlers.NewWebhookHandler(transactionService, commissionService)
	commissionHandler := handlers.NewCommissionHandler(affiliateService, commissionService)
	payoutHandler := handlers.NewPayoutHandler(affiliateService, payoutService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Referral link entry point
	router.GET("/r/:code", affiliateHandler.TrackClick)

	// Payment provider webhook
	router.POST("/webhook/payment", webhookHandler.HandlePaymentWebhook)

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.Me)
	}

	// Public campaign info
	router.GET("/api/campaigns/active", campaignHandler.GetActiveCampaign)

	// Authenticated user routes
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/affiliates", affiliateHandler.BecomeAffiliate)
		api.GET("/affiliates/me", affiliateHandler.GetMyAffiliate)
		api.POST("/tracking/signup", affiliateHandler.TrackSignup)

		api.GET("/commissions", commissionHandler.GetMyCommissions)
		api.GET("/commissions/earnings", commissionHandler.GetMyEarnings)

		api.POST("/payouts", payoutHandler.RequestPayout)
		api.GET("/payouts", payoutHandler.GetMyPayouts)
		api.GET("/payouts/balance", payoutHandler.GetMyBalance)
	}

	// Admin routes
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware(), auth.RequireRole(models.RoleAdmin))
	{
		admin.POST("/campaigns", campaignHandler.CreateCampaign)
		admin.GET("/campaigns", campaignHandler.ListCampaigns)
		admin.GET("/campaigns/:id", campaignHandler.GetCampaign)
		admin.PUT("/campaigns/:id", campaignHandler.UpdateCampaign)
		admin.PATCH("/campaigns/:id/status", campaignHandler.UpdateCampaignStatus)
		admin.DELETE("/campaigns/:id", campaignHandler.DeleteCampaign)

		admin.GET("/commissions/pending", commissionHandler.GetPendingCommissions)
		admin.POST("/commissions/:id/approve", commissionHandler.ApproveCommission)
		admin.POST("/commissions/:id/reject", commissionHandler.RejectCommission)

		admin.GET("/payouts", payoutHandler.ListPayouts)
		admin.POST("/payouts/:id/process", payoutHandler.ProcessPayout)
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Failed to close redis client: %v", err)
	}

	log.Println("Server exited")
}
