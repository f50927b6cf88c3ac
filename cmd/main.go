package main

import (
	"context"
	"fmt"
	"log"

	"github.com/niel17/invoiceflow/internal/caching"
	"github.com/niel17/invoiceflow/internal/config"
	"github.com/niel17/invoiceflow/internal/handlers"
	"github.com/niel17/invoiceflow/internal/jobs/background"
	appMiddleware "github.com/niel17/invoiceflow/internal/middleware"
	"github.com/niel17/invoiceflow/internal/pdf"
	"github.com/niel17/invoiceflow/internal/repositories"
	"github.com/niel17/invoiceflow/internal/services"
	"github.com/niel17/invoiceflow/internal/storage"
	"github.com/niel17/invoiceflow/pkg/database"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	objectStorage, err := storage.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := objectStorage.EnsureBucketExists(ctx, cfg.PDFBucket); err != nil {
		log.Printf("WARN: could not ensure PDF bucket exists: %v", err)
	}

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	clientRepo := repositories.NewClientRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)

	// Services
	authSvc := services.NewAuthService(userRepo, cfg.JWTSecret)
	clientSvc := services.NewClientService(clientRepo, cacheSvc)
	invoiceSvc := services.NewInvoiceService(invoiceRepo, clientRepo, cacheSvc)
	dashboardSvc := services.NewDashboardService(invoiceRepo, cacheSvc)
	pdfRenderer := pdf.NewRenderer(cfg.CompanyName)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	clientHandlers := handlers.NewClientHandlers(clientSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc, pdfRenderer, objectStorage, cfg.PDFBucket)
	dashboardHandlers := handlers.NewDashboardHandlers(dashboardSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Background jobs
	scheduler, err := background.NewJobScheduler(dashboardSvc, userRepo)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	v1 := e.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)

	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(appMiddleware.JWTConfig(cfg.JWTSecret)))

	protected.GET("/me", authHandlers.Me)

	protected.GET("/clients", clientHandlers.ListClients)
	protected.POST("/clients", clientHandlers.CreateClient)
	protected.GET("/clients/:id", clientHandlers.GetClientByID)
	protected.PUT("/clients/:id", clientHandlers.UpdateClient)
	protected.DELETE("/clients/:id", clientHandlers.DeleteClient)

	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.POST("/invoices", invoiceHandlers.CreateInvoice)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoiceByID)
	protected.PUT("/invoices/:id", invoiceHandlers.UpdateInvoice)
	protected.PUT("/invoices/:id/status", invoiceHandlers.UpdateInvoiceStatus)
	protected.POST("/invoices/:id/pdf", invoiceHandlers.ExportInvoicePDF)
	protected.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)

	protected.GET("/dashboard/stats", dashboardHandlers.GetStats)

	log.Printf("InvoiceFlow server starting on port %d", cfg.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}
