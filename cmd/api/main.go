package main

import (
	"fmt"
	"lizsys/internal/config"
	"lizsys/internal/database"
	"lizsys/internal/handlers"
	"lizsys/internal/logger"
	"lizsys/internal/middleware"
	"lizsys/internal/services"
	"lizsys/internal/storage"
	"lizsys/internal/validator"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "lizsys/internal/docs" // Import swagger docs
)

// @title           LizSys API
// @version         1.0
// @description     LizSys is a leasing back office that manages clients, leased assets, financing contracts, payments and reporting.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// File storage for receipts and documents
	fileStore, err := storage.NewDiskStore(appConfig.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	clientService := services.NewClientService(db)
	assetService := services.NewAssetService(db)
	contractService := services.NewContractService(db)
	paymentService := services.NewPaymentService(db, contractService, fileStore)
	documentService := services.NewDocumentService(db, fileStore)
	reportService := services.NewReportService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	clientHandler := handlers.NewClientHandler(clientService)
	assetHandler := handlers.NewAssetHandler(assetService, documentService)
	contractHandler := handlers.NewContractHandler(contractService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reportHandler := handlers.NewReportHandler(reportService)

	router := newRouter(authHandler, clientHandler, assetHandler, contractHandler, paymentHandler, reportHandler)

	log.Infof("Starting LizSys backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

// newRouter registers the custom binding validators and wires every route.
func newRouter(
	authHandler *handlers.AuthHandler,
	clientHandler *handlers.ClientHandler,
	assetHandler *handlers.AssetHandler,
	contractHandler *handlers.ContractHandler,
	paymentHandler *handlers.PaymentHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {
	// Register custom binding validators (contract_status, date, ...)
	validator.Register()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Client routes
	clients := protected.Group("/clients")
	clients.POST("", clientHandler.CreateClient)
	clients.GET("", clientHandler.GetClients)
	clients.GET("/:id", clientHandler.GetClientByID)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)

	// Asset routes
	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetAssets)
	assets.GET("/:id", assetHandler.GetAssetByID)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)
	assets.POST("/:id/documents", assetHandler.UploadDocument)
	assets.GET("/:id/documents", assetHandler.GetDocuments)

	// Document routes
	documents := protected.Group("/documents")
	documents.GET("/:id", assetHandler.DownloadDocument)
	documents.DELETE("/:id", assetHandler.DeleteDocument)

	// Contract routes
	contracts := protected.Group("/contracts")
	contracts.POST("", contractHandler.CreateContract)
	contracts.POST("/financing", contractHandler.CalculateFinancing)
	contracts.GET("", contractHandler.GetContracts)
	contracts.GET("/:id", contractHandler.GetContractByID)
	contracts.PUT("/:id", contractHandler.UpdateContract)
	contracts.POST("/:id/extend", contractHandler.ExtendContract)
	contracts.PUT("/:id/end-date", contractHandler.SetEndDate)
	contracts.PUT("/:id/due-date", contractHandler.SetDueDate)
	contracts.POST("/:id/transfer", contractHandler.TransferOwnership)
	contracts.GET("/:id/penalty", contractHandler.GetPenalty)
	contracts.DELETE("/:id", contractHandler.DeleteContract)

	// Payment routes
	payments := protected.Group("/payments")
	payments.POST("", paymentHandler.CreatePayment)
	payments.GET("/precheck", paymentHandler.PreCheckPayment)
	payments.GET("", paymentHandler.GetPayments)
	payments.GET("/:id", paymentHandler.GetPaymentByID)
	payments.PUT("/:id", paymentHandler.UpdatePayment)
	payments.DELETE("/:id", paymentHandler.DeletePayment)
	payments.GET("/:id/receipt", paymentHandler.DownloadReceipt)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/income", reportHandler.GetIncomeReport)
	reports.GET("/income/export", reportHandler.ExportIncomeExcel)
	reports.GET("/debt", reportHandler.GetDebtReport)
	reports.GET("/debt/export", reportHandler.ExportDebtPDF)
	reports.GET("/overdue", reportHandler.GetOverdueReport)
	reports.GET("/dashboard", reportHandler.GetDashboard)

	return router
}
