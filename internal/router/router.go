// internal/router/router.go
package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/handlers"
	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/repository"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
	"github.com/javajoker/storefront-backend/internal/workers"
)

const Version = "1.0.0"

func Initialize(db *gorm.DB, cfg *config.Config, bus *events.Bus, pool *workers.Pool) (*gin.Engine, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	// Initialize services
	orderNumbers, err := services.NewOrderNumberGenerator(cfg.Checkout.NodeID)
	if err != nil {
		return nil, err
	}
	storageService, err := services.NewStorageService(cfg.Storage)
	if err != nil {
		return nil, err
	}

	transactionService := services.NewTransactionService(
		repository.NewTransactionRepository(db),
		orderNumbers,
		bus,
		services.TransactionServiceOptions{
			CheckoutTimeout:   cfg.Checkout.Timeout,
			MaxItems:          cfg.Checkout.MaxItems,
			LowStockThreshold: cfg.Inventory.LowStockThreshold,
		},
	)
	authService := services.NewAuthService(db, cfg.JWT)
	userService := services.NewUserService(db)
	profileService := services.NewProfileService(db, storageService)
	storeService := services.NewStoreService(db)
	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db)

	// Initialize handlers
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	profileHandler := handlers.NewProfileHandler(profileService)
	storeHandler := handlers.NewStoreHandler(storeService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productHandler := handlers.NewProductHandler(productService)
	healthHandler := handlers.NewHealthHandler(sqlDB, Version)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(repository.NewAuditRepository(db), pool))

	r.GET("/health", healthHandler.Health)
	if dir := storageService.LocalDir(); dir != "" {
		r.Static("/uploads", dir)
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.GetTransactions)
			transactions.GET("/stats/dashboard", transactionHandler.GetDashboard)
			transactions.GET("/stats/overview", transactionHandler.GetStatistics)
			transactions.GET("/stats/users", transactionHandler.GetUserStatistics)
			transactions.GET("/stats/low-stock", transactionHandler.GetLowStockProducts)
			transactions.GET("/:id", transactionHandler.GetTransaction)

			protected := transactions.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/checkout", transactionHandler.Checkout)
				protected.GET("/export", middleware.AdminRequired(), transactionHandler.ExportTransactions)
				protected.DELETE("/:id", transactionHandler.DeleteTransaction)
			}
		}

		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.GET("", userHandler.GetUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/profile", userHandler.UpdateCurrentUser)
			users.DELETE("/:id", middleware.AdminRequired(), userHandler.DeleteUser)
		}

		profiles := v1.Group("/profiles")
		{
			profiles.GET("/:userId", profileHandler.GetProfile)

			protected := profiles.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("", profileHandler.GetProfiles)
				protected.POST("", profileHandler.CreateProfile)
				protected.PUT("/:userId", profileHandler.UpdateProfile)
				protected.DELETE("/:userId", profileHandler.DeleteProfile)
				protected.POST("/:userId/avatar", middleware.UploadRateLimit(), profileHandler.UploadAvatar)
			}
		}

		stores := v1.Group("/stores")
		{
			stores.GET("", storeHandler.GetStores)
			stores.GET("/:id", storeHandler.GetStore)

			protected := stores.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", storeHandler.CreateStore)
				protected.PUT("/:id", storeHandler.UpdateStore)
				protected.DELETE("/:id", storeHandler.DeleteStore)
			}
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.GetCategories)
			categories.GET("/:id", categoryHandler.GetCategory)

			admin := categories.Group("")
			admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				admin.POST("", categoryHandler.CreateCategory)
				admin.PUT("/:id", categoryHandler.UpdateCategory)
				admin.DELETE("/:id", categoryHandler.DeleteCategory)
			}
		}

		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/stats", productHandler.GetProductStatistics)
			products.GET("/:id", productHandler.GetProduct)

			admin := products.Group("")
			admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				admin.POST("", productHandler.CreateProduct)
				admin.PUT("/:id", productHandler.UpdateProduct)
				admin.DELETE("/:id", productHandler.DeleteProduct)
			}
		}
	}

	return r, nil
}
