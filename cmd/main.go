package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"bundlekeep/internal/config"
	"bundlekeep/internal/handlers"
	"bundlekeep/internal/middleware"
	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
	"bundlekeep/internal/services"
)

// @title BundleKeep API
// @version 1.0.0
// @description Inventory, bundle pricing and sales ledger backend for a single shop

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8090
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Bundle{},
		&models.BundleItem{},
		&models.Sale{},
		&models.SaleItem{},
		&models.SaleBundleItem{},
		&models.City{},
		&models.AvitoAd{},
	); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Structured logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient = nil
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories with Redis for caching
	categoryRepo := repository.NewCategoryRepository(db, redisClient)
	productRepo := repository.NewProductRepository(db, redisClient)
	bundleRepo := repository.NewBundleRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	listingRepo := repository.NewListingRepository(db)

	// Initialize services
	saleService := services.NewSaleService(db, saleRepo, productRepo, cfg.StockPolicy, cfg.WeightedBundlePricing)

	// Initialize handlers
	categoryHandler := handlers.NewCategoryHandler(categoryRepo, cfg.DefaultPageSize, cfg.MaxPageSize)
	productHandler := handlers.NewProductHandler(productRepo, cfg.DefaultPageSize, cfg.MaxPageSize)
	bundleHandler := handlers.NewBundleHandler(bundleRepo, cfg.WeightedBundlePricing, cfg.DefaultPageSize, cfg.MaxPageSize)
	saleHandler := handlers.NewSaleHandler(saleService, cfg.DefaultPageSize, cfg.MaxPageSize)
	listingHandler := handlers.NewListingHandler(listingRepo, cfg.DefaultPageSize, cfg.MaxPageSize)
	importHandler := handlers.NewImportHandler(productRepo, categoryRepo)

	handlers.SetDB(db)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	canWrite := middleware.RequireAnyRole("admin", "manager")
	adminOnly := middleware.RequireRole("admin")

	{
		categories := api.Group("/categories")
		{
			categories.GET("", categoryHandler.GetCategoryList)
			categories.GET("/:id", categoryHandler.GetCategory)
			categories.POST("", canWrite, categoryHandler.CreateCategory)
			categories.PUT("/:id", canWrite, categoryHandler.UpdateCategory)
			categories.DELETE("/:id", adminOnly, categoryHandler.DeleteCategory)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProductList)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("", canWrite, productHandler.CreateProduct)
			products.PUT("/:id", canWrite, productHandler.UpdateProduct)
			products.POST("/:id/adjust-stock", canWrite, productHandler.AdjustStock)
			products.DELETE("/:id", adminOnly, productHandler.DeleteProduct)

			products.GET("/import/template", importHandler.GetImportTemplate)
			products.POST("/import", canWrite, importHandler.ImportProducts)
			products.GET("/export", importHandler.ExportProducts)
		}

		bundles := api.Group("/bundles")
		{
			bundles.GET("", bundleHandler.GetBundleList)
			bundles.GET("/:id", bundleHandler.GetBundle)
			bundles.POST("", canWrite, bundleHandler.CreateBundle)
			bundles.PUT("/:id", canWrite, bundleHandler.UpdateBundle)
			bundles.DELETE("/:id", adminOnly, bundleHandler.DeleteBundle)
		}

		sales := api.Group("/sales")
		{
			sales.GET("", saleHandler.GetSaleList)
			sales.GET("/:id", saleHandler.GetSale)
			sales.POST("", canWrite, saleHandler.PlaceSale)
			sales.POST("/:id/bundle-items", canWrite, saleHandler.AddBundleItem)
			sales.POST("/:id/recalculate", canWrite, saleHandler.RecalculateTotal)
		}

		cities := api.Group("/cities")
		{
			cities.GET("", listingHandler.GetCityList)
			cities.POST("", canWrite, listingHandler.CreateCity)
			cities.PUT("/:id", canWrite, listingHandler.UpdateCity)
			cities.DELETE("/:id", adminOnly, listingHandler.DeleteCity)
		}

		ads := api.Group("/ads")
		{
			ads.GET("", listingHandler.GetAdList)
			ads.GET("/:id", listingHandler.GetAd)
			ads.POST("", canWrite, listingHandler.CreateAd)
			ads.PUT("/:id", canWrite, listingHandler.UpdateAd)
			ads.DELETE("/:id", adminOnly, listingHandler.DeleteAd)
			ads.POST("/:id/publish", canWrite, listingHandler.PublishAd)
			ads.POST("/:id/unpublish", canWrite, listingHandler.UnpublishAd)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("BundleKeep starting on port %s (stock policy: %s)", cfg.Port, cfg.StockPolicy)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down bundlekeep...")

	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("BundleKeep stopped")
}
