package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"meal-cost-analyzer/internal/api/handlers/health"
	mealHandler "meal-cost-analyzer/internal/api/handlers/meal"
	"meal-cost-analyzer/internal/api/middleware"
	"meal-cost-analyzer/internal/core/ai/openrouter"
	"meal-cost-analyzer/internal/core/analysis"
	"meal-cost-analyzer/internal/core/image"
	"meal-cost-analyzer/internal/core/pricing"
	"meal-cost-analyzer/internal/core/storage"
	"meal-cost-analyzer/internal/infrastructure/config"
	"meal-cost-analyzer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// two oracle round trips fit comfortably inside this
	timeoutDuration = 120 * time.Second
	// request body size limit (1MB, requests carry URLs not image bytes)
	maxBodySize = 1 << 20
)

// SetupRouter wires services, middleware, and routes
func SetupRouter(cfg *config.Config) (*gin.Engine, func(), error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.Deduplication(cfg))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("storage_enabled", cfg.Storage.Enabled),
		zap.String("model", cfg.OpenRouter.Model),
		zap.Duration("timeout", timeoutDuration),
	)

	// ingredient reference prices
	priceTable, err := pricing.LoadTable(cfg.Pricing.TablePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load price table: %w", err)
	}
	corrector := pricing.NewCorrector(priceTable, nil)

	// oracle client and the analysis pipeline around it
	oracle := openrouter.NewClient(&cfg.OpenRouter)
	resultCache := analysis.NewResultCache(&cfg.Cache)
	analysisService := analysis.NewService(oracle, corrector, resultCache)

	imageService := image.NewService(10 * time.Second)

	// saved-meal repository, disabled mode when redis is not configured
	repository, err := storage.NewRepository(&cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize meal storage: %w", err)
	}

	cleanup := func() {
		resultCache.Close()
		if err := repository.Close(); err != nil {
			common.LogWarn("failed to close meal storage", zap.Error(err))
		}
		if err := oracle.Close(); err != nil {
			common.LogWarn("failed to close oracle client", zap.Error(err))
		}
	}

	// per-request timeout and service injection
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("analysis_service", analysisService)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	api := router.Group("/api/v1")
	{
		analyzeHandler := mealHandler.NewAnalyzeHandler(analysisService, imageService)
		mealsHandler := mealHandler.NewMealsHandler(repository)

		mealGroup := api.Group("/meal")
		{
			// photo to priced analysis
			mealGroup.POST("/analyze", analyzeHandler.HandleAnalyze)

			// photo to display card
			mealGroup.POST("/card", analyzeHandler.HandleCard)

			// persistence
			mealGroup.POST("", mealsHandler.HandleSave)
			mealGroup.DELETE("/:id", mealsHandler.HandleDelete)
		}

		api.GET("/savings", mealsHandler.HandleSavings)
		api.GET("/history", mealsHandler.HandleHistory)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("storage_enabled", repository.Enabled()),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, cleanup, nil
}
