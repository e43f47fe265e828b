package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	healthHandler "mealplan-generator/internal/api/handlers/health"
	planHandler "mealplan-generator/internal/api/handlers/plan"
	recipesHandler "mealplan-generator/internal/api/handlers/recipes"
	"mealplan-generator/internal/api/middleware"
	"mealplan-generator/internal/core/generator"
	"mealplan-generator/internal/core/history"
	planService "mealplan-generator/internal/core/plan"
	"mealplan-generator/internal/infrastructure/config"
	"mealplan-generator/internal/pkg/common"
	imageStore "mealplan-generator/internal/storage/image"
	recipeStore "mealplan-generator/internal/storage/recipe"
)

const (
	// a full batch of generator calls can take a while
	timeoutDuration = 180 * time.Second
	// request body size limit (1MB, preference payloads are small)
	maxBodySize = 1 << 20
)

// SetupRouter wires services and routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, hist *history.Service) (*gin.Engine, error) {
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
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(middleware.Deduplication(cfg))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// per-request deadline: a hung generator call must not hold the
	// connection forever
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
		}
	})

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("plan_workers", cfg.Plan.Workers),
		zap.String("model", cfg.Generator.Model),
		zap.String("database_driver", cfg.Database.Driver),
	)

	store := recipeStore.NewStore(db)

	images, err := imageStore.NewStore(&cfg.Image)
	if err != nil {
		common.LogError("Failed to initialize image store", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	gen := generator.NewService(&cfg.Generator)
	enricher := planService.NewEnricher(store, images)
	planSvc := planService.NewService(cfg, gen, store, hist, enricher)

	// health routes
	router.GET("/health", healthHandler.HealthCheck(cfg.App.Version))
	router.GET("/ready", healthHandler.ReadinessCheck(db))
	router.GET("/live", healthHandler.LivenessCheck)

	// durable images are served straight from disk
	router.Static(cfg.Image.BaseURL, cfg.Image.Dir)

	api := router.Group("/api/v1")
	{
		planHandlerInstance := planHandler.NewHandler(planSvc, cfg.App.Debug)
		planGroup := api.Group("/plan")
		{
			planGroup.POST("/generate", planHandlerInstance.HandleGeneratePlan)
			planGroup.POST("/regenerate", planHandlerInstance.HandleRegenerate)
		}

		recipesHandlerInstance := recipesHandler.NewHandler(store, cfg.Plan)
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", recipesHandlerInstance.HandleList)
			recipeGroup.POST("/:id/favorite", recipesHandlerInstance.HandleFavorite)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
