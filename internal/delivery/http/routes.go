package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ready2cook/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	if cfg.Server.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	}

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger.Named("access")))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		recipes := v1.Group("/recipes")
		{
			recipes.GET("/search", handler.SearchRecipes)
			recipes.GET("/:id", handler.GetRecipe)
		}

		favorites := v1.Group("/favorites")
		{
			favorites.GET("", handler.ListFavorites)
			favorites.POST("", handler.AddFavorite)
			favorites.POST("/toggle", handler.ToggleFavorite)
			favorites.GET("/:id", handler.GetFavorite)
			favorites.DELETE("/:id", handler.RemoveFavorite)
		}

		myRecipes := v1.Group("/my-recipes")
		{
			myRecipes.GET("", handler.ListMyRecipes)
			myRecipes.POST("", handler.CreateMyRecipe)
			myRecipes.GET("/:id", handler.GetMyRecipe)
			myRecipes.DELETE("/:id", handler.DeleteMyRecipe)
		}
	}

	return router
}
