package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/database"
)

// Handlers holds every route-owning handler the router wires up.
type Handlers struct {
	Auth       *api.AuthHandler
	User       *api.UserHandler
	Recipe     *api.RecipeHandler
	Tag        *api.TagHandler
	Ingredient *api.IngredientHandler
}

// SetupRouter configures the application routes.
func SetupRouter(db *gorm.DB, handlers Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	handlers.Auth.RegisterRoutes(apiGroup)
	handlers.User.RegisterRoutes(apiGroup)
	handlers.Recipe.RegisterRoutes(apiGroup)
	handlers.Tag.RegisterRoutes(apiGroup)
	handlers.Ingredient.RegisterRoutes(apiGroup)

	return router
}
