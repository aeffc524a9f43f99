package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/chai-cli/internal/logger"
)

// SetupRouter creates and configures the gin router.
func SetupRouter(handler *Handler, log *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(log))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/search", handler.Search)
		v1.GET("/teas", handler.GetTeaByURL)
		v1.GET("/teas/:id", handler.GetTea)
		v1.GET("/stats", handler.Stats)
	}

	return router
}
