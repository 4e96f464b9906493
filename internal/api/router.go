package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/directory-client/pkg/metrics"
)

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(viewHandler *ViewHandler, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"service":     "directory-proxy",
			"list_status": viewHandler.lister.View().Status,
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	view := router.Group("/view")
	{
		view.GET("", viewHandler.GetView)
		view.POST("/search", viewHandler.SetSearch)
		view.POST("/role", viewHandler.SetRole)
		view.POST("/clear", viewHandler.ClearFilters)
		view.POST("/page", viewHandler.GoToPage)
		view.POST("/next", viewHandler.NextPage)
		view.POST("/previous", viewHandler.PreviousPage)
		view.POST("/refresh", viewHandler.Refresh)
	}

	router.GET("/entities/:id", viewHandler.GetEntity)

	return router
}

// RequestLogger logs every request after it was served.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}
