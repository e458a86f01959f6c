package handlers

import (
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every endpoint under /api/v1 plus /metrics.
func NewRouter(h *Handlers, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/ws"})))

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/login", h.Login)
		api.GET("/profile", h.GetProfile)

		api.GET("/reports", h.GetReports)
		api.GET("/reports/export.csv", h.ExportReports)
		api.GET("/reports/:id", h.GetReport)
		api.POST("/reports", h.CreateReport)
		api.PUT("/reports/:id", h.UpdateReport)
		api.PATCH("/reports/:id/location", h.RelocateReport)

		api.GET("/stats", h.GetStats)
		api.POST("/map", h.GetMap)
		api.POST("/analysis", h.Analyze)
		api.POST("/feedback", h.SubmitFeedback)
		api.POST("/chat", h.Chat)

		api.GET("/geocode/reverse", h.ReverseGeocode)
		api.GET("/geocode/search", h.SearchLocation)

		api.GET("/news", h.GetNews)
		api.POST("/news", h.CreateNews)

		api.GET("/theme", h.GetTheme)
		api.PUT("/theme", h.SetTheme)
		api.POST("/theme/toggle", h.ToggleTheme)

		api.GET("/ws", h.ListenReports)
	}
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Request")
	}
}
