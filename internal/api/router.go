// Package api assembles the HTTP router.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wastenot/wastenot-backend/internal/api/community"
	"github.com/wastenot/wastenot-backend/internal/api/tracking"
	"github.com/wastenot/wastenot-backend/internal/config"
)

// HealthChecker reports backing store health for the readiness endpoint.
type HealthChecker interface {
	Health() error
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(cfg *config.Config, trackingHandler *tracking.Handler, communityHandler *community.Handler, db HealthChecker) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = int64(cfg.Uploads.MaxSizeMB) << 20

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/users/register", trackingHandler.Register)
		api.POST("/users/login", trackingHandler.Login)
		api.GET("/users/:id", trackingHandler.GetUser)
		api.PUT("/users/:id/avatar", trackingHandler.UpdateAvatar)
		api.GET("/users/:id/badges", trackingHandler.GetUserBadges)
		api.GET("/users/:id/meals", trackingHandler.GetMeals)

		api.POST("/meals/:id/photos/before", trackingHandler.SubmitBeforePhoto)
		api.POST("/meals/:id/photos/after", trackingHandler.SubmitAfterPhoto)

		api.GET("/activities", communityHandler.GetActivities)
		api.GET("/activities/:id", communityHandler.GetActivity)
		api.POST("/activities/:id/join", communityHandler.JoinActivity)
		api.POST("/activities/:id/attend", communityHandler.MarkAttended)

		api.GET("/leaderboard", communityHandler.GetLeaderboard)
	}

	return router
}
