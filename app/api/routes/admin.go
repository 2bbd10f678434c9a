package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/waassist/connector/pkg/domains/connection"
	"github.com/waassist/connector/pkg/middleware"
)

func AdminRoutes(r *gin.RouterGroup, sweeper *connection.Sweeper) {
	adminGroup := r.Group("", middleware.Admin())
	{
		adminGroup.POST("/reconcile", runReconcile(sweeper))
	}
}

// runReconcile sweeps every known connection once, outside the schedule.
func runReconcile(sweeper *connection.Sweeper) func(c *gin.Context) {
	return func(c *gin.Context) {
		result := sweeper.RunOnce(c.Request.Context())
		c.JSON(200, gin.H{"data": result})
	}
}
