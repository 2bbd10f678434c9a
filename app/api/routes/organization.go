package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/domains/organization"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/middleware"
	"github.com/waassist/connector/pkg/state"
)

func OrganizationRoutes(r *gin.RouterGroup, s organization.Service) {
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.GET("", getOrganization(s))
		authGroup.PUT("/gateway", updateGateway(s))
	}
}

func getOrganization(s organization.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		org, err := s.Get(c, state.CurrentOrganization(c))
		if err != nil {
			c.JSON(404, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"data": org})
	}
}

func updateGateway(s organization.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.UpdateGatewayDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		org, err := s.UpdateGateway(c, state.CurrentOrganization(c), req)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": constant.GATEWAY_UPDATED,
			"data":    org,
		})
	}
}
