package routes

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/domains/lead"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/middleware"
	"github.com/waassist/connector/pkg/state"
)

func LeadRoutes(r *gin.RouterGroup, s lead.Service) {
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.GET("", listLeads(s))
		authGroup.POST("/generate", generateLeads(s))
	}
}

func listLeads(s lead.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		page := queryInt(c, "page", 1)
		leads, pages, err := s.List(c, state.CurrentOrganization(c), page)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message":     constant.LEADS_RETRIEVED,
			"data":        leads,
			"page":        page,
			"total_pages": pages,
		})
	}
}

func generateLeads(s lead.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.GenerateLeadsDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		result, err := s.Generate(c, state.CurrentUser(c), state.CurrentOrganization(c), req)
		if errors.Is(err, lead.ErrWebhookMissing) {
			c.JSON(503, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": constant.LEADS_GENERATED,
			"data":    result,
		})
	}
}
