package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/domains/campaign"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/middleware"
	"github.com/waassist/connector/pkg/state"
)

func CampaignRoutes(r *gin.RouterGroup, s campaign.Service) {
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.POST("/dispatch", dispatchCampaign(s))
		authGroup.GET("/ledger", getLedger(s))
	}
}

// dispatchCampaign blocks until every target is attempted. Closing the
// request stops the run and the partial report is returned.
func dispatchCampaign(s campaign.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.DispatchCampaignDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		// gin.Context carries the user and organization, the request carries cancellation
		profileID, orgID := state.CurrentUser(c), state.CurrentOrganization(c)
		report, err := s.Dispatch(c.Request.Context(), profileID, orgID, req)
		if err != nil {
			respondError(c, err)
			return
		}

		message := constant.CAMPAIGN_DISPATCHED
		if report.Interrupted {
			message = constant.CAMPAIGN_INTERRUPTED
		}
		c.JSON(200, gin.H{
			"message": message,
			"data":    report,
		})
	}
}

func getLedger(s campaign.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		entries, err := s.Ledger(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": constant.LEDGER_RETRIEVED,
			"data":    entries,
		})
	}
}
