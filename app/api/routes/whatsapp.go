package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/domains/connection"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/middleware"
	"github.com/waassist/connector/pkg/state"
)

func WhatsAppRoutes(r *gin.RouterGroup, s connection.Service, gw connection.GatewayProvider) {
	// Apply JWT authentication to all WhatsApp endpoints
	authGroup := r.Group("", middleware.CheckAuth())
	{
		authGroup.GET("/qr-code", getQRCode(s))
		authGroup.GET("/status", getStatus(s))
		authGroup.POST("/disconnect", disconnect(s))
		authGroup.GET("/connection", getConnection(s))
		authGroup.PUT("/connection", updateConnection(s))

		authGroup.POST("/send-message", sendMessage(gw))
		authGroup.POST("/read-message", readMessage(gw))
		authGroup.GET("/contacts", getContacts(gw))
		authGroup.GET("/chats", getChats(gw))
		authGroup.GET("/chats/:phone/messages", getChatMessages(gw))
		authGroup.POST("/chats/:phone/modify", modifyChat(gw))
		authGroup.PUT("/webhook", updateWebhook(gw))
	}
}

func getQRCode(s connection.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		qr, err := s.RequestPairing(c, state.CurrentUser(c), state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		message := constant.QR_CODE_GENERATED
		if qr.Paired {
			message = constant.WHATSAPP_PAIRED
		}
		c.JSON(200, gin.H{
			"message": message,
			"data":    qr,
		})
	}
}

// getStatus reconciles the stored connection with the gateway.
func getStatus(s connection.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		record, err := s.Reconcile(c, state.CurrentUser(c), state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": constant.STATUS_RETRIEVED,
			"data":    record,
		})
	}
}

func disconnect(s connection.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		record, err := s.Disconnect(c, state.CurrentUser(c), state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": constant.WHATSAPP_DISCONNECTED,
			"data":    record,
		})
	}
}

func getConnection(s connection.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		record, err := s.Get(c, state.CurrentUser(c), state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{"data": record})
	}
}

func updateConnection(s connection.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.UpdateConnectionDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		record, err := s.UpdateSettings(c, state.CurrentUser(c), state.CurrentOrganization(c), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": constant.CONNECTION_UPDATED,
			"data":    record,
		})
	}
}

func sendMessage(gw connection.GatewayProvider) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.SendMessageDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		client, err := gw.For(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		res, err := client.SendText(c, req.PhoneNumber, req.Message)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": constant.MESSAGE_SENT,
			"data": dtos.MessageResponseDTO{
				MessageID: res.MessageID,
				ZaapID:    res.ZaapID,
				To:        res.Phone,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		})
	}
}

func readMessage(gw connection.GatewayProvider) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.ReadMessageDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		client, err := gw.For(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		if err := client.MarkRead(c, req.PhoneNumber, req.MessageID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{"message": constant.MESSAGE_READ})
	}
}

func getContacts(gw connection.GatewayProvider) func(c *gin.Context) {
	return func(c *gin.Context) {
		client, err := gw.For(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		contacts, err := client.Contacts(c, queryInt(c, "page", 1), queryInt(c, "page_size", 50))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message":  constant.CONTACTS_RETRIEVED,
			"contacts": contacts,
		})
	}
}

func getChats(gw connection.GatewayProvider) func(c *gin.Context) {
	return func(c *gin.Context) {
		client, err := gw.For(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		chats, err := client.Chats(c, queryInt(c, "page", 1), queryInt(c, "page_size", 50))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": constant.CHATS_RETRIEVED,
			"chats":   chats,
		})
	}
}

func getChatMessages(gw connection.GatewayProvider) func(c *gin.Context) {
	return func(c *gin.Context) {
		client, err := gw.For(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		messages, err := client.ChatMessages(c, c.Param("phone"))
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]dtos.ChatMessageDTO, 0, len(messages))
		for _, m := range messages {
			role := "user"
			if m.FromMe {
				role = "assistant"
			}
			out = append(out, dtos.ChatMessageDTO{
				ID:        m.ID,
				Role:      role,
				Text:      m.Text,
				Timestamp: m.Timestamp,
			})
		}

		c.JSON(200, gin.H{"messages": out})
	}
}

func modifyChat(gw connection.GatewayProvider) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.ModifyChatDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		client, err := gw.For(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		if err := client.ModifyChat(c, c.Param("phone"), req.Action); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{"message": constant.CHAT_MODIFIED})
	}
}

func updateWebhook(gw connection.GatewayProvider) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.UpdateWebhookDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		client, err := gw.For(c, state.CurrentOrganization(c))
		if err != nil {
			respondError(c, err)
			return
		}

		if err := client.UpdateWebhook(c, req.URL); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{"message": constant.WEBHOOK_UPDATED})
	}
}
