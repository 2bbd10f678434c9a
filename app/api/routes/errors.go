package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/domains/connection"
	"github.com/waassist/connector/pkg/gateway"
	"go.uber.org/zap"
)

// respondError writes err as {"error": ...} with a status matching its kind.
// Gateway text is passed through unchanged.
func respondError(c *gin.Context, err error) {
	var (
		gwErr    *gateway.Error
		conflict *connection.PhoneConflictError
		pairing  *connection.PairingError
	)
	errStatus := http.StatusInternalServerError

	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		errStatus = http.StatusPreconditionFailed
	case errors.Is(err, gateway.ErrUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{"error": gateway.ErrUnreachable.Error()})
		return
	case errors.Is(err, connection.ErrNotFound):
		errStatus = http.StatusNotFound
	case errors.As(err, &conflict):
		errStatus = http.StatusConflict
	case errors.As(err, &pairing):
		errStatus = http.StatusBadGateway
	case errors.As(err, &gwErr):
		switch gwErr.Code {
		case gateway.CodeNotPaired:
			c.JSON(http.StatusConflict, gin.H{"error": constant.WHATSAPP_NOT_CONNECTED})
			return
		case gateway.CodeInvalidPhone:
			errStatus = http.StatusBadRequest
		case gateway.CodeUnsupported:
			errStatus = http.StatusNotImplemented
		default:
			errStatus = http.StatusBadGateway
		}
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(errStatus, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
