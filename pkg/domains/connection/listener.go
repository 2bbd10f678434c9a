package connection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/waassist/connector/pkg/dtos"
	"go.uber.org/zap"
)

const refreshTimeout = 30 * time.Second

// Listen reconciles the connection named in each message on subject. Change
// feeds may deliver the same request several times; Reconcile absorbs that.
func Listen(nc *nats.Conn, subject string, s Service) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		handleRefresh(s, msg.Data)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("listening for connection refresh requests", zap.String("subject", subject))
	return sub, nil
}

func handleRefresh(s Service, data []byte) bool {
	var req dtos.RefreshRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ProfileID == 0 || req.OrganizationID == 0 {
		zap.L().Warn("ignoring malformed refresh request", zap.ByteString("data", data))
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := s.Reconcile(ctx, req.ProfileID, req.OrganizationID); err != nil {
		zap.L().Warn("refresh reconcile failed",
			zap.Uint("profile_id", req.ProfileID),
			zap.Uint("organization_id", req.OrganizationID),
			zap.Error(err))
		return false
	}
	return true
}
