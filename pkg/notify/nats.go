package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type Publisher interface {
	ConnectionChanged(evt ConnectionEvent)
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) ConnectionChanged(ConnectionEvent) {}

// Bus publishes connection changes on NATS and hands out the connection for
// subscribers.
type Bus struct {
	conn           *nats.Conn
	changedSubject string
}

func Connect(url, name, changedSubject string) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			zap.L().Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.L().Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	zap.L().Info("connected to NATS", zap.String("url", url))
	return &Bus{conn: nc, changedSubject: changedSubject}, nil
}

func (b *Bus) Conn() *nats.Conn {
	return b.conn
}

func (b *Bus) ConnectionChanged(evt ConnectionEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		zap.L().Error("encode connection event", zap.Error(err))
		return
	}
	if err := b.conn.Publish(b.changedSubject, data); err != nil {
		zap.L().Warn("publish connection event failed", zap.String("subject", b.changedSubject), zap.Error(err))
	}
}

func (b *Bus) Close() {
	if b.conn != nil && !b.conn.IsClosed() {
		b.conn.Drain()
	}
}
