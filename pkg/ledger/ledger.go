// Package ledger records which phone numbers an organization has already
// messaged so campaigns reach each number at most once.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/waassist/connector/pkg/config"
	"github.com/waassist/connector/pkg/gateway"
)

type Entry struct {
	Phone   string    `json:"phone"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Ledger is keyed by organization and digits-only phone number.
type Ledger interface {
	Contains(ctx context.Context, orgID uint, phone string) (bool, error)
	Append(ctx context.Context, orgID uint, entry Entry) error
	Entries(ctx context.Context, orgID uint) ([]Entry, error)
	Close() error
}

// Open builds the ledger driver named in cfg.
func Open(cfg config.Ledger) (Ledger, error) {
	switch cfg.Driver {
	case "", "bolt":
		return OpenBolt(cfg.Path)
	case "redis":
		return OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}

func key(phone string) string {
	return gateway.NormalizePhone(phone)
}
