// Package gateway talks to the WhatsApp gateway that owns the paired device
// of an organization. The gateway's endpoints and payload shapes belong to the
// third party; this package mirrors them and normalizes what comes back.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Gateway interface {
	RequestPairingCode(ctx context.Context) (Pairing, error)
	GetStatus(ctx context.Context) (Status, error)
	SendText(ctx context.Context, phone, message string) (SendResult, error)
	MarkRead(ctx context.Context, phone, messageID string) error
	Disconnect(ctx context.Context) error
	Contacts(ctx context.Context, page, pageSize int) ([]Contact, error)
	Chats(ctx context.Context, page, pageSize int) ([]Chat, error)
	ChatMessages(ctx context.Context, phone string) ([]ChatMessage, error)
	ModifyChat(ctx context.Context, phone, action string) error
	UpdateWebhook(ctx context.Context, url string) error
}

// Instance is implemented by drivers bound to a named gateway instance.
type Instance interface {
	InstanceID() string
}

// Credentials address one gateway instance. The instance id and token form
// the base path; ClientToken travels in the Client-Token header.
type Credentials struct {
	BaseURL     string
	InstanceID  string
	Token       string
	ClientToken string
}

// Status is the normalized connection state of an instance.
type Status struct {
	Connected   bool   `json:"connected"`
	Pending     bool   `json:"pending"`
	Phone       string `json:"phone,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type SendResult struct {
	MessageID string `json:"message_id"`
	ZaapID    string `json:"zaap_id,omitempty"`
	Phone     string `json:"phone"`
}

type Contact struct {
	Phone  string `json:"phone"`
	Name   string `json:"name"`
	Short  string `json:"short,omitempty"`
	Notify string `json:"notify,omitempty"`
}

type Chat struct {
	Phone           string `json:"phone"`
	Name            string `json:"name"`
	Unread          int    `json:"unread"`
	LastMessageTime int64  `json:"last_message_time"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	FromMe    bool      `json:"from_me"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// pickString walks a decoded JSON value and returns the first non-empty
// value stored under one of keys. Direct keys win over nested ones.
func pickString(node any, keys ...string) string {
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[strings.ToLower(k)] = struct{}{}
	}

	var walk func(any) string
	walk = func(current any) string {
		switch t := current.(type) {
		case map[string]any:
			for _, k := range keys {
				for key, value := range t {
					if !strings.EqualFold(key, k) {
						continue
					}
					if raw := anyToString(value); raw != "" {
						return raw
					}
				}
			}
			for key, value := range t {
				if _, ok := keySet[strings.ToLower(key)]; ok {
					continue
				}
				if raw := walk(value); raw != "" {
					return raw
				}
			}
		case []any:
			for _, value := range t {
				if raw := walk(value); raw != "" {
					return raw
				}
			}
		}
		return ""
	}

	return walk(node)
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", t))
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
