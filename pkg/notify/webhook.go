package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	EventConnected     = "whatsapp.connected"
	EventStatusChanged = "whatsapp.status_changed"
)

// ConnectionEvent describes a connection status transition.
type ConnectionEvent struct {
	Event          string    `json:"event"`
	EventID        string    `json:"event_id"`
	ProfileID      uint      `json:"profile_id"`
	OrganizationID uint      `json:"organization_id"`
	InstanceID     string    `json:"instance_id,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewConnectionEvent(event string, profileID, orgID uint) ConnectionEvent {
	return ConnectionEvent{
		Event:          event,
		EventID:        uuid.NewString(),
		ProfileID:      profileID,
		OrganizationID: orgID,
		Timestamp:      time.Now().UTC(),
	}
}

type Notifier interface {
	ConnectionEstablished(ctx context.Context, evt ConnectionEvent) error
}

// Webhook posts connection events to the workflow-automation webhook.
// Delivery is a single attempt.
type Webhook struct {
	url  string
	http *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{url: url, http: &http.Client{Timeout: timeout}}
}

func (w *Webhook) ConnectionEstablished(ctx context.Context, evt ConnectionEvent) error {
	if w.url == "" {
		return nil
	}
	return PostJSON(ctx, w.http, w.url, evt, nil)
}

// PostJSON sends payload to url and decodes a JSON answer into out when out
// is non-nil. Non-2xx answers are errors.
func PostJSON(ctx context.Context, client *http.Client, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode webhook response: %w", err)
		}
	}
	return nil
}
