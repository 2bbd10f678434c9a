package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxBodySize = 8 << 20

// Client is the HTTP driver for the hosted gateway.
type Client struct {
	creds Credentials
	http  *http.Client
}

var _ Gateway = (*Client)(nil)

func NewClient(creds Credentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{creds: creds, http: httpClient}
}

func (c *Client) InstanceID() string {
	return c.creds.InstanceID
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.creds.BaseURL, "/") +
		"/instances/" + url.PathEscape(c.creds.InstanceID) +
		"/token/" + url.PathEscape(c.creds.Token) +
		"/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode gateway request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds.ClientToken != "" {
		req.Header.Set("Client-Token", c.creds.ClientToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Warn("gateway request failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        raw,
	}, nil
}

// check turns a non-2xx response, or a 2xx JSON body carrying an "error"
// field, into an *Error with the gateway's text preserved.
func (r *response) check() error {
	var payload any
	_ = json.Unmarshal(r.body, &payload)

	if isSuccess(r.status) {
		if m, ok := payload.(map[string]any); ok {
			text := anyToString(m["error"])
			if text == "true" {
				text = anyToString(m["message"])
			}
			if text != "" && text != "false" {
				return &Error{Code: Classify(text), Status: r.status, Message: text}
			}
		}
		return nil
	}

	text := pickString(payload, "error", "message", "detail")
	if text == "" {
		text = strings.TrimSpace(string(r.body))
	}
	if text == "" {
		text = http.StatusText(r.status)
	}
	return &Error{Code: Classify(text), Status: r.status, Message: text}
}

func (c *Client) RequestPairingCode(ctx context.Context) (Pairing, error) {
	r, err := c.do(ctx, http.MethodGet, "qr-code/image", nil)
	if err != nil {
		return Pairing{}, err
	}
	return ParsePairingResponse(r.status, r.contentType, r.body), nil
}

func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	r, err := c.do(ctx, http.MethodGet, "status", nil)
	if err != nil {
		return Status{}, err
	}
	st, err := ParseStatusResponse(r.status, r.body)
	if err != nil {
		return Status{}, err
	}

	if st.Connected && st.Phone == "" {
		c.fillDevice(ctx, &st)
	}
	return st, nil
}

// fillDevice reads the paired phone from the device endpoint. Failures only
// leave the fields empty.
func (c *Client) fillDevice(ctx context.Context, st *Status) {
	r, err := c.do(ctx, http.MethodGet, "device", nil)
	if err != nil || r.check() != nil {
		return
	}
	var payload any
	if json.Unmarshal(r.body, &payload) != nil {
		return
	}
	st.Phone = NormalizePhone(pickString(payload, "phone", "number", "wid"))
	if st.DisplayName == "" {
		st.DisplayName = pickString(payload, "name", "pushname", "displayName")
	}
}

func (c *Client) SendText(ctx context.Context, phone, message string) (SendResult, error) {
	digits := NormalizePhone(phone)
	if digits == "" {
		return SendResult{}, &Error{Code: CodeInvalidPhone, Message: "invalid phone number: " + phone}
	}

	r, err := c.do(ctx, http.MethodPost, "send-text", map[string]string{
		"phone":   digits,
		"message": message,
	})
	if err != nil {
		return SendResult{}, err
	}
	if err := r.check(); err != nil {
		return SendResult{}, err
	}

	var payload any
	_ = json.Unmarshal(r.body, &payload)
	return SendResult{
		MessageID: pickString(payload, "messageId", "id"),
		ZaapID:    pickString(payload, "zaapId"),
		Phone:     digits,
	}, nil
}

func (c *Client) MarkRead(ctx context.Context, phone, messageID string) error {
	r, err := c.do(ctx, http.MethodPost, "read-message", map[string]string{
		"phone":     NormalizePhone(phone),
		"messageId": messageID,
	})
	if err != nil {
		return err
	}
	return r.check()
}

// Disconnect logs the instance out. An instance that is not paired is
// already in the requested state.
func (c *Client) Disconnect(ctx context.Context) error {
	r, err := c.do(ctx, http.MethodGet, "disconnect", nil)
	if err != nil {
		return err
	}
	if err := r.check(); err != nil && !IsPending(err) {
		return err
	}
	return nil
}

func (c *Client) Contacts(ctx context.Context, page, pageSize int) ([]Contact, error) {
	var raw []struct {
		Phone  string `json:"phone"`
		Name   string `json:"name"`
		Short  string `json:"short"`
		Notify string `json:"notify"`
		Vname  string `json:"vname"`
	}
	if err := c.getList(ctx, "contacts", page, pageSize, &raw); err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(raw))
	for _, item := range raw {
		name := item.Name
		if name == "" {
			name = item.Vname
		}
		contacts = append(contacts, Contact{
			Phone:  NormalizePhone(item.Phone),
			Name:   name,
			Short:  item.Short,
			Notify: item.Notify,
		})
	}
	return contacts, nil
}

func (c *Client) Chats(ctx context.Context, page, pageSize int) ([]Chat, error) {
	var raw []struct {
		Phone           string `json:"phone"`
		Name            string `json:"name"`
		Unread          any    `json:"unread"`
		LastMessageTime any    `json:"lastMessageTime"`
	}
	if err := c.getList(ctx, "chats", page, pageSize, &raw); err != nil {
		return nil, err
	}

	chats := make([]Chat, 0, len(raw))
	for _, item := range raw {
		unread, _ := strconv.Atoi(anyToString(item.Unread))
		last, _ := strconv.ParseInt(anyToString(item.LastMessageTime), 10, 64)
		chats = append(chats, Chat{
			Phone:           NormalizePhone(item.Phone),
			Name:            item.Name,
			Unread:          unread,
			LastMessageTime: last,
		})
	}
	return chats, nil
}

func (c *Client) ChatMessages(ctx context.Context, phone string) ([]ChatMessage, error) {
	r, err := c.do(ctx, http.MethodGet, "chat-messages/"+url.PathEscape(NormalizePhone(phone)), nil)
	if err != nil {
		return nil, err
	}
	if err := r.check(); err != nil {
		return nil, err
	}

	var raw []struct {
		MessageID string `json:"messageId"`
		Phone     string `json:"phone"`
		FromMe    bool   `json:"fromMe"`
		Momment   int64  `json:"momment"`
		Text      struct {
			Message string `json:"message"`
		} `json:"text"`
	}
	if err := json.Unmarshal(r.body, &raw); err != nil {
		return nil, fmt.Errorf("decode chat messages: %w", err)
	}

	messages := make([]ChatMessage, 0, len(raw))
	for _, item := range raw {
		messages = append(messages, ChatMessage{
			ID:        item.MessageID,
			Phone:     NormalizePhone(item.Phone),
			FromMe:    item.FromMe,
			Text:      item.Text.Message,
			Timestamp: time.UnixMilli(item.Momment),
		})
	}
	return messages, nil
}

func (c *Client) ModifyChat(ctx context.Context, phone, action string) error {
	r, err := c.do(ctx, http.MethodPost, "modify-chat", map[string]string{
		"phone":  NormalizePhone(phone),
		"action": action,
	})
	if err != nil {
		return err
	}
	return r.check()
}

func (c *Client) UpdateWebhook(ctx context.Context, webhookURL string) error {
	r, err := c.do(ctx, http.MethodPut, "update-webhook-received", map[string]string{
		"value": webhookURL,
	})
	if err != nil {
		return err
	}
	return r.check()
}

func (c *Client) getList(ctx context.Context, path string, page, pageSize int, out any) error {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	r, err := c.do(ctx, http.MethodGet, path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	if err := r.check(); err != nil {
		return err
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
