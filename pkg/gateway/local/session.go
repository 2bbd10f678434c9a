// Package local runs WhatsApp sessions in process with whatsmeow, for
// deployments that do not use the hosted gateway. Each organization gets its
// own device store under the configured directory.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/waassist/connector/pkg/config"
	"github.com/waassist/connector/pkg/entities"
	"github.com/waassist/connector/pkg/gateway"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"
)

const qrWait = 20 * time.Second

// Session is one organization's whatsmeow client.
type Session struct {
	orgID     uint
	client    *whatsmeow.Client
	container *sqlstore.Container
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.RWMutex
	lastQR   string
	pairing  bool
	qrNotify chan struct{}
}

var _ gateway.Gateway = (*Session)(nil)

// Factory opens a session per organization under cfg.LocalStore.
func Factory(cfg config.Gateway) gateway.Factory {
	return func(org entities.Organization) (gateway.Gateway, error) {
		return Open(cfg.LocalStore, org.ID)
	}
}

func Open(dir string, orgID uint) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	clientLog := waLog.Stdout(fmt.Sprintf("WhatsApp_Org_%d", orgID), "INFO", true)

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", filepath.Join(dir, fmt.Sprintf("org_%d.db", orgID)))
	container, err := sqlstore.New(ctx, "sqlite", dsn, clientLog)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open device store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		container.Close()
		cancel()
		return nil, fmt.Errorf("load device: %w", err)
	}

	s := &Session{
		orgID:     orgID,
		client:    whatsmeow.NewClient(device, clientLog),
		container: container,
		ctx:       ctx,
		cancel:    cancel,
		qrNotify:  make(chan struct{}, 1),
	}
	s.client.AddEventHandler(s.handleEvent)

	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			zap.L().Warn("whatsapp: reconnect of stored session failed", zap.Uint("organization_id", orgID), zap.Error(err))
		}
	}

	zap.L().Info("whatsapp: local session opened", zap.Uint("organization_id", orgID), zap.Bool("logged_in", s.client.Store.ID != nil))
	return s, nil
}

func (s *Session) loggedIn() bool {
	return s.client.Store.ID != nil
}

func (s *Session) RequestPairingCode(ctx context.Context) (gateway.Pairing, error) {
	if s.loggedIn() {
		if !s.client.IsConnected() {
			if err := s.client.Connect(); err != nil {
				return gateway.Pairing{}, fmt.Errorf("%w: %v", gateway.ErrUnreachable, err)
			}
		}
		return gateway.Pairing{Kind: gateway.PairingPaired}, nil
	}

	if err := s.startPairing(); err != nil {
		return gateway.Pairing{}, err
	}

	timer := time.NewTimer(qrWait)
	defer timer.Stop()
	for {
		if code := s.currentQR(); code != "" {
			return renderQR(code), nil
		}
		if s.loggedIn() {
			return gateway.Pairing{Kind: gateway.PairingPaired}, nil
		}
		select {
		case <-s.qrNotify:
		case <-timer.C:
			return gateway.Pairing{Kind: gateway.PairingError, Reason: "timed out waiting for QR code"}, nil
		case <-ctx.Done():
			return gateway.Pairing{}, ctx.Err()
		}
	}
}

// startPairing opens the QR channel once; later calls reuse the running
// pairing and the most recent code.
func (s *Session) startPairing() error {
	s.mu.Lock()
	if s.pairing {
		s.mu.Unlock()
		return nil
	}
	s.pairing = true
	s.mu.Unlock()

	qrChan, err := s.client.GetQRChannel(s.ctx)
	if err != nil {
		s.setPairing(false)
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		s.setPairing(false)
		return fmt.Errorf("%w: %v", gateway.ErrUnreachable, err)
	}

	go func() {
		defer s.setPairing(false)
		for evt := range qrChan {
			switch evt.Event {
			case "code":
				s.setQR(evt.Code)
			case "success":
				zap.L().Info("whatsapp: paired via QR code", zap.Uint("organization_id", s.orgID))
				s.setQR("")
				return
			case "timeout":
				zap.L().Info("whatsapp: QR code expired", zap.Uint("organization_id", s.orgID))
				s.setQR("")
				return
			case "error":
				zap.L().Warn("whatsapp: QR error", zap.Uint("organization_id", s.orgID), zap.Error(evt.Error))
				s.setQR("")
				return
			}
		}
	}()
	return nil
}

func (s *Session) setPairing(v bool) {
	s.mu.Lock()
	s.pairing = v
	s.mu.Unlock()
}

func (s *Session) setQR(code string) {
	s.mu.Lock()
	s.lastQR = code
	s.mu.Unlock()
	select {
	case s.qrNotify <- struct{}{}:
	default:
	}
}

func (s *Session) currentQR() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastQR
}

func renderQR(code string) gateway.Pairing {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return gateway.Pairing{Kind: gateway.PairingError, Reason: "unable to render QR code: " + err.Error()}
	}
	return gateway.Pairing{Kind: gateway.PairingQRImage, Image: png, MimeType: "image/png"}
}

func (s *Session) GetStatus(ctx context.Context) (gateway.Status, error) {
	if !s.loggedIn() {
		return gateway.Status{Pending: true}, nil
	}
	st := gateway.Status{
		Connected:   s.client.IsConnected(),
		Phone:       s.client.Store.ID.User,
		DisplayName: s.client.Store.PushName,
	}
	st.Pending = !st.Connected
	return st, nil
}

func (s *Session) ready() error {
	if !s.loggedIn() || !s.client.IsConnected() {
		return &gateway.Error{Code: gateway.CodeNotPaired, Message: "WhatsApp session needs to be connected"}
	}
	return nil
}

func jidFor(phone string) (waTypes.JID, error) {
	digits := gateway.NormalizePhone(phone)
	if len(digits) < 10 {
		return waTypes.JID{}, &gateway.Error{Code: gateway.CodeInvalidPhone, Message: "invalid phone number: " + phone}
	}
	return waTypes.NewJID(digits, waTypes.DefaultUserServer), nil
}

func (s *Session) SendText(ctx context.Context, phone, message string) (gateway.SendResult, error) {
	if err := s.ready(); err != nil {
		return gateway.SendResult{}, err
	}
	recipient, err := jidFor(phone)
	if err != nil {
		return gateway.SendResult{}, err
	}

	resp, err := s.client.SendMessage(ctx, recipient, &waE2E.Message{
		Conversation: proto.String(message),
	})
	if err != nil {
		return gateway.SendResult{}, &gateway.Error{Code: gateway.Classify(err.Error()), Message: err.Error()}
	}
	return gateway.SendResult{MessageID: resp.ID, Phone: recipient.User}, nil
}

func (s *Session) MarkRead(ctx context.Context, phone, messageID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	chat, err := jidFor(phone)
	if err != nil {
		return err
	}
	return s.client.MarkRead(ctx, []waTypes.MessageID{messageID}, time.Now(), chat, chat)
}

func (s *Session) Disconnect(ctx context.Context) error {
	if s.loggedIn() {
		if err := s.client.Logout(ctx); err != nil {
			return &gateway.Error{Code: gateway.Classify(err.Error()), Message: err.Error()}
		}
		return nil
	}
	s.client.Disconnect()
	return nil
}

func (s *Session) Contacts(ctx context.Context, page, pageSize int) ([]gateway.Contact, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}

	contacts := make([]gateway.Contact, 0, len(all))
	for jid, info := range all {
		name := info.FullName
		if name == "" {
			name = info.BusinessName
		}
		contacts = append(contacts, gateway.Contact{
			Phone:  jid.User,
			Name:   name,
			Short:  info.FirstName,
			Notify: info.PushName,
		})
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Phone < contacts[j].Phone })
	return paginate(contacts, page, pageSize), nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page <= 0 || pageSize <= 0 {
		return items
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *Session) Chats(context.Context, int, int) ([]gateway.Chat, error) {
	return nil, gateway.ErrUnsupported
}

func (s *Session) ChatMessages(context.Context, string) ([]gateway.ChatMessage, error) {
	return nil, gateway.ErrUnsupported
}

func (s *Session) ModifyChat(context.Context, string, string) error {
	return gateway.ErrUnsupported
}

func (s *Session) UpdateWebhook(context.Context, string) error {
	return gateway.ErrUnsupported
}

func (s *Session) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		text := v.Message.GetConversation()
		if text == "" && v.Message.GetExtendedTextMessage() != nil {
			text = v.Message.GetExtendedTextMessage().GetText()
		}
		zap.L().Debug("whatsapp: message received",
			zap.Uint("organization_id", s.orgID),
			zap.String("from", v.Info.SourceString()),
			zap.Int("length", len(text)))
	case *events.LoggedOut:
		zap.L().Info("whatsapp: session logged out", zap.Uint("organization_id", s.orgID))
	case *events.Connected:
		zap.L().Info("whatsapp: session connected", zap.Uint("organization_id", s.orgID))
	}
}

// Close disconnects the client and releases the device store.
func (s *Session) Close() error {
	s.cancel()
	s.client.Disconnect()
	return s.container.Close()
}
