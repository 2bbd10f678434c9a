package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/entities"
	"github.com/waassist/connector/pkg/gateway"
	"github.com/waassist/connector/pkg/notify"
	"github.com/waassist/connector/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("whatsapp connection not found")

// PhoneConflictError reports a phone number already held by another
// connection.
type PhoneConflictError struct {
	Phone string
}

func (e *PhoneConflictError) Error() string {
	return fmt.Sprintf(constant.PHONE_IN_USE, e.Phone)
}

// PairingError carries the reason the gateway gave for not producing a code.
type PairingError struct {
	Reason string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf(constant.PAIRING_FAILED, e.Reason)
}

// GatewayProvider hands out the gateway of an organization.
type GatewayProvider interface {
	For(ctx context.Context, orgID uint) (gateway.Gateway, error)
}

type Service interface {
	Reconcile(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error)
	RequestPairing(ctx context.Context, profileID, orgID uint) (dtos.QRCodeDTO, error)
	Disconnect(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error)
	Get(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error)
	UpdateSettings(ctx context.Context, profileID, orgID uint, req dtos.UpdateConnectionDTO) (entities.ConnectionRecord, error)
}

type service struct {
	repository Repository
	gateways   GatewayProvider
	notifier   notify.Notifier
	publisher  notify.Publisher
	locks      *utils.KeyedLocks[Owner]
}

func NewService(r Repository, g GatewayProvider, n notify.Notifier, p notify.Publisher) Service {
	if p == nil {
		p = notify.NopPublisher{}
	}
	return &service{
		repository: r,
		gateways:   g,
		notifier:   n,
		publisher:  p,
		locks:      utils.NewKeyedLocks[Owner](),
	}
}

// Reconcile polls the gateway and brings the persisted record in line with
// it. Nothing is written when the record already matches.
func (s *service) Reconcile(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error) {
	unlock := s.locks.Lock(Owner{ProfileID: profileID, OrganizationID: orgID})
	defer unlock()

	return s.reconcile(ctx, profileID, orgID)
}

func (s *service) reconcile(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error) {
	gw, err := s.gateways.For(ctx, orgID)
	if err != nil {
		reconcileCounter.WithLabelValues("error").Inc()
		return entities.ConnectionRecord{}, err
	}

	status, err := gw.GetStatus(ctx)
	if err != nil {
		if !gateway.IsPending(err) {
			reconcileCounter.WithLabelValues("error").Inc()
			return entities.ConnectionRecord{}, err
		}
		status = gateway.Status{Pending: true}
	}

	record, err := s.current(ctx, profileID, orgID)
	if err != nil {
		reconcileCounter.WithLabelValues("error").Inc()
		return entities.ConnectionRecord{}, err
	}

	next := record
	next.Status = nextStatus(record.Status, status)
	if status.Connected {
		if phone := gateway.NormalizePhone(status.Phone); phone != "" && phone != record.Phone() {
			if s.phoneTaken(ctx, phone, record.ID) {
				zap.L().Warn("gateway reported a phone number held by another connection",
					zap.Uint("profile_id", profileID),
					zap.Uint("organization_id", orgID),
					zap.String("phone", phone))
			} else {
				next.PhoneNumber = &phone
			}
		}
		if status.DisplayName != "" {
			next.DisplayName = status.DisplayName
		}
	}
	if inst, ok := gw.(gateway.Instance); ok && inst.InstanceID() != "" {
		next.GatewayInstanceID = inst.InstanceID()
	}

	if record.ID != 0 && !changed(record, next) {
		reconcileCounter.WithLabelValues("unchanged").Inc()
		return record, nil
	}

	if err := s.repository.Save(ctx, &next); err != nil {
		reconcileCounter.WithLabelValues("error").Inc()
		return entities.ConnectionRecord{}, s.saveError(err, next)
	}
	reconcileCounter.WithLabelValues("changed").Inc()

	s.announce(ctx, record.Status, next)
	return next, nil
}

// nextStatus derives the persisted status from a gateway poll. A session that
// is paired but offline is CONNECTING; a lost session drops to DISCONNECTED;
// a pending QR code stays QR_GENERATED until it is scanned.
func nextStatus(previous entities.ConnectionStatus, status gateway.Status) entities.ConnectionStatus {
	switch {
	case status.Connected:
		return entities.StatusConnected
	case status.Phone != "":
		return entities.StatusConnecting
	case previous == entities.StatusQRGenerated:
		return entities.StatusQRGenerated
	default:
		return entities.StatusDisconnected
	}
}

func changed(a, b entities.ConnectionRecord) bool {
	return a.Status != b.Status ||
		a.Phone() != b.Phone() ||
		a.DisplayName != b.DisplayName ||
		a.GatewayInstanceID != b.GatewayInstanceID
}

// current returns the authoritative record, or an unsaved DISCONNECTED one
// when the owner has none yet.
func (s *service) current(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error) {
	record, err := s.repository.Latest(ctx, profileID, orgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ConnectionRecord{
			ProfileID:      profileID,
			OrganizationID: orgID,
			Status:         entities.StatusDisconnected,
		}, nil
	}
	if err != nil {
		return entities.ConnectionRecord{}, fmt.Errorf(constant.SOMETHING_WENT_WRONG+": %w", err)
	}
	return record, nil
}

func (s *service) phoneTaken(ctx context.Context, phone string, recordID uint) bool {
	other, err := s.repository.FindByPhone(ctx, phone)
	return err == nil && other.ID != recordID
}

func (s *service) saveError(err error, record entities.ConnectionRecord) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &PhoneConflictError{Phone: record.Phone()}
	}
	return err
}

// announce publishes status transitions and fires the connected
// notification. Notification failures are logged and never returned.
func (s *service) announce(ctx context.Context, previous entities.ConnectionStatus, record entities.ConnectionRecord) {
	if previous == record.Status {
		return
	}

	evt := notify.NewConnectionEvent(notify.EventStatusChanged, record.ProfileID, record.OrganizationID)
	evt.InstanceID = record.GatewayInstanceID
	evt.Phone = record.Phone()
	evt.Status = string(record.Status)
	evt.PreviousStatus = string(previous)
	s.publisher.ConnectionChanged(evt)

	if record.Status != entities.StatusConnected || s.notifier == nil {
		return
	}

	evt.Event = notify.EventConnected
	if err := s.notifier.ConnectionEstablished(ctx, evt); err != nil {
		notificationFailureCounter.Inc()
		zap.L().Warn("connected notification failed",
			zap.Uint("profile_id", record.ProfileID),
			zap.Uint("organization_id", record.OrganizationID),
			zap.String("event_id", evt.EventID),
			zap.Error(err))
		return
	}
	zap.L().Info("connected notification delivered",
		zap.Uint("profile_id", record.ProfileID),
		zap.Uint("organization_id", record.OrganizationID),
		zap.String("event_id", evt.EventID))
}

func (s *service) RequestPairing(ctx context.Context, profileID, orgID uint) (dtos.QRCodeDTO, error) {
	unlock := s.locks.Lock(Owner{ProfileID: profileID, OrganizationID: orgID})
	defer unlock()

	gw, err := s.gateways.For(ctx, orgID)
	if err != nil {
		return dtos.QRCodeDTO{}, err
	}

	pairing, err := gw.RequestPairingCode(ctx)
	if err != nil {
		return dtos.QRCodeDTO{}, err
	}

	switch pairing.Kind {
	case gateway.PairingPaired:
		record, err := s.reconcile(ctx, profileID, orgID)
		if err != nil {
			return dtos.QRCodeDTO{}, err
		}
		return dtos.QRCodeDTO{Paired: true, Status: string(record.Status)}, nil

	case gateway.PairingQRImage, gateway.PairingQRDataURI:
		record, err := s.current(ctx, profileID, orgID)
		if err != nil {
			return dtos.QRCodeDTO{}, err
		}
		previous := record.Status
		if record.ID == 0 || previous != entities.StatusQRGenerated {
			record.Status = entities.StatusQRGenerated
			if inst, ok := gw.(gateway.Instance); ok && inst.InstanceID() != "" {
				record.GatewayInstanceID = inst.InstanceID()
			}
			if err := s.repository.Save(ctx, &record); err != nil {
				return dtos.QRCodeDTO{}, s.saveError(err, record)
			}
			s.announce(ctx, previous, record)
		}
		return dtos.QRCodeDTO{QRCode: pairing.QRCode(), Status: string(record.Status)}, nil

	default:
		return dtos.QRCodeDTO{}, &PairingError{Reason: pairing.Reason}
	}
}

// Disconnect logs the session out at the gateway and marks the record
// DISCONNECTED. The record itself is kept.
func (s *service) Disconnect(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error) {
	unlock := s.locks.Lock(Owner{ProfileID: profileID, OrganizationID: orgID})
	defer unlock()

	gw, err := s.gateways.For(ctx, orgID)
	if err != nil {
		return entities.ConnectionRecord{}, err
	}
	if err := gw.Disconnect(ctx); err != nil && !gateway.IsPending(err) {
		return entities.ConnectionRecord{}, err
	}

	record, err := s.current(ctx, profileID, orgID)
	if err != nil {
		return entities.ConnectionRecord{}, err
	}
	previous := record.Status
	if previous == entities.StatusDisconnected {
		return record, nil
	}

	record.Status = entities.StatusDisconnected
	if err := s.repository.Save(ctx, &record); err != nil {
		return entities.ConnectionRecord{}, s.saveError(err, record)
	}
	s.announce(ctx, previous, record)
	return record, nil
}

func (s *service) Get(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error) {
	record, err := s.repository.Latest(ctx, profileID, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ConnectionRecord{}, ErrNotFound
		}
		return entities.ConnectionRecord{}, fmt.Errorf(constant.SOMETHING_WENT_WRONG+": %w", err)
	}
	return record, nil
}

func (s *service) UpdateSettings(ctx context.Context, profileID, orgID uint, req dtos.UpdateConnectionDTO) (entities.ConnectionRecord, error) {
	unlock := s.locks.Lock(Owner{ProfileID: profileID, OrganizationID: orgID})
	defer unlock()

	record, err := s.current(ctx, profileID, orgID)
	if err != nil {
		return entities.ConnectionRecord{}, err
	}

	if req.PhoneNumber != nil {
		phone := gateway.NormalizePhone(*req.PhoneNumber)
		if phone == "" {
			record.PhoneNumber = nil
		} else {
			if s.phoneTaken(ctx, phone, record.ID) {
				return entities.ConnectionRecord{}, &PhoneConflictError{Phone: phone}
			}
			record.PhoneNumber = &phone
		}
	}
	if req.DisplayName != nil {
		record.DisplayName = *req.DisplayName
	}
	if req.AIEnabled != nil {
		record.AIEnabled = *req.AIEnabled
	}
	if req.AIPrompt != nil {
		record.AIPrompt = *req.AIPrompt
	}

	if err := s.repository.Save(ctx, &record); err != nil {
		return entities.ConnectionRecord{}, s.saveError(err, record)
	}
	return record, nil
}
