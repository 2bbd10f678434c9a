package entities

import "time"

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
	StatusQRGenerated  ConnectionStatus = "QR_GENERATED"
	StatusConnecting   ConnectionStatus = "CONNECTING"
	StatusConnected    ConnectionStatus = "CONNECTED"
)

// ConnectionRecord is the persisted WhatsApp connection of one profile in one
// organization. Rows are never deleted; disconnecting is a status change.
// There is no unique index on (profile_id, organization_id): duplicates are
// tolerated and the most recently created row is authoritative.
type ConnectionRecord struct {
	ID                uint             `json:"id" gorm:"primaryKey"`
	ProfileID         uint             `json:"profile_id" gorm:"index:idx_connection_owner;not null"`
	OrganizationID    uint             `json:"organization_id" gorm:"index:idx_connection_owner;not null"`
	PhoneNumber       *string          `json:"phone_number" gorm:"type:varchar(20);uniqueIndex"`
	DisplayName       string           `json:"display_name" gorm:"type:varchar(255)"`
	Status            ConnectionStatus `json:"status" gorm:"type:varchar(20);not null;default:DISCONNECTED"`
	GatewayInstanceID string           `json:"gateway_instance_id" gorm:"type:varchar(255)"`
	AIEnabled         bool             `json:"ai_enabled" gorm:"default:false"`
	AIPrompt          string           `json:"ai_prompt" gorm:"type:text"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (r ConnectionRecord) Phone() string {
	if r.PhoneNumber == nil {
		return ""
	}
	return *r.PhoneNumber
}
