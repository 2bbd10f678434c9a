package dtos

import "time"

type SendMessageDTO struct {
	PhoneNumber string `json:"phone_number" binding:"required,isphone"`
	Message     string `json:"message" binding:"required"`
}

type ReadMessageDTO struct {
	PhoneNumber string `json:"phone_number" binding:"required,isphone"`
	MessageID   string `json:"message_id" binding:"required"`
}

type ModifyChatDTO struct {
	Action string `json:"action" binding:"required,oneof=read unread delete archive unarchive pin unpin mute unmute clear"`
}

type UpdateWebhookDTO struct {
	URL string `json:"url" binding:"required,url"`
}

// UpdateConnectionDTO carries the user-editable fields of a connection.
// Nil fields are left untouched.
type UpdateConnectionDTO struct {
	PhoneNumber *string `json:"phone_number" binding:"omitempty,isphone"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=255"`
	AIEnabled   *bool   `json:"ai_enabled"`
	AIPrompt    *string `json:"ai_prompt"`
}

type QRCodeDTO struct {
	Paired bool   `json:"paired"`
	QRCode string `json:"qr_code,omitempty"`
	Status string `json:"status"`
}

type MessageResponseDTO struct {
	MessageID string `json:"message_id"`
	ZaapID    string `json:"zaap_id,omitempty"`
	To        string `json:"to"`
	Timestamp string `json:"timestamp"`
}

// ChatMessageDTO is a message shown in the chat view. It is never persisted.
type ChatMessageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // user or assistant
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RefreshRequest asks for a reconcile of one connection, published on the
// realtime refresh subject.
type RefreshRequest struct {
	ProfileID      uint `json:"profile_id"`
	OrganizationID uint `json:"organization_id"`
}
