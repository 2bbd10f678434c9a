package entities

import "time"

// Lead is a business contact discovered by lead generation or messaged by a
// campaign. Leads are immutable once created.
type Lead struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OrganizationID uint      `json:"organization_id" gorm:"uniqueIndex:idx_lead_org_phone;not null"`
	ProfileID      uint      `json:"profile_id" gorm:"index;not null"`
	BusinessName   string    `json:"business_name" gorm:"type:varchar(255)"`
	PhoneNumber    string    `json:"phone_number" gorm:"type:varchar(20);uniqueIndex:idx_lead_org_phone;not null"`
	Segment        string    `json:"segment" gorm:"type:varchar(255)"`
	City           string    `json:"city" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`
}
