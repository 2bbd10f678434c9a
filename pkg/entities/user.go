package entities

import (
	"time"

	"gorm.io/gorm"
)

// User is a profile; every persisted business record is scoped by the
// user's ID (profile_id) and OrganizationID.
type User struct {
	gorm.Model
	OrganizationID uint      `json:"organization_id" gorm:"index;not null"`
	Email          string    `json:"email" gorm:"unique;not null"`
	Password       string    `json:"-" gorm:"not null"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Surname        string    `json:"surname" gorm:"type:varchar(255);not null"`
	Phone          string    `json:"phone" gorm:"type:varchar(20)"`
	ResetToken     string    `json:"-" gorm:"type:varchar(255)"`
	ResetExpiresAt time.Time `json:"-"`

	Organization Organization `json:"-" gorm:"foreignKey:OrganizationID"`
}
