package entities

import "gorm.io/gorm"

// Organization is the tenant. It carries the gateway credentials used by
// every profile in the organization.
type Organization struct {
	gorm.Model
	Name               string `json:"name" gorm:"type:varchar(255);not null"`
	GatewayBaseURL     string `json:"gateway_base_url" gorm:"type:varchar(255)"`
	GatewayInstanceID  string `json:"gateway_instance_id" gorm:"type:varchar(255)"`
	GatewayToken       string `json:"-" gorm:"type:varchar(255)"`
	GatewayClientToken string `json:"-" gorm:"type:varchar(255)"`
}

func (o Organization) HasGatewayCredentials() bool {
	return o.GatewayInstanceID != "" && o.GatewayToken != ""
}
