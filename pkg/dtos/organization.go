package dtos

type UpdateGatewayDTO struct {
	BaseURL     string `json:"base_url" binding:"omitempty,url"`
	InstanceID  string `json:"instance_id" binding:"required"`
	Token       string `json:"token" binding:"required"`
	ClientToken string `json:"client_token"`
}
