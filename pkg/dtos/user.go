package dtos

// DTO for user registration
type DTOForUserCreate struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
	Phone    string `json:"phone" binding:"required,isphone"`

	OrganizationName string `json:"organization_name" binding:"omitempty,max=255"`
}

// DTO for user login
type DTOForUserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// AuthTokenDTO is returned by register and login. The token carries the same
// user and organization ids.
type AuthTokenDTO struct {
	Token          string `json:"token"`
	UserID         uint   `json:"user_id"`
	OrganizationID uint   `json:"organization_id"`
	ExpiresAt      int64  `json:"expires_at"`
}
