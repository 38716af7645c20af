package dto

import "time"

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

type AdminLoginResponse struct {
	Username    string    `json:"username" example:"admin"`
	AccessToken string    `json:"access_token" example:"jwt"`
	TokenType   string    `json:"token_type" example:"Bearer"`
	ExpiresIn   int       `json:"expires_in" example:"43200"`
	ExpiresAt   time.Time `json:"expires_at" example:"2024-01-15T22:30:00Z"`
}
