package transport

import "time"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Roles       []string  `json:"roles"`
}

type MeResponse struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}
