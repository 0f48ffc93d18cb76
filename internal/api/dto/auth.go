package dto

import "github.com/quizfunnel/leadsync/internal/validator"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type AuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}
