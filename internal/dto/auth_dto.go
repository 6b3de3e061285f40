package dto

import (
	"github.com/google/uuid"
	"github.com/scdri/backend/internal/models"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type LoginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID     uuid.UUID   `json:"id"`
	Name   string      `json:"name"`
	CPF    string      `json:"cpf"`
	Role   models.Role `json:"role"`
	Avatar *string     `json:"avatar,omitempty"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, CPF: u.CPF, Role: u.Role, Avatar: u.Avatar}
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type BanRequest struct {
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
