// File: internal/dtos/user.go
package dtos

import (
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
)

// UserResponseDTO defines what fields to expose in user API responses.
// The password hash never leaves the server.
type UserResponseDTO struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Language string   `json:"language"`
	Region   string   `json:"region"`
	Crops    []string `json:"crops"`
	Created  string   `json:"created_at"`
}

func NewUserResponse(u *domain.User) UserResponseDTO {
	return UserResponseDTO{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Phone:    u.Phone,
		Language: u.Language,
		Region:   u.Region,
		Crops:    u.Crops,
		Created:  u.CreatedAt.Format(time.RFC3339),
	}
}

// RegisterRequestDTO represents the expected signup payload.
type RegisterRequestDTO struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	Language string   `json:"language"`
	Region   string   `json:"region"`
	Crops    []string `json:"crops"`
}

// LoginRequestDTO represents the login payload.
type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponseDTO represents the login response.
type LoginResponseDTO struct {
	User  UserResponseDTO `json:"user"`
	Token string          `json:"token"`
}

// UpdateProfileRequestDTO represents the editable profile fields.
type UpdateProfileRequestDTO struct {
	FullName string   `json:"full_name"`
	Phone    string   `json:"phone"`
	Language string   `json:"language"`
	Region   string   `json:"region"`
	Crops    []string `json:"crops"`
}
