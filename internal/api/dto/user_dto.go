package dto

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ProfileImageURL string `json:"profile_image_url"`
}

// CreateUserRequest payload for admin-created accounts.
type CreateUserRequest struct {
	SignupRequest
	Role string `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest payload for profile edits.
type UpdateProfileRequest struct {
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// UpdatePasswordRequest payload for password changes.
type UpdatePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// UpdateRoleRequest payload for role changes.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UserResponse is the outward view of a user. It never carries the password hash.
type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	ProfileImageURL string    `json:"profile_image_url"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LoginResponse carries the bearer token plus a user summary.
type LoginResponse struct {
	AccessToken     string    `json:"access_token"`
	TokenType       string    `json:"token_type"`
	ExpiresAt       time.Time `json:"expires_at"`
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	ProfileImageURL string    `json:"profile_image_url"`
}

// NewUserResponse maps a domain user to its outward view.
func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            string(u.Role),
		ProfileImageURL: u.ProfileImageURL,
		IsActive:        u.IsActive,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
