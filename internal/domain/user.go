package domain

import (
	"strings"
	"time"
)

// Role is the access level assigned to a user.
type Role string

const (
	RolePending Role = "pending"
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
)

// DefaultProfileImageURL is assigned when signup omits an image.
const DefaultProfileImageURL = "/user.png"

// ParseRole maps free-form input onto the closed role set.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RolePending:
		return RolePending, true
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePending, RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User is the durable identity record.
type User struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string `json:"-"`
	Role            Role
	ProfileImageURL string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
