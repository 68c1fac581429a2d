// Package user defines accounts and their roles.
package user

import "time"

// Role is the access level of an account.
type Role string

const (
	RoleUser     Role = "user"
	RoleProducer Role = "producer"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUser, RoleProducer, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

// CanModerate reports whether the role may manage catalog content and
// moderate reviews.
func (r Role) CanModerate() bool {
	return r == RoleProducer || r == RoleAdmin
}

// User is a registered account. The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
