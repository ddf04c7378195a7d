package domain

import "time"

// Role enumerates the closed set of account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Account mirrors the persisted representation in the accounts table.
// Email is always stored lowercase; Profile is an open attribute bag owned
// by the resource controllers, of which this core only reads full_name.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool
	FullName     string
	Profile      map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileString returns a string attribute from the profile bag, or "" when
// absent or not a string.
func (a Account) ProfileString(key string) string {
	if a.Profile == nil {
		return ""
	}
	if v, ok := a.Profile[key].(string); ok {
		return v
	}
	return ""
}
