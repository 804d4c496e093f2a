package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile carries the identity attributes attached to a user account:
// display name, stored role string, and the tenant the account belongs to.
type Profile struct {
	UserID      int64
	Email       string
	DisplayName string
	Role        string
	TenantID    string
}
