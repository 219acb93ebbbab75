package users

import "time"

// User represents a user account. Deletion is a soft delete: IsActive flips
// to false and the row is retained permanently.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	MiddleName   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries a partial profile change. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Email      *string
	FirstName  *string
	LastName   *string
	MiddleName *string
}
