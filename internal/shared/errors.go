package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The same error covers
	// unknown emails, inactive accounts and wrong passwords so the response
	// never reveals which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail occurs when an email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrPasswordMismatch occurs when registration confirmation passwords differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)
