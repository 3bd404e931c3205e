package utils

// Pagination limits
const (
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100
)

// HTTP status strings used in the response envelope
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// User-facing error messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserNotFound       = "user not found"
	ErrUserExists         = "user already exists"
	ErrInvalidToken       = "invalid or expired verification token"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
)

// Field length limits for emergency contacts
const (
	MaxContactNameLength  = 100
	MaxContactEmailLength = 100
	MaxContactPhoneLength = 20
	MaxRelationshipLength = 50
	MaxNotesLength        = 500
)
