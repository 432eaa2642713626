package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrSessionRevoked     = errors.New("session_revoked")
	ErrUserExists         = errors.New("user_exists")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUserDisabled       = errors.New("user_disabled")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrForbidden          = errors.New("forbidden")
)
