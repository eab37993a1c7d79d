package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive    = errors.New("ACCOUNT_INACTIVE")
	ErrEmailTaken         = errors.New("EMAIL_TAKEN")
	ErrVideoNotFound      = errors.New("VIDEO_NOT_FOUND")
	ErrAnalysisNotFound   = errors.New("ANALYSIS_NOT_FOUND")
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrForbidden          = errors.New("FORBIDDEN")
)
