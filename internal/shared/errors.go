package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrUploadNotFound     = fmt.Errorf("upload not found")

	// Quota errors
	ErrTrialExhausted = fmt.Errorf("free trial already used")
	ErrQuotaReached   = fmt.Errorf("monthly conversion limit reached")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrNotAPDF         = fmt.Errorf("only PDF files are accepted")
	ErrFileTooLarge    = fmt.Errorf("file exceeds the 10 MB limit")
)
