// package services implements the HTTP client for the ComptaFlow conversion backend
package services

import (
	"context"
	"fmt"

	"github.com/comptaflow/compta/internal/models"
)

// Backend defines the semantic operations exposed by the conversion service.
//
// Every call is user-triggered; no operation retries automatically. Transport
// failures and non-2xx responses surface as errors (an [*APIError] when the
// backend returned a structured detail) and the caller decides messaging.
type Backend interface {
	// Register creates an account and returns the issued token and profile.
	Register(ctx context.Context, email, password, fullName string) (*AuthResult, error)

	// Login exchanges credentials for a bearer token and profile.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// CurrentUser fetches the profile for the current bearer token.
	CurrentUser(ctx context.Context) (*models.User, error)

	// CheckGuestEligibility asks whether this caller may still use the free trial.
	CheckGuestEligibility(ctx context.Context) (*models.Eligibility, error)

	// Upload submits a statement PDF for conversion on an authenticated account.
	Upload(ctx context.Context, filename string, data []byte) (*UploadOutcome, error)

	// UploadGuest submits a statement PDF through the anonymous trial flow and
	// returns the generated spreadsheet.
	UploadGuest(ctx context.Context, filename string, data []byte) (*GuestConversion, error)

	// History lists all converted statements for the account.
	History(ctx context.Context) ([]models.UploadRecord, error)

	// Download retrieves the spreadsheet for a past conversion.
	Download(ctx context.Context, uploadID string) (*Blob, error)

	// Usage returns quota consumption for the current month.
	Usage(ctx context.Context) (*models.Usage, error)

	// CreateCheckoutSession starts a subscription checkout and returns the external URL.
	CreateCheckoutSession(ctx context.Context, plan string) (string, error)

	// CreatePortalSession opens the billing portal and returns the external URL.
	CreatePortalSession(ctx context.Context) (string, error)

	// SupportContact sends a support message.
	SupportContact(ctx context.Context, subject, message string) error

	// ReportFailedConversion forwards the original file plus metadata after a
	// reportable conversion failure.
	ReportFailedConversion(ctx context.Context, filename string, data []byte, bankName, errorMessage, comment string) error

	// DebugPDF runs the server-side diagnostic on a PDF.
	DebugPDF(ctx context.Context, filename string, data []byte) (*models.DebugReport, error)

	// ValidateStatement checks compatibility without consuming quota.
	ValidateStatement(ctx context.Context, filename string, data []byte) (*models.ValidationReport, error)

	// SupportedBanks returns the code→name map of recognized banks.
	SupportedBanks(ctx context.Context) (map[string]string, error)

	// Health reports backend availability.
	Health(ctx context.Context) (*Health, error)
}

// AuthResult is the response to login and register calls.
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        *models.User `json:"user"`
}

// UploadOutcome is the structured body of an authenticated upload response.
//
// The backend answers HTTP 200 for both outcomes and discriminates on Status:
// "success" carries the transaction count, "error" carries the classification.
type UploadOutcome struct {
	UploadID          string            `json:"upload_id"`
	Status            string            `json:"status"`
	TransactionsCount int               `json:"transactions_count"`
	BankDetected      string            `json:"bank_detected"`
	Message           string            `json:"message"`
	ErrorType         string            `json:"error_type"`
	SupportedBanks    map[string]string `json:"supported_banks"`
	CanReport         bool              `json:"can_report"`
	ExtractionMethod  string            `json:"extraction_method"`
}

// Succeeded reports whether the conversion completed.
func (o *UploadOutcome) Succeeded() bool { return o.Status == "success" }

// UploadError builds the structured error for a failed outcome, or nil for a
// successful one.
func (o *UploadOutcome) UploadError() *models.UploadError {
	if o.Succeeded() {
		return nil
	}
	return &models.UploadError{
		Kind:           models.ParseErrorKind(o.ErrorType),
		Message:        o.Message,
		BankDetected:   o.BankDetected,
		SupportedBanks: o.SupportedBanks,
		CanReport:      o.CanReport,
	}
}

// Blob is a binary download with its suggested filename.
type Blob struct {
	Filename string
	Data     []byte
}

// GuestConversion is the result of a free-trial conversion: the generated
// spreadsheet plus whether the server marked the trial as consumed.
type GuestConversion struct {
	Blob
	TrialUsed bool
}

// Health is the backend health response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// APIError is a non-2xx backend response carrying a structured detail.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: status %d: %s", e.StatusCode, e.Detail)
}
