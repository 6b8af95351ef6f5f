// package models defines the data model for the statement conversion client
package models

// User represents the authenticated account profile returned by the backend.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"fullname"`
	SubscriptionTier string     `json:"subscription_tier"`
	StripeCustomerID string     `json:"stripe_customer_id,omitempty"`
	CreatedAt        string     `json:"created_at,omitempty"`
	UpdatedAt        string     `json:"updated_at,omitempty"`
	Usage            *UserUsage `json:"usage,omitempty"`
}

// UserUsage is the per-month quota block embedded in the profile response.
type UserUsage struct {
	CurrentMonthUploads int     `json:"current_month_uploads"`
	Limit               *int    `json:"limit"`
	Remaining           *int    `json:"remaining"`
	Percentage          float64 `json:"percentage"`
}

// Session holds the current identity: the signed-in user and bearer token.
// A nil User with an empty Token means signed out.
type Session struct {
	User  *User
	Token string
}

// Authenticated reports whether the session carries a bearer token.
func (s Session) Authenticated() bool { return s.Token != "" }

// UploadRecord is one converted statement in the history list.
// Records are immutable once returned by the backend.
type UploadRecord struct {
	ID               string `json:"id"`
	Filename         string `json:"filename"`
	BankCode         string `json:"bank_code"`
	TransactionCount int    `json:"transaction_count"`
	CreatedAt        string `json:"created_at"`
}

// ErrorKind classifies conversion failures returned by the backend.
type ErrorKind int

const (
	ErrorOther ErrorKind = iota
	ErrorScannedPDF
	ErrorBankNotSupported
	ErrorFormatNotCompatible
)

// ParseErrorKind maps a wire error_type string to an [ErrorKind].
// Unknown values collapse to [ErrorOther].
func ParseErrorKind(s string) ErrorKind {
	switch s {
	case "SCANNED_PDF":
		return ErrorScannedPDF
	case "BANK_NOT_SUPPORTED":
		return ErrorBankNotSupported
	case "FORMAT_NOT_COMPATIBLE":
		return ErrorFormatNotCompatible
	default:
		return ErrorOther
	}
}

// String returns the wire representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorScannedPDF:
		return "SCANNED_PDF"
	case ErrorBankNotSupported:
		return "BANK_NOT_SUPPORTED"
	case ErrorFormatNotCompatible:
		return "FORMAT_NOT_COMPATIBLE"
	default:
		return "OTHER"
	}
}

// Title returns the user-facing banner title for the kind.
func (k ErrorKind) Title() string {
	switch k {
	case ErrorScannedPDF:
		return "PDF scanné détecté"
	case ErrorBankNotSupported:
		return "Banque non supportée"
	case ErrorFormatNotCompatible:
		return "Format incompatible"
	default:
		return "Erreur de conversion"
	}
}

// UploadError is a structured conversion failure. At most one is active at a
// time; selecting a new file or a successful conversion clears it.
type UploadError struct {
	Kind           ErrorKind
	Message        string
	BankDetected   string
	SupportedBanks map[string]string
	CanReport      bool
}

// Usage is the standalone quota response from the usage endpoint.
type Usage struct {
	Plan         string `json:"plan"`
	UploadsCount int    `json:"uploads_count"`
	Limit        *int   `json:"limit"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
}

// PlanLimit returns the monthly conversion allowance for a subscription tier.
// A nil result means unlimited.
func PlanLimit(tier string) *int {
	limits := map[string]int{"free": 5, "premium": 50}
	if n, ok := limits[tier]; ok {
		return &n
	}
	if tier == "pro" {
		return nil
	}
	n := limits["free"]
	return &n
}

// Eligibility is the guest free-trial check result.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	IP       string `json:"ip,omitempty"`
}

// DebugReport is the diagnostic payload from the PDF debug endpoint.
type DebugReport struct {
	Filename          string              `json:"filename"`
	Filesize          int                 `json:"filesize"`
	IsScanned         bool                `json:"is_scanned"`
	ExtractionMethod  string              `json:"extraction_method"`
	TextLength        int                 `json:"text_length"`
	TextPreview       string              `json:"text_preview"`
	BankDetected      string              `json:"bank_detected"`
	BankKeywordsFound map[string][]string `json:"bank_keywords_found"`
	ValidationResult  map[string]any      `json:"validation_result"`
	LinesCount        int                 `json:"lines_count"`
	FirstLines        []string            `json:"first_50_lines"`
}

// ValidationReport is the pre-conversion compatibility check result.
type ValidationReport struct {
	Compatible            bool           `json:"compatible"`
	Bank                  string         `json:"bank"`
	Message               string         `json:"message"`
	EstimatedTransactions int            `json:"estimated_transactions,omitempty"`
	Details               map[string]any `json:"details,omitempty"`
}
