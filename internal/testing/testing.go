// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/services"
)

// MockBackend is a configurable test double for [services.Backend]. Unset
// function fields return zero values.
type MockBackend struct {
	LoginFn          func(ctx context.Context, email, password string) (*services.AuthResult, error)
	RegisterFn       func(ctx context.Context, email, password, fullName string) (*services.AuthResult, error)
	CurrentUserFn    func(ctx context.Context) (*models.User, error)
	EligibilityFn    func(ctx context.Context) (*models.Eligibility, error)
	UploadFn         func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error)
	UploadGuestFn    func(ctx context.Context, filename string, data []byte) (*services.GuestConversion, error)
	HistoryFn        func(ctx context.Context) ([]models.UploadRecord, error)
	DownloadFn       func(ctx context.Context, uploadID string) (*services.Blob, error)
	UsageFn          func(ctx context.Context) (*models.Usage, error)
	CheckoutFn       func(ctx context.Context, plan string) (string, error)
	PortalFn         func(ctx context.Context) (string, error)
	SupportFn        func(ctx context.Context, subject, message string) error
	ReportFn         func(ctx context.Context, filename string, data []byte, bankName, errorMessage, comment string) error
	DebugFn          func(ctx context.Context, filename string, data []byte) (*models.DebugReport, error)
	ValidateFn       func(ctx context.Context, filename string, data []byte) (*models.ValidationReport, error)
	SupportedBanksFn func(ctx context.Context) (map[string]string, error)
	HealthFn         func(ctx context.Context) (*services.Health, error)
}

var _ services.Backend = (*MockBackend)(nil)

func (m *MockBackend) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *MockBackend) Register(ctx context.Context, email, password, fullName string) (*services.AuthResult, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, email, password, fullName)
	}
	return nil, nil
}

func (m *MockBackend) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.CurrentUserFn != nil {
		return m.CurrentUserFn(ctx)
	}
	return nil, nil
}

func (m *MockBackend) CheckGuestEligibility(ctx context.Context) (*models.Eligibility, error) {
	if m.EligibilityFn != nil {
		return m.EligibilityFn(ctx)
	}
	return &models.Eligibility{Eligible: true}, nil
}

func (m *MockBackend) Upload(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, filename, data)
	}
	return &services.UploadOutcome{Status: "success"}, nil
}

func (m *MockBackend) UploadGuest(ctx context.Context, filename string, data []byte) (*services.GuestConversion, error) {
	if m.UploadGuestFn != nil {
		return m.UploadGuestFn(ctx, filename, data)
	}
	return &services.GuestConversion{}, nil
}

func (m *MockBackend) History(ctx context.Context) ([]models.UploadRecord, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx)
	}
	return nil, nil
}

func (m *MockBackend) Download(ctx context.Context, uploadID string) (*services.Blob, error) {
	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, uploadID)
	}
	return &services.Blob{}, nil
}

func (m *MockBackend) Usage(ctx context.Context) (*models.Usage, error) {
	if m.UsageFn != nil {
		return m.UsageFn(ctx)
	}
	return &models.Usage{}, nil
}

func (m *MockBackend) CreateCheckoutSession(ctx context.Context, plan string) (string, error) {
	if m.CheckoutFn != nil {
		return m.CheckoutFn(ctx, plan)
	}
	return "", nil
}

func (m *MockBackend) CreatePortalSession(ctx context.Context) (string, error) {
	if m.PortalFn != nil {
		return m.PortalFn(ctx)
	}
	return "", nil
}

func (m *MockBackend) SupportContact(ctx context.Context, subject, message string) error {
	if m.SupportFn != nil {
		return m.SupportFn(ctx, subject, message)
	}
	return nil
}

func (m *MockBackend) ReportFailedConversion(ctx context.Context, filename string, data []byte, bankName, errorMessage, comment string) error {
	if m.ReportFn != nil {
		return m.ReportFn(ctx, filename, data, bankName, errorMessage, comment)
	}
	return nil
}

func (m *MockBackend) DebugPDF(ctx context.Context, filename string, data []byte) (*models.DebugReport, error) {
	if m.DebugFn != nil {
		return m.DebugFn(ctx, filename, data)
	}
	return &models.DebugReport{}, nil
}

func (m *MockBackend) ValidateStatement(ctx context.Context, filename string, data []byte) (*models.ValidationReport, error) {
	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, filename, data)
	}
	return &models.ValidationReport{}, nil
}

func (m *MockBackend) SupportedBanks(ctx context.Context) (map[string]string, error) {
	if m.SupportedBanksFn != nil {
		return m.SupportedBanksFn(ctx)
	}
	return nil, nil
}

func (m *MockBackend) Health(ctx context.Context) (*services.Health, error) {
	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	return &services.Health{Status: "ok"}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// WritePDF writes a minimal valid-looking PDF file of the given size and
// returns its path.
func WritePDF(t *testing.T, dir, name string, size int) string {
	t.Helper()
	if size < 8 {
		size = 8
	}
	data := make([]byte, size)
	copy(data, []byte("%PDF-1.4"))

	path := dir + "/" + name
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
