package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/shared"
)

// Client implements [Backend] on top of [APIService].
type Client struct {
	api *APIService
}

var _ Backend = (*Client)(nil)

// NewClient creates a semantic client over the given API service.
func NewClient(api *APIService) *Client {
	return &Client{api: api}
}

// API exposes the underlying service for hook and token wiring.
func (c *Client) API() *APIService { return c.api }

// apiError builds the typed error for a non-2xx response, extracting the
// backend's {detail} field when present.
func apiError(resp *APIResponse) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if resp.IsJSON {
		if m, ok := resp.JSONData.(map[string]any); ok {
			if detail, ok := m["detail"].(string); ok {
				apiErr.Detail = detail
			}
		}
	}
	return apiErr
}

// decode unmarshals a successful JSON response body into v.
func decode(resp *APIResponse, v any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Register(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
		"fullname": fullName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.api.Post(ctx, "/auth/register", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var result AuthResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.api.Post(ctx, "/auth/login", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var result AuthResult
	if err := decode(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := c.api.Get(ctx, "/me")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var user models.User
	if err := decode(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CheckGuestEligibility(ctx context.Context) (*models.Eligibility, error) {
	resp, err := c.api.Get(ctx, "/check-guest-eligibility")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var elig models.Eligibility
	if err := decode(resp, &elig); err != nil {
		return nil, err
	}
	return &elig, nil
}

func (c *Client) Upload(ctx context.Context, filename string, data []byte) (*UploadOutcome, error) {
	resp, err := c.api.PostMultipart(ctx, "/upload", filename, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var outcome UploadOutcome
	if err := decode(resp, &outcome); err != nil {
		return nil, err
	}
	if outcome.Status == "" {
		return nil, fmt.Errorf("%w: response missing status field", shared.ErrAPIRequest)
	}
	return &outcome, nil
}

func (c *Client) UploadGuest(ctx context.Context, filename string, data []byte) (*GuestConversion, error) {
	resp, err := c.api.PostMultipart(ctx, "/upload-guest", filename, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode == http.StatusForbidden {
		apiErr := apiError(resp)
		return nil, fmt.Errorf("%w: %s", shared.ErrTrialExhausted, apiErr.Detail)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	name := resp.SuggestedFilename()
	if name == "" {
		name = strings.TrimSuffix(filename, ".pdf") + "_EXTRAIT.xlsx"
	}

	return &GuestConversion{
		Blob:      Blob{Filename: name, Data: resp.Body},
		TrialUsed: resp.Headers.Get("X-Free-Trial-Used") == "true",
	}, nil
}

func (c *Client) History(ctx context.Context) ([]models.UploadRecord, error) {
	resp, err := c.api.Get(ctx, "/history")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var payload struct {
		Uploads []models.UploadRecord `json:"uploads"`
	}
	if err := decode(resp, &payload); err != nil {
		return nil, err
	}
	return payload.Uploads, nil
}

func (c *Client) Download(ctx context.Context, uploadID string) (*Blob, error) {
	resp, err := c.api.Get(ctx, "/download/"+url.PathEscape(uploadID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrUploadNotFound, uploadID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	name := resp.SuggestedFilename()
	if name == "" {
		name = uploadID + ".xlsx"
	}

	return &Blob{Filename: name, Data: resp.Body}, nil
}

func (c *Client) Usage(ctx context.Context) (*models.Usage, error) {
	resp, err := c.api.Get(ctx, "/usage")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var usage models.Usage
	if err := decode(resp, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, plan string) (string, error) {
	payload, err := json.Marshal(map[string]string{"plan": plan})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.api.Post(ctx, "/create-checkout-session", payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var session struct {
		URL string `json:"url"`
	}
	if err := decode(resp, &session); err != nil {
		return "", err
	}
	return session.URL, nil
}

func (c *Client) CreatePortalSession(ctx context.Context) (string, error) {
	resp, err := c.api.Post(ctx, "/create-portal-session", []byte("{}"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var session struct {
		URL string `json:"url"`
	}
	if err := decode(resp, &session); err != nil {
		return "", err
	}
	return session.URL, nil
}

func (c *Client) SupportContact(ctx context.Context, subject, message string) error {
	payload, err := json.Marshal(map[string]string{"subject": subject, "message": message})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.api.Post(ctx, "/support/contact", payload)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

func (c *Client) ReportFailedConversion(ctx context.Context, filename string, data []byte, bankName, errorMessage, comment string) error {
	fields := map[string]string{
		"bank_name":     bankName,
		"error_message": errorMessage,
		"user_comment":  comment,
	}

	resp, err := c.api.PostMultipart(ctx, "/report-failed-conversion", filename, data, fields)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

func (c *Client) DebugPDF(ctx context.Context, filename string, data []byte) (*models.DebugReport, error) {
	resp, err := c.api.PostMultipart(ctx, "/debug-pdf", filename, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var report models.DebugReport
	if err := decode(resp, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) ValidateStatement(ctx context.Context, filename string, data []byte) (*models.ValidationReport, error) {
	resp, err := c.api.PostMultipart(ctx, "/validate-statement", filename, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var report models.ValidationReport
	if err := decode(resp, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) SupportedBanks(ctx context.Context) (map[string]string, error) {
	resp, err := c.api.Get(ctx, "/supported-banks")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var payload struct {
		Banks map[string]string `json:"banks"`
	}
	if err := decode(resp, &payload); err != nil {
		return nil, err
	}
	return payload.Banks, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	resp, err := c.api.Get(ctx, "/health")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	var health Health
	if err := decode(resp, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
