package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/shared"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(NewAPIService(server.URL, nil)), server
}

func TestClientAuth(t *testing.T) {
	t.Run("Login Returns Token And User", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auth/login" {
				t.Errorf("expected path '/auth/login', got %s", r.URL.Path)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != "jean@example.com" {
				t.Errorf("expected email in body, got %v", body)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-1",
				"token_type":   "bearer",
				"user":         map[string]string{"email": "jean@example.com", "fullname": "Jean Dupont"},
			})
		}))
		defer server.Close()

		result, err := client.Login(context.Background(), "jean@example.com", "secret")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.AccessToken != "tok-1" {
			t.Errorf("expected token 'tok-1', got %s", result.AccessToken)
		}
		if result.User == nil || result.User.FullName != "Jean Dupont" {
			t.Errorf("expected user in result, got %+v", result.User)
		}
	})

	t.Run("Login Failure Surfaces Detail", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials"})
		}))
		defer server.Close()

		_, err := client.Login(context.Background(), "jean@example.com", "wrong")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Detail != "Invalid credentials" {
			t.Errorf("unexpected error: %+v", apiErr)
		}
	})

	t.Run("Register Sends Full Name", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["fullname"] != "Jean Dupont" {
				t.Errorf("expected fullname in body, got %v", body)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-2"})
		}))
		defer server.Close()

		result, err := client.Register(context.Background(), "jean@example.com", "secret", "Jean Dupont")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.AccessToken != "tok-2" {
			t.Errorf("expected token 'tok-2', got %s", result.AccessToken)
		}
	})
}

func TestClientUpload(t *testing.T) {
	t.Run("Success Outcome", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"status":             "success",
				"transactions_count": 42,
				"bank_detected":      "bnp",
				"message":            "42 transactions extraites avec succès !",
			})
		}))
		defer server.Close()

		outcome, err := client.Upload(context.Background(), "statement.pdf", []byte("%PDF-"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !outcome.Succeeded() {
			t.Error("expected a successful outcome")
		}
		if outcome.TransactionsCount != 42 {
			t.Errorf("expected 42 transactions, got %d", outcome.TransactionsCount)
		}
		if outcome.UploadError() != nil {
			t.Error("expected nil UploadError for a successful outcome")
		}
	})

	t.Run("Structured Error Outcome", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"status":          "error",
				"error_type":      "SCANNED_PDF",
				"message":         "Ce PDF est un scan",
				"can_report":      false,
				"supported_banks": map[string]string{"bnp": "BNP Paribas"},
			})
		}))
		defer server.Close()

		outcome, err := client.Upload(context.Background(), "scan.pdf", []byte("%PDF-"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		uploadErr := outcome.UploadError()
		if uploadErr == nil {
			t.Fatal("expected structured UploadError")
		}
		if uploadErr.Kind != models.ErrorScannedPDF {
			t.Errorf("expected SCANNED_PDF kind, got %v", uploadErr.Kind)
		}
		if uploadErr.Kind.Title() != "PDF scanné détecté" {
			t.Errorf("unexpected title: %s", uploadErr.Kind.Title())
		}
		if uploadErr.CanReport {
			t.Error("scanned PDFs must not be reportable")
		}
	})

	t.Run("Missing Status Field Is A Transport Failure", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := client.Upload(context.Background(), "statement.pdf", []byte("%PDF-"))
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestClientGuestUpload(t *testing.T) {
	t.Run("Returns Blob And Trial Marker", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Disposition", `attachment; filename=releve_EXTRAIT.xlsx`)
			w.Header().Set("X-Free-Trial-Used", "true")
			w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
		}))
		defer server.Close()

		conv, err := client.UploadGuest(context.Background(), "releve.pdf", []byte("%PDF-"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if conv.Filename != "releve_EXTRAIT.xlsx" {
			t.Errorf("expected suggested filename, got %s", conv.Filename)
		}
		if !conv.TrialUsed {
			t.Error("expected TrialUsed to be set from header")
		}
		if len(conv.Data) != 4 {
			t.Errorf("expected 4 body bytes, got %d", len(conv.Data))
		}
	})

	t.Run("Exhausted Trial Maps To Typed Error", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Vous avez déjà utilisé votre conversion gratuite."})
		}))
		defer server.Close()

		_, err := client.UploadGuest(context.Background(), "releve.pdf", []byte("%PDF-"))
		if !errors.Is(err, shared.ErrTrialExhausted) {
			t.Errorf("expected ErrTrialExhausted, got %v", err)
		}
	})
}

func TestClientHistoryAndDownload(t *testing.T) {
	t.Run("History Unwraps Uploads", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"uploads": []map[string]any{
					{"id": "u1", "filename": "janvier.pdf", "bank_code": "bnp", "transaction_count": 12},
				},
			})
		}))
		defer server.Close()

		uploads, err := client.History(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(uploads) != 1 || uploads[0].BankCode != "bnp" {
			t.Errorf("unexpected history: %+v", uploads)
		}
	})

	t.Run("Download Unknown ID", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := client.Download(context.Background(), "missing")
		if !errors.Is(err, shared.ErrUploadNotFound) {
			t.Errorf("expected ErrUploadNotFound, got %v", err)
		}
	})
}

func TestClientBilling(t *testing.T) {
	t.Run("Checkout Returns External URL", func(t *testing.T) {
		client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["plan"] != "premium" {
				t.Errorf("expected plan 'premium', got %v", body)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"url": "https://checkout.stripe.com/s/abc"})
		}))
		defer server.Close()

		url, err := client.CreateCheckoutSession(context.Background(), "premium")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != "https://checkout.stripe.com/s/abc" {
			t.Errorf("unexpected url: %s", url)
		}
	})
}
