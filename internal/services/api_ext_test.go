package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/comptaflow/compta/internal/services"
	tu "github.com/comptaflow/compta/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("Bearer Injection", func(t *testing.T) {
		t.Run("Attaches Header When Token Present", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
					t.Errorf("expected 'Bearer tok-123', got %q", got)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := services.NewAPIService(server.URL, nil)
			srv.SetTokenSource(func() string { return "tok-123" })

			if _, err := srv.Get(context.Background(), "/me"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Omits Header Without Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := r.Header["Authorization"]; ok {
					t.Error("expected no Authorization header")
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := services.NewAPIService(server.URL, nil)
			srv.SetTokenSource(func() string { return "" })

			if _, err := srv.Get(context.Background(), "/check-guest-eligibility"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("Unauthorized Hook", func(t *testing.T) {
		t.Run("Fires Once Per 401 Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			fired := 0
			srv := services.NewAPIService(server.URL, nil)
			srv.OnUnauthorized(func() { fired++ })

			resp, err := srv.Get(context.Background(), "/history")
			if err != nil {
				t.Fatalf("expected no transport error, got %v", err)
			}
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", resp.StatusCode)
			}
			if fired != 1 {
				t.Errorf("expected hook to fire exactly once, fired %d times", fired)
			}
		})

		t.Run("Silent On Success", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			fired := 0
			srv := services.NewAPIService(server.URL, nil)
			srv.OnUnauthorized(func() { fired++ })

			if _, err := srv.Get(context.Background(), "/health"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if fired != 0 {
				t.Errorf("expected hook to stay silent, fired %d times", fired)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Parses JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]bool{"eligible": true})
			}))
			defer server.Close()

			srv := services.NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/check-guest-eligibility")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.IsJSON {
				t.Error("expected response to be JSON")
			}
		})

		t.Run("Keeps Binary Body Raw", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Disposition", `attachment; filename=releve_EXTRAIT.xlsx`)
				w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
			}))
			defer server.Close()

			srv := services.NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/download/u1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected response to not be JSON")
			}
			if name := resp.SuggestedFilename(); name != "releve_EXTRAIT.xlsx" {
				t.Errorf("expected filename from Content-Disposition, got %q", name)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
			}
			srv := services.NewAPIService("http://example.com", client)

			_, err := srv.Get(context.Background(), "/health")
			if err == nil {
				t.Error("expected error for failed request")
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})
	})

	t.Run("PostMultipart", func(t *testing.T) {
		t.Run("Carries File And Fields", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(32 << 20); err != nil {
					t.Fatalf("failed to parse multipart form: %v", err)
				}

				file, header, err := r.FormFile("file")
				if err != nil {
					t.Fatalf("expected file part: %v", err)
				}
				defer file.Close()

				if header.Filename != "statement.pdf" {
					t.Errorf("expected filename 'statement.pdf', got %s", header.Filename)
				}
				content, _ := io.ReadAll(file)
				if string(content) != "%PDF-1.4 fake" {
					t.Errorf("unexpected file content: %s", content)
				}
				if got := r.FormValue("bank_name"); got != "BNP" {
					t.Errorf("expected bank_name 'BNP', got %q", got)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]bool{"success": true})
			}))
			defer server.Close()

			srv := services.NewAPIService(server.URL, nil)
			resp, err := srv.PostMultipart(context.Background(), "/report-failed-conversion", "statement.pdf",
				[]byte("%PDF-1.4 fake"), map[string]string{"bank_name": "BNP"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
		})

		t.Run("Sets Multipart Content Type", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ct := r.Header.Get("Content-Type")
				if _, params, err := mime.ParseMediaType(ct); err != nil || params["boundary"] == "" {
					t.Errorf("expected multipart content type with boundary, got %q", ct)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := services.NewAPIService(server.URL, nil)
			if _, err := srv.PostMultipart(context.Background(), "/upload", "a.pdf", []byte("%PDF-"), nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})
}
