package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/services"
	"github.com/comptaflow/compta/internal/shared"
	tu "github.com/comptaflow/compta/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowSelect(t *testing.T) {
	t.Run("Rejects Non-PDF Before Any Network Call", func(t *testing.T) {
		uploads := 0
		backend := &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				uploads++
				return &services.UploadOutcome{Status: "success"}, nil
			},
		}
		w := NewWorkflow(backend, shared.NewLogger(io.Discard))

		path := t.TempDir() + "/notes.txt"
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

		err := w.Select(path)
		assert.ErrorIs(t, err, shared.ErrNotAPDF)
		assert.Equal(t, Idle, w.State())
		assert.Zero(t, uploads)
	})

	t.Run("Rejects Oversized File", func(t *testing.T) {
		w := NewWorkflow(&tu.MockBackend{}, shared.NewLogger(io.Discard))

		path := tu.WritePDF(t, t.TempDir(), "big.pdf", shared.MaxUploadBytes+1)

		err := w.Select(path)
		assert.ErrorIs(t, err, shared.ErrFileTooLarge)
		assert.Equal(t, Idle, w.State())
	})

	t.Run("Accepts Valid PDF", func(t *testing.T) {
		w := NewWorkflow(&tu.MockBackend{}, shared.NewLogger(io.Discard))

		path := tu.WritePDF(t, t.TempDir(), "statement.pdf", 2*1024*1024)

		require.NoError(t, w.Select(path))
		assert.Equal(t, FileSelected, w.State())

		selected, data := w.SelectedFile()
		assert.Equal(t, path, selected)
		assert.Len(t, data, 2*1024*1024)
	})

	t.Run("Selection Clears Active Error", func(t *testing.T) {
		backend := &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				return &services.UploadOutcome{Status: "error", ErrorType: "FORMAT_NOT_COMPATIBLE", CanReport: true}, nil
			},
		}
		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		dir := t.TempDir()

		require.NoError(t, w.Select(tu.WritePDF(t, dir, "bad.pdf", 1024)))
		_, err := w.Submit(context.Background())
		require.NoError(t, err)
		require.NotNil(t, w.ActiveError())

		require.NoError(t, w.Select(tu.WritePDF(t, dir, "other.pdf", 1024)))
		assert.Nil(t, w.ActiveError())
	})
}

func TestWorkflowSubmit(t *testing.T) {
	t.Run("Success Clears File And Error", func(t *testing.T) {
		backend := &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				return &services.UploadOutcome{Status: "success", TransactionsCount: 42}, nil
			},
		}
		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		require.NoError(t, w.Select(tu.WritePDF(t, t.TempDir(), "statement.pdf", 2*1024*1024)))

		result, err := w.Submit(context.Background())
		require.NoError(t, err)
		require.NotNil(t, result.Outcome)
		assert.Nil(t, result.Failure)
		assert.Equal(t, 42, result.Outcome.TransactionsCount)
		assert.Equal(t, Succeeded, w.State())

		path, data := w.SelectedFile()
		assert.Empty(t, path)
		assert.Nil(t, data)
		assert.Nil(t, w.ActiveError())
	})

	t.Run("Structured Failure Keeps File Attached", func(t *testing.T) {
		backend := &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				return &services.UploadOutcome{
					Status:         "error",
					ErrorType:      "BANK_NOT_SUPPORTED",
					Message:        "Banque inconnue",
					SupportedBanks: map[string]string{"bnp": "BNP Paribas"},
					CanReport:      true,
				}, nil
			},
		}
		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		path := tu.WritePDF(t, t.TempDir(), "scan.pdf", 1024)
		require.NoError(t, w.Select(path))

		result, err := w.Submit(context.Background())
		require.NoError(t, err)
		assert.Nil(t, result.Outcome)
		require.NotNil(t, result.Failure)
		assert.Equal(t, models.ErrorBankNotSupported, result.Failure.Kind)
		assert.Equal(t, "Banque non supportée", result.Failure.Kind.Title())
		assert.True(t, result.Failure.CanReport)
		assert.Equal(t, Failed, w.State())

		kept, data := w.SelectedFile()
		assert.Equal(t, path, kept)
		assert.NotNil(t, data)
	})

	t.Run("Transport Failure Sets No Structured Error", func(t *testing.T) {
		backend := &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				return nil, errors.New("connection reset")
			},
		}
		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		require.NoError(t, w.Select(tu.WritePDF(t, t.TempDir(), "statement.pdf", 1024)))

		_, err := w.Submit(context.Background())
		assert.Error(t, err)
		assert.Nil(t, w.ActiveError())
		assert.Equal(t, Failed, w.State())
	})

	t.Run("Resubmission After Failure Re-Enters Uploading Fresh", func(t *testing.T) {
		attempts := 0
		backend := &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				attempts++
				if attempts == 1 {
					return &services.UploadOutcome{Status: "error", ErrorType: "FORMAT_NOT_COMPATIBLE", CanReport: true}, nil
				}
				return &services.UploadOutcome{Status: "success", TransactionsCount: 7}, nil
			},
		}
		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		require.NoError(t, w.Select(tu.WritePDF(t, t.TempDir(), "statement.pdf", 1024)))

		first, err := w.Submit(context.Background())
		require.NoError(t, err)
		require.NotNil(t, first.Failure)

		second, err := w.Submit(context.Background())
		require.NoError(t, err)
		require.NotNil(t, second.Outcome)
		assert.Equal(t, 2, attempts)
		assert.Equal(t, Succeeded, w.State())
	})

	t.Run("Rejects Concurrent Submission", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		backend := &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				close(started)
				<-release
				return &services.UploadOutcome{Status: "success"}, nil
			},
		}
		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		require.NoError(t, w.Select(tu.WritePDF(t, t.TempDir(), "statement.pdf", 1024)))

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := w.Submit(context.Background())
			assert.NoError(t, err)
		}()

		<-started
		_, err := w.Submit(context.Background())
		assert.Error(t, err)

		close(release)
		<-done
	})

	t.Run("Rejects Submission Without File", func(t *testing.T) {
		w := NewWorkflow(&tu.MockBackend{}, shared.NewLogger(io.Discard))

		_, err := w.Submit(context.Background())
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})
}

func TestWorkflowReport(t *testing.T) {
	failing := func(canReport bool) *tu.MockBackend {
		return &tu.MockBackend{
			UploadFn: func(ctx context.Context, filename string, data []byte) (*services.UploadOutcome, error) {
				return &services.UploadOutcome{
					Status:       "error",
					ErrorType:    "BANK_NOT_SUPPORTED",
					Message:      "Banque inconnue",
					BankDetected: "",
					CanReport:    canReport,
				}, nil
			},
		}
	}

	t.Run("Forwards The Exact Bytes That Failed", func(t *testing.T) {
		backend := failing(true)
		var reported []byte
		backend.ReportFn = func(ctx context.Context, filename string, data []byte, bankName, errorMessage, comment string) error {
			reported = data
			assert.Equal(t, "Crédit Agricole", bankName)
			assert.Equal(t, "Banque inconnue", errorMessage)
			assert.Equal(t, "relevé de mars", comment)
			return nil
		}

		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		path := tu.WritePDF(t, t.TempDir(), "statement.pdf", 4096)
		require.NoError(t, w.Select(path))

		_, err := w.Submit(context.Background())
		require.NoError(t, err)

		_, submitted := w.SelectedFile()
		require.NoError(t, w.Report(context.Background(), "Crédit Agricole", "relevé de mars"))
		assert.True(t, bytes.Equal(submitted, reported), "report must carry the same bytes that were uploaded")
		assert.Nil(t, w.ActiveError(), "error state must clear after a successful report")
	})

	t.Run("Refuses Non-Reportable Errors", func(t *testing.T) {
		w := NewWorkflow(failing(false), shared.NewLogger(io.Discard))
		require.NoError(t, w.Select(tu.WritePDF(t, t.TempDir(), "scan.pdf", 1024)))

		_, err := w.Submit(context.Background())
		require.NoError(t, err)

		err = w.Report(context.Background(), "", "comment")
		assert.Error(t, err)
		assert.NotNil(t, w.ActiveError())
	})

	t.Run("Failed Report Keeps Error State For Retry", func(t *testing.T) {
		backend := failing(true)
		backend.ReportFn = func(ctx context.Context, filename string, data []byte, bankName, errorMessage, comment string) error {
			return errors.New("server unavailable")
		}

		w := NewWorkflow(backend, shared.NewLogger(io.Discard))
		require.NoError(t, w.Select(tu.WritePDF(t, t.TempDir(), "statement.pdf", 1024)))
		_, err := w.Submit(context.Background())
		require.NoError(t, err)

		err = w.Report(context.Background(), "", "comment")
		assert.Error(t, err)
		assert.NotNil(t, w.ActiveError())
	})
}
