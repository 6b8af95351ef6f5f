package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/services"
	"github.com/comptaflow/compta/internal/shared"
)

// UploadState enumerates the states of the upload workflow.
type UploadState int

const (
	Idle UploadState = iota
	FileSelected
	Uploading
	Succeeded
	Failed
)

// String returns a readable name for logging.
func (s UploadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "file_selected"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of a submission: exactly one of Outcome or
// Failure is set.
type Result struct {
	Outcome *services.UploadOutcome // set on success
	Failure *models.UploadError     // set on structured conversion failure
}

// Workflow is the upload state machine: Idle → FileSelected → Uploading →
// {Succeeded | Failed}.
//
// Selection is guarded by client-side validation so invalid files never reach
// the network. A structured failure keeps the selected file attached so the
// same bytes can back a follow-up problem report; at most one structured
// error is active at a time.
type Workflow struct {
	mu       sync.Mutex
	backend  services.Backend
	logger   *log.Logger
	state    UploadState
	filePath string
	fileData []byte
	active   *models.UploadError
}

// NewWorkflow creates an upload workflow in the Idle state.
func NewWorkflow(backend services.Backend, logger *log.Logger) *Workflow {
	return &Workflow{backend: backend, logger: logger, state: Idle}
}

// State returns the current workflow state.
func (w *Workflow) State() UploadState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SelectedFile returns the currently attached file, or ("", nil).
func (w *Workflow) SelectedFile() (string, []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filePath, w.fileData
}

// ActiveError returns the structured error currently displayed, or nil.
func (w *Workflow) ActiveError() *models.UploadError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Select attaches a file to the workflow after validating it. A rejected file
// reports the reason and leaves the current state untouched. A successful
// selection clears any active error.
func (w *Workflow) Select(path string) error {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}
	if err := shared.ValidatePDF(path, data); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Uploading {
		return fmt.Errorf("%w: upload in progress", shared.ErrInvalidInput)
	}

	w.filePath = path
	w.fileData = data
	w.active = nil
	w.state = FileSelected
	return nil
}

// Submit sends the attached file for conversion and returns a typed result.
//
// Only one submission may be in flight; re-submitting after a structured
// failure re-enters Uploading fresh with the same bytes (the backend is the
// authority on duplicate quota charges). A transport failure returns an error
// without setting a structured UploadError.
func (w *Workflow) Submit(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	switch w.state {
	case Uploading:
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: upload already in progress", shared.ErrInvalidInput)
	case FileSelected, Failed:
		// allowed
	default:
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: no file selected", shared.ErrMissingArgument)
	}
	path, data := w.filePath, w.fileData
	w.state = Uploading
	w.mu.Unlock()

	outcome, err := w.backend.Upload(ctx, filepath.Base(path), data)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.state = Failed
		return nil, fmt.Errorf("conversion request failed: %w", err)
	}

	if outcome.Succeeded() {
		w.logger.Infof("conversion succeeded: %d transactions from %s", outcome.TransactionsCount, filepath.Base(path))
		w.filePath = ""
		w.fileData = nil
		w.active = nil
		w.state = Succeeded
		return &Result{Outcome: outcome}, nil
	}

	// Structured failure: keep the file attached for a follow-up report.
	uploadErr := outcome.UploadError()
	w.logger.Warnf("conversion failed (%s): %s", uploadErr.Kind, uploadErr.Message)
	w.active = uploadErr
	w.state = Failed
	return &Result{Failure: uploadErr}, nil
}

// Report forwards the attached file plus the active error's metadata and the
// user's comment to the report endpoint. Allowed only for reportable errors.
// On success the error state is cleared; the history list is untouched since
// a report adds no upload record.
func (w *Workflow) Report(ctx context.Context, bankGuess, comment string) error {
	w.mu.Lock()
	active := w.active
	path, data := w.filePath, w.fileData
	w.mu.Unlock()

	if active == nil {
		return fmt.Errorf("%w: no conversion error to report", shared.ErrInvalidInput)
	}
	if !active.CanReport {
		return fmt.Errorf("%w: this error kind cannot be reported", shared.ErrInvalidInput)
	}
	if data == nil {
		return fmt.Errorf("%w: original file no longer attached", shared.ErrInvalidInput)
	}

	if bankGuess == "" {
		bankGuess = active.BankDetected
	}

	err := w.backend.ReportFailedConversion(ctx, filepath.Base(path), data, bankGuess, active.Message, comment)
	if err != nil {
		// Best effort: surface for a retryable notice, keep state intact.
		return fmt.Errorf("failed to submit report: %w", err)
	}

	w.mu.Lock()
	w.active = nil
	w.state = FileSelected
	w.mu.Unlock()

	w.logger.Info("conversion problem reported")
	return nil
}

// Reset returns the workflow to Idle, dropping the file and any error.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Uploading {
		return
	}
	w.filePath = ""
	w.fileData = nil
	w.active = nil
	w.state = Idle
}
