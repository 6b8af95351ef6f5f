package ui

import (
	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/session"
	"github.com/comptaflow/compta/internal/tasks"
)

// loginDoneMsg carries the outcome of a login or register attempt.
type loginDoneMsg struct {
	result session.Result
}

// historyFetchedMsg carries the refreshed conversion history.
type historyFetchedMsg struct {
	records []models.UploadRecord
	err     error
}

// usageFetchedMsg carries the refreshed quota consumption.
type usageFetchedMsg struct {
	usage *models.Usage
	err   error
}

// uploadDoneMsg carries the outcome of a submitted conversion. A non-nil err
// is a transport failure; a structured failure arrives inside result.
type uploadDoneMsg struct {
	result *tasks.Result
	err    error
}

// guestDoneMsg carries the outcome of a free-trial conversion: where the
// spreadsheet was saved, or why it failed.
type guestDoneMsg struct {
	savedPath string
	trialUsed bool
	exhausted bool
	err       error
}

// reportDoneMsg carries the outcome of a problem report submission.
type reportDoneMsg struct {
	err error
}
