package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// TrialRepository persists the guest free-trial flag. Once set it is never
// unset by the client; the flag short-circuits further eligibility checks.
type TrialRepository struct {
	db *sql.DB
}

// NewTrialRepository creates a new [TrialRepository] with the given database connection
func NewTrialRepository(db *sql.DB) *TrialRepository {
	return &TrialRepository{db: db}
}

// Used reports whether the free trial has been consumed on this machine.
func (r *TrialRepository) Used() (bool, error) {
	var used int

	row := r.db.QueryRow("SELECT used FROM guest_trial WHERE id = 1")
	found, err := scanOne(row, &used)
	if err != nil {
		return false, fmt.Errorf("failed to query trial flag: %w", err)
	}

	return found && used != 0, nil
}

// MarkUsed pins the trial flag. Idempotent.
func (r *TrialRepository) MarkUsed() error {
	query := `
		INSERT INTO guest_trial (id, used, used_at) VALUES (1, 1, ?)
		ON CONFLICT(id) DO UPDATE SET used = 1, used_at = COALESCE(guest_trial.used_at, excluded.used_at)
	`

	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to set trial flag: %w", err)
	}

	return nil
}
