// package repositories provides the SQLite-backed local store.
//
// The client persists exactly three things across runs: the bearer token, the
// cached user profile, and the guest free-trial flag. [SessionRepository]
// covers the first two as a single row; [TrialRepository] covers the flag.
package repositories

import (
	"database/sql"
	"errors"
)

// ErrNoSession indicates no persisted session row exists.
var ErrNoSession = errors.New("no persisted session")

// scanOne is a helper for single-row queries where absence is not an error.
func scanOne(row *sql.Row, dest ...any) (bool, error) {
	err := row.Scan(dest...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
