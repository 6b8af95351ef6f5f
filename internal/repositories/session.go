package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/comptaflow/compta/internal/models"
)

// SessionRepository persists the single local session row (token + cached user).
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts the persisted session. The cached user may be nil when only a
// token is known yet.
func (r *SessionRepository) Save(token string, user *models.User) error {
	userJSON := ""
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userJSON = string(data)
	}

	query := `
		INSERT INTO session (id, token, user_json, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, user_json = excluded.user_json, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, token, userJSON, time.Now()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load returns the persisted session, or [ErrNoSession] when signed out.
func (r *SessionRepository) Load() (*models.Session, error) {
	var token, userJSON string

	row := r.db.QueryRow("SELECT token, user_json FROM session WHERE id = 1")
	found, err := scanOne(row, &token, &userJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if !found {
		return nil, ErrNoSession
	}

	session := &models.Session{Token: token}
	if userJSON != "" {
		var user models.User
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return nil, fmt.Errorf("failed to decode cached user: %w", err)
		}
		session.User = &user
	}

	return session, nil
}

// Clear removes the persisted session. Clearing an absent session is a no-op.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM session WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
