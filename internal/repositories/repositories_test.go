package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("Load Without Session", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		_, err := repo.Load()
		if !errors.Is(err, ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})

	t.Run("Save And Load", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		user := &models.User{Email: "jean@example.com", FullName: "Jean Dupont", SubscriptionTier: "premium"}
		if err := repo.Save("tok-abc", user); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		session, err := repo.Load()
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if session.Token != "tok-abc" {
			t.Errorf("expected token 'tok-abc', got %s", session.Token)
		}
		if session.User == nil || session.User.Email != "jean@example.com" {
			t.Errorf("expected cached user, got %+v", session.User)
		}
		if session.User.SubscriptionTier != "premium" {
			t.Errorf("expected tier 'premium', got %s", session.User.SubscriptionTier)
		}
	})

	t.Run("Save Token Without User", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		if err := repo.Save("tok-only", nil); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		session, err := repo.Load()
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if session.Token != "tok-only" {
			t.Errorf("expected token 'tok-only', got %s", session.Token)
		}
		if session.User != nil {
			t.Errorf("expected nil user, got %+v", session.User)
		}
	})

	t.Run("Save Overwrites Previous Session", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		if err := repo.Save("tok-old", nil); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		if err := repo.Save("tok-new", &models.User{Email: "new@example.com"}); err != nil {
			t.Fatalf("failed to overwrite session: %v", err)
		}

		session, err := repo.Load()
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if session.Token != "tok-new" {
			t.Errorf("expected token 'tok-new', got %s", session.Token)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSessionRepository(newTestDB(t))

		if err := repo.Save("tok", nil); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		if err := repo.Clear(); err != nil {
			t.Fatalf("failed to clear session: %v", err)
		}

		if _, err := repo.Load(); !errors.Is(err, ErrNoSession) {
			t.Errorf("expected ErrNoSession after clear, got %v", err)
		}

		// Clearing again is a no-op
		if err := repo.Clear(); err != nil {
			t.Errorf("expected idempotent clear, got %v", err)
		}
	})
}

func TestTrialRepository(t *testing.T) {
	t.Run("Default Is Unused", func(t *testing.T) {
		repo := NewTrialRepository(newTestDB(t))

		used, err := repo.Used()
		if err != nil {
			t.Fatalf("failed to query trial flag: %v", err)
		}
		if used {
			t.Error("expected trial to be unused initially")
		}
	})

	t.Run("MarkUsed Pins The Flag", func(t *testing.T) {
		repo := NewTrialRepository(newTestDB(t))

		if err := repo.MarkUsed(); err != nil {
			t.Fatalf("failed to mark trial used: %v", err)
		}

		used, err := repo.Used()
		if err != nil {
			t.Fatalf("failed to query trial flag: %v", err)
		}
		if !used {
			t.Error("expected trial to be used after MarkUsed")
		}

		if err := repo.MarkUsed(); err != nil {
			t.Errorf("expected idempotent MarkUsed, got %v", err)
		}
	})
}
