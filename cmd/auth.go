package main

import (
	"context"
	"fmt"

	"github.com/comptaflow/compta/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates an account and persists the issued session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local store unavailable", shared.ErrServiceUnavailable)
	}

	email := cmd.String("email")
	r.logger.Infof("registering account for %v", email)

	result := r.store.Register(ctx, email, cmd.String("password"), cmd.String("name"))
	if !result.Ok {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, result.Message)
	}

	state := r.store.State()
	r.writePlain("✓ Compte créé\n")
	if state.User != nil {
		r.writePlain("Email: %s\nPlan: %s\n", state.User.Email, state.User.SubscriptionTier)
	}
	return nil
}

// AuthLogin exchanges credentials for a token and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local store unavailable", shared.ErrServiceUnavailable)
	}

	email := cmd.String("email")
	r.logger.Infof("signing in as %v", email)

	result := r.store.Login(ctx, email, cmd.String("password"))
	if !result.Ok {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, result.Message)
	}

	state := r.store.State()
	r.writePlain("✓ Connecté\n")
	if state.User != nil {
		r.writePlain("Email: %s\nPlan: %s\n", state.User.Email, state.User.SubscriptionTier)
	}
	return nil
}

// AuthLogout clears the persisted session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local store unavailable", shared.ErrServiceUnavailable)
	}

	r.store.Logout()
	return r.writePlain("✓ Déconnecté\n")
}

// AuthWhoami fetches and prints the profile for the current session.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	user, err := r.backend.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Email: %s\n", user.Email)
	r.writePlain("Nom: %s\n", user.FullName)
	r.writePlain("Plan: %s\n", user.SubscriptionTier)
	return nil
}

// AuthStatus reports on the local session and the backend's health.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.store != nil && r.store.State().Authenticated() {
		state := r.store.State()
		r.writePlain("Session: ✓ Connecté")
		if state.User != nil {
			r.writePlain(" (%s)", state.User.Email)
		}
		r.writePlain("\n")

		if expiry := tokenExpiry(state.Token); expiry != "" {
			r.writePlain("Token expire: %s\n", expiry)
		}
	} else {
		r.writePlain("Session: ✗ Non connecté\n")
	}

	health, err := r.backend.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("Service: ✓ %s", health.Status)
	if health.Version != "" {
		r.writePlain(" (v%s)", health.Version)
	}
	r.writePlain("\n")
	return nil
}

// tokenExpiry extracts the expiry claim from a bearer token for display.
// The token is not verified here; the backend is the authority on validity.
func tokenExpiry(token string) string {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ""
	}
	return exp.Format("2006-01-02 15:04:05")
}
