package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/comptaflow/compta/internal/repositories"
	"github.com/comptaflow/compta/internal/services"
)

// EligibilityGate decides whether an anonymous visitor may still use the one
// free conversion.
//
// The gate is an optimization, not the source of truth: the server enforces
// the real limit by IP at upload time. A pinned local flag short-circuits the
// network round-trip; a network failure during the check fails open.
type EligibilityGate struct {
	backend services.Backend
	trials  *repositories.TrialRepository
	logger  *log.Logger
}

// NewEligibilityGate creates a gate over the backend and the local trial flag.
func NewEligibilityGate(backend services.Backend, trials *repositories.TrialRepository, logger *log.Logger) *EligibilityGate {
	return &EligibilityGate{backend: backend, trials: trials, logger: logger}
}

// Check reports whether the visitor may attempt a guest conversion.
//
// Order: local flag first (no network when pinned), then the server
// eligibility endpoint. A server verdict of ineligible pins the local flag so
// later visits skip the round-trip entirely.
func (g *EligibilityGate) Check(ctx context.Context) bool {
	used, err := g.trials.Used()
	if err != nil {
		g.logger.Warnf("failed to read trial flag: %v", err)
	}
	if used {
		return false
	}

	elig, err := g.backend.CheckGuestEligibility(ctx)
	if err != nil {
		// Fail open: the server re-checks at upload time anyway.
		g.logger.Warnf("eligibility check unreachable, assuming eligible: %v", err)
		return true
	}

	if !elig.Eligible {
		g.RecordExhausted()
		return false
	}

	return true
}

// RecordExhausted pins the local flag. Called when the server reports the
// trial as consumed: an ineligible verdict, a 403 on guest upload, or a
// successful conversion (which spends the trial).
func (g *EligibilityGate) RecordExhausted() {
	if err := g.trials.MarkUsed(); err != nil {
		g.logger.Warnf("failed to pin trial flag: %v", err)
	}
}
