package main

import (
	"context"
	"fmt"

	"github.com/comptaflow/compta/internal/shared"
	"github.com/urfave/cli/v3"
)

// Support sends a message to the support inbox.
func (r *Runner) Support(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	err := r.backend.SupportContact(ctx, cmd.String("subject"), cmd.String("message"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ Message envoyé\n")
}
