package main

import (
	"context"
	"fmt"

	"github.com/comptaflow/compta/internal/formatter"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/urfave/cli/v3"
)

// Usage prints the month's quota consumption.
func (r *Runner) Usage(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	usage, err := r.backend.Usage(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(usage, true)
	}

	return r.writePlain("%s", formatter.RenderUsage(usage))
}

// BillingCheckout starts a subscription checkout and prints the external URL.
func (r *Runner) BillingCheckout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	plan := cmd.String("plan")
	if plan != "premium" && plan != "pro" {
		return fmt.Errorf("%w: plan must be premium or pro", shared.ErrInvalidInput)
	}

	r.logger.Infof("creating checkout session for plan %v", plan)

	url, err := r.backend.CreateCheckoutSession(ctx, plan)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("Checkout: %s\n", url)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warnf("failed to open browser: %v", err)
		}
	}
	return nil
}

// BillingPortal opens the billing portal for the signed-in account.
func (r *Runner) BillingPortal(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	url, err := r.backend.CreatePortalSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.writePlain("Portail: %s\n", url)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warnf("failed to open browser: %v", err)
		}
	}
	return nil
}
