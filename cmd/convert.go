package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comptaflow/compta/internal/formatter"
	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConvertRun converts a statement on the signed-in account.
func (r *Runner) ConvertRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a PDF statement", shared.ErrMissingArgument)
	}

	if err := r.workflow.Select(path); err != nil {
		return err
	}

	r.logger.Infof("converting %v", path)

	result, err := r.workflow.Submit(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if result.Failure != nil {
		r.renderFailure(result.Failure, path)
		return nil
	}

	outcome := result.Outcome
	r.writePlain("✓ %d transactions extraites\n", outcome.TransactionsCount)
	if outcome.BankDetected != "" {
		r.writePlain("Banque: %s\n", outcome.BankDetected)
	}

	if !cmd.Bool("download") {
		return nil
	}

	blob, err := r.backend.Download(ctx, outcome.UploadID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.saveSpreadsheet(blob.Filename, blob.Data, cmd.String("output"))
}

// ConvertGuest converts one statement through the anonymous free trial.
func (r *Runner) ConvertGuest(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a PDF statement", shared.ErrMissingArgument)
	}

	if r.gate != nil && !r.gate.Check(ctx) {
		r.writePlain("✗ Essai gratuit déjà utilisé\n")
		r.writePlain("Créez un compte gratuit (5 conversions/mois): compta auth register\n")
		return nil
	}

	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}
	if err := shared.ValidatePDF(path, data); err != nil {
		return err
	}

	r.logger.Infof("converting %v as guest", path)

	conversion, err := r.backend.UploadGuest(ctx, filepath.Base(path), data)
	if err != nil {
		if errors.Is(err, shared.ErrTrialExhausted) {
			if r.gate != nil {
				r.gate.RecordExhausted()
			}
			r.writePlain("✗ Essai gratuit déjà utilisé\n")
			r.writePlain("Créez un compte gratuit (5 conversions/mois): compta auth register\n")
			return nil
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if conversion.TrialUsed && r.gate != nil {
		r.gate.RecordExhausted()
	}

	if err := r.saveSpreadsheet(conversion.Filename, conversion.Data, cmd.String("output")); err != nil {
		return err
	}

	r.writePlainln("C'était votre conversion d'essai. Créez un compte gratuit pour 5 conversions par mois.")
	return nil
}

// ConvertCheck runs the compatibility check without consuming quota.
func (r *Runner) ConvertCheck(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a PDF statement", shared.ErrMissingArgument)
	}

	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}
	if err := shared.ValidatePDF(path, data); err != nil {
		return err
	}

	report, err := r.backend.ValidateStatement(ctx, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	if report.Compatible {
		r.writePlain("✓ Compatible")
		if report.Bank != "" {
			r.writePlain(" (%s)", report.Bank)
		}
		r.writePlain("\n")
		if report.EstimatedTransactions > 0 {
			r.writePlain("Transactions estimées: %d\n", report.EstimatedTransactions)
		}
	} else {
		r.writePlain("✗ Incompatible\n")
		if report.Message != "" {
			r.writePlain("%s\n", report.Message)
		}
	}
	return nil
}

// ConvertReport forwards a failed statement to the team for analysis.
func (r *Runner) ConvertReport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to the failed PDF statement", shared.ErrMissingArgument)
	}

	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}

	err = r.backend.ReportFailedConversion(ctx, filepath.Base(path), data,
		cmd.String("bank"), cmd.String("error"), cmd.String("comment"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writePlain("✓ Signalement envoyé. Merci !\n")
}

// Banks lists the banks the conversion engine recognizes.
func (r *Runner) Banks(ctx context.Context, cmd *cli.Command) error {
	banks, err := r.backend.SupportedBanks(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(banks, true)
	}

	r.writePlainHeader("Banques supportées")
	return r.writePlain("%s", formatter.RenderBanks(banks))
}

// renderFailure prints a structured conversion failure the way the error
// banner does in the TUI.
func (r *Runner) renderFailure(failure *models.UploadError, path string) {
	r.writePlainHeader("✗ " + failure.Kind.Title())
	if failure.Message != "" {
		r.writePlain("%s\n", failure.Message)
	}
	if failure.BankDetected != "" {
		r.writePlain("Banque détectée: %s\n", failure.BankDetected)
	}
	if failure.Kind == models.ErrorBankNotSupported && len(failure.SupportedBanks) > 0 {
		r.writePlainln("Banques supportées:")
		r.writePlain("%s", formatter.RenderBanks(failure.SupportedBanks))
	}
	if failure.CanReport {
		r.writePlainln("Signalez ce relevé pour qu'on ajoute son format:")
		r.writePlain("  compta convert report %s --comment \"...\"\n", path)
	}
}

// saveSpreadsheet writes a downloaded workbook to disk and prints a summary.
func (r *Runner) saveSpreadsheet(filename string, data []byte, dir string) error {
	if dir == "" {
		dir = r.config.TUI.DownloadDir
	}
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	dest := filepath.Join(dir, filename)
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}

	r.writePlain("✓ Fichier enregistré: %s\n", dest)

	if summary, err := formatter.SummarizeWorkbook(data); err == nil {
		r.writePlain("%s", formatter.RenderWorkbookSummary(summary))
	} else {
		r.logger.Debugf("could not summarize workbook: %v", err)
	}
	return nil
}
