package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comptaflow/compta/internal/formatter"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/comptaflow/compta/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryList prints the account's converted statements.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	records, err := r.backend.History(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	if len(records) == 0 {
		return r.writePlain("Aucune conversion pour le moment.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Conversions (%d)", len(records)))
	return r.writePlain("%s", formatter.HistoryTable(records))
}

// HistoryDownload fetches spreadsheets for past conversions, either a single
// upload by id or the whole history through the bulk engine.
func (r *Runner) HistoryDownload(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	if id := cmd.String("id"); id != "" {
		blob, err := r.backend.Download(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		return r.saveSpreadsheet(blob.Filename, blob.Data, cmd.String("output"))
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := r.engine.BulkDownload(ctx, prog, tasks.BulkDownloadOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(prog)
	<-done

	if err != nil {
		return fmt.Errorf("bulk download failed: %w", err)
	}

	r.writePlainln("✓ %d/%d fichiers téléchargés dans %s", result.Succeeded, result.TotalUploads, result.OutputDirectory)
	if result.Failed > 0 {
		r.writePlain("✗ %d échecs (voir manifest.json)\n", result.Failed)
	}
	return nil
}

// HistoryExport writes the history as CSV to a file or stdout.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	records, err := r.backend.History(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	data, err := formatter.ExportHistoryCSV(records)
	if err != nil {
		return fmt.Errorf("failed to build CSV: %w", err)
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		_, err := r.output.Write(data)
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	return r.writePlain("✓ Historique exporté: %s (%d lignes)\n", outputPath, len(records))
}
