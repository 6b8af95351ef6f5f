package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/comptaflow/compta/internal/formatter"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/urfave/cli/v3"
)

// DebugPDF runs the server-side diagnostic on a PDF and prints the report.
func (r *Runner) DebugPDF(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a PDF", shared.ErrMissingArgument)
	}

	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}
	if err := shared.ValidatePDF(path, data); err != nil {
		return err
	}

	r.logger.Infof("running PDF diagnostic on %v", path)

	report, err := r.backend.DebugPDF(ctx, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlainHeader("Diagnostic PDF")
	return r.writePlain("%s", formatter.RenderDebugReport(report))
}
