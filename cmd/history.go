package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/trackrip/internal/formatter"
	"github.com/desertthunder/trackrip/internal/repositories"
	"github.com/desertthunder/trackrip/internal/shared"
	"github.com/desertthunder/trackrip/internal/ui"
	"github.com/urfave/cli/v3"
)

const formatTable = "table"

// HistoryList prints the retrieval history, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	format := cmd.String("format")
	if format != formatTable && !slices.Contains(formatter.Formats, format) {
		return fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, format)
	}

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := repositories.NewRetrievalRepository(db).List(map[string]any{
		"format": cmd.String("encoding"),
		"limit":  int(cmd.Int("limit")),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrJournal, err)
	}

	if path := cmd.String("export"); path != "" {
		if format == formatTable {
			format = formatter.FormatPlain
		}
		if err := formatter.WriteExport(rows, format, path); err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "entries", len(rows))
		return nil
	}

	if format == formatTable {
		return r.writePlain("%s\n", ui.HistoryTable(rows))
	}

	data, err := formatter.Export(rows, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// HistoryForget removes one entry from the retrieval history.
func (r *Runner) HistoryForget(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("%w: %s history forget <id>", shared.ErrUsage, shared.AppName)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	id := cmd.Args().First()
	if err := repositories.NewRetrievalRepository(db).Delete(id); err != nil {
		return fmt.Errorf("retrieval %s: %w", id, err)
	}

	return r.writePlain("Forgot retrieval %s\n", id)
}
