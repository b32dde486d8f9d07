package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/desertthunder/trackrip/internal/repositories"
	"github.com/desertthunder/trackrip/internal/shared"
	"github.com/desertthunder/trackrip/internal/tasks"
	"github.com/desertthunder/trackrip/internal/ui"
	"github.com/urfave/cli/v3"
)

const usage = "usage: " + shared.AppName + " [helper] < tracks_file"

// Retrieve reads track references from the input, one per line, and delivers each decrypted track.
//
// With no argument tracks are written to the output directory; with one argument each track is
// piped to that helper program. Line failures are reported in the summary and do not fail the run.
func (r *Runner) Retrieve(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() > 1 {
		return fmt.Errorf("%w: %s", shared.ErrUsage, usage)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	credsPath := r.config.CredentialsPath()
	if cmd.Bool("reset-credentials") {
		if err := shared.ResetCredentials(credsPath); err != nil {
			return err
		}
		r.logger.Info("credentials reset", "path", credsPath)
	}

	creds, err := shared.LoadOrCreateCredentials(credsPath, r.credentials)
	if err != nil {
		return err
	}

	session, err := r.connect(ctx, r.config.Session, creds, r.logger)
	if err != nil {
		return err
	}
	defer session.Close()
	r.logger.Debug("session established", "proxy", r.config.Session.ProxyURL, "user", creds.Username)

	var dispatcher tasks.Dispatcher
	if helper := cmd.Args().First(); helper != "" {
		dispatcher = tasks.NewHelperDispatcher(helper, r.logger)
	} else {
		dispatcher = tasks.NewFileDispatcher(r.config.Output.Directory, r.logger)
	}

	opts := tasks.PipelineOpts{
		Session:       session,
		Dispatcher:    dispatcher,
		SkipRetrieved: cmd.Bool("skip-retrieved"),
		PollInterval:  r.config.Session.PollInterval(),
		Logger:        r.logger,
	}

	if r.config.Database.Enabled && !cmd.Bool("no-history") {
		db, err := r.openJournal()
		if err != nil {
			r.logger.Warn("retrieval history unavailable, continuing without it", "err", err)
		} else {
			defer db.Close()
			opts.Journal = repositories.NewJournalAdapter(repositories.NewRetrievalRepository(db))
		}
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.Phase.Terminal() {
				r.writePlain("%s\n", ui.FormatProgress(update))
			}
		}
	}()

	summary := tasks.NewPipeline(opts).Run(ctx, r.input, progress)
	close(progress)
	wg.Wait()

	r.logger.Info("retrieval finished",
		"processed", summary.Processed,
		"delivered", summary.Delivered,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	return r.writePlain("%s", ui.FormatSummary(summary))
}

func (r *Runner) openJournal() (*sql.DB, error) {
	path := r.config.DatabasePath()
	r.logger.Debug("opening retrieval history", "path", path)
	return shared.OpenJournal(r.config.Database, path)
}
