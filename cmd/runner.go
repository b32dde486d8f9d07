package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/reactor"
	"github.com/desertthunder/trackrip/internal/services"
	"github.com/desertthunder/trackrip/internal/shared"
	"github.com/urfave/cli/v3"
)

// SessionFactory opens a catalog session.
type SessionFactory func(ctx context.Context, cfg shared.SessionConfig, creds *shared.Credentials, logger *log.Logger) (services.Session, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	logger      *log.Logger
	input       io.Reader
	output      io.Writer
	connect     SessionFactory
	credentials shared.CredentialsGenerator
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Logger      *log.Logger
	Input       io.Reader // track references, default stdin
	Output      io.Writer
	Connect     SessionFactory
	Credentials shared.CredentialsGenerator // provisions missing credentials, default environment
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Connect == nil {
		opts.Connect = connectProxy
	}
	if opts.Credentials == nil {
		opts.Credentials = shared.CredentialsFromEnv
	}

	return &Runner{
		config:      opts.Config,
		logger:      opts.Logger,
		input:       opts.Input,
		output:      opts.Output,
		connect:     opts.Connect,
		credentials: opts.Credentials,
	}
}

func connectProxy(ctx context.Context, cfg shared.SessionConfig, creds *shared.Credentials, logger *log.Logger) (services.Session, error) {
	session, err := services.Connect(ctx, cfg, creds, reactor.NewLoop(), logger)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *Runner) root() *cli.Command {
	return rootCommand(r)
}

// loadConfig applies the config file and flag overrides shared by every command.
//
// A missing file at the default path is not an error; a missing file named explicitly is.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		r.config = config
	} else if cmd.IsSet("config") {
		return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if cmd.IsSet("output-dir") {
		r.config.Output.Directory = cmd.String("output-dir")
	}

	level := r.config.Logging.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return err
	}

	return r.config.Validate()
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
