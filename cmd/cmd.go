// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/trackrip/internal/formatter"
	"github.com/desertthunder/trackrip/internal/shared"
	"github.com/urfave/cli/v3"
)

const rootDescription = `Without a helper, tracks are written to the output directory as "<artists> - <name>.ogg".
With a helper, it is run once per track with the track details as arguments and the audio on stdin.
A helper named like a subcommand (history, setup) must be given as a path, e.g. ./history.`

// rootCommand retrieves the tracks listed on stdin. Its flags are inherited by every subcommand.
func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:        shared.AppName,
		Usage:       "Retrieve catalog tracks listed on stdin",
		ArgsUsage:   "[helper] < tracks_file",
		Version:     "0.1.0",
		Description: rootDescription,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TRACKRIP_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for retrieved files when no helper is given",
				Sources: cli.EnvVars("TRACKRIP_OUTPUT_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("TRACKRIP_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "reset-credentials",
				Usage: "Delete stored credentials before connecting",
			},
			&cli.BoolFlag{
				Name:    "skip-retrieved",
				Usage:   "Skip references already in the retrieval history",
				Sources: cli.EnvVars("TRACKRIP_SKIP_RETRIEVED"),
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not open the retrieval history",
			},
		},
		Action:   r.Retrieve,
		Commands: []*cli.Command{historyCommand(r), setupCommand(r)},
	}
}

// historyCommand handles the retrieval journal
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect retrieval history",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List retrieved tracks, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries (0 for all)",
						Value: 50,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table, " + strings.Join(formatter.Formats, ", "),
						Value:   "table",
					},
					&cli.StringFlag{
						Name:  "encoding",
						Usage: "Only entries with this encoding (e.g. OGG_VORBIS_320)",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Write the listing to this file instead of stdout",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:      "forget",
				Usage:     "Remove one entry so --skip-retrieved fetches it again",
				ArgsUsage: "<id>",
				Action:    r.HistoryForget,
			},
		},
	}
}

// setupCommand writes a config file and prepares the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file from the template and initialize the history database",
		Action: r.Setup,
	}
}
