// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// discoverCommand runs a discovery from the terminal.
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "discover",
		Aliases: []string{"dig"},
		Usage:   "Find playlists matching a natural-language request",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum search candidates to collect",
			},
			&cli.IntFlag{
				Name:  "sample",
				Usage: "Tracks to sample per playlist",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Maximum ranked playlists to show",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Override the configured completion model",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "markdown",
				Usage: "Output Markdown",
			},
		},
		Action: r.Discover,
	}
}

// historyCommand lists recent searches.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent searches and whether their results are still cached",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// resultCommand replays a persisted result by its search hash.
func resultCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "result",
		Usage: "Replay a persisted discovery result by search hash",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "hash",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Result,
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the discovery HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive discovery.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist discovery",
		Action:  r.TUI,
	}
}

// setupCommand handles database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead of migrating",
			},
		},
		Action: r.Setup,
	}
}
