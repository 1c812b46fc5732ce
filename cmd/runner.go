package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/discovery"
	"github.com/desertthunder/cratedig/internal/repositories"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	catalog   services.Catalog
	completer services.Completer
	hub       *discovery.Hub
	logger    *log.Logger
	output    io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and Completer may be left nil; they are then built from the config
// the first time a command needs them.
type RunnerOpts struct {
	Config    *shared.Config
	Catalog   services.Catalog
	Completer services.Completer
	Logger    *log.Logger
	Output    io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:    opts.Config,
		catalog:   opts.Catalog,
		completer: opts.Completer,
		hub:       discovery.NewHub(),
		logger:    opts.Logger,
		output:    opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, discoverCommand, historyCommand, resultCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openDatabase opens the configured SQLite database and applies any pending
// migrations. The caller owns the returned handle.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// buildEngine wires catalog, completer, repositories, and hub into a discovery
// engine. Returns the engine and the database handle the caller must close.
// Commands that only read local state pass needUpstream=false and skip
// credential checks.
func (r *Runner) buildEngine(ctx context.Context, needUpstream bool) (*discovery.Engine, *sql.DB, error) {
	if needUpstream && r.catalog == nil {
		catalog, err := services.NewSpotifyService(ctx,
			r.config.Credentials.Spotify.ClientID, r.config.Credentials.Spotify.ClientSecret)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create catalog client: %w", err)
		}
		r.catalog = catalog
	}

	if needUpstream && r.completer == nil {
		llm := r.config.Credentials.LLM
		completer, err := services.NewCompletionService(llm.BaseURL, llm.APIKey, llm.Model, llm.Provider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create completion client: %w", err)
		}
		r.completer = completer
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}

	engine := discovery.NewEngine(
		r.catalog, r.completer,
		repositories.NewCacheRepository(db),
		repositories.NewHistoryRepository(db),
		r.hub, r.logger,
		discovery.Options{
			PageDelayMS: r.config.Discovery.PageDelayMS,
			TokenFloor:  r.config.Discovery.TokenFloor,
			TokenCeil:   r.config.Discovery.TokenCeil,
		},
	)

	return engine, db, nil
}

func (r *Runner) userID() string {
	if r.config.Discovery.UserID != "" {
		return r.config.Discovery.UserID
	}
	return "local"
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
