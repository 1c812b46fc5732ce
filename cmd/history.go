package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/cratedig/internal/formatter"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recent searches with their cache status.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	engine, db, err := r.buildEngine(ctx, false)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := engine.History(r.userID())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"history": records, "count": len(records)}, true)
	}
	return r.writePlain("%s", formatter.HistoryToText(records))
}

// Result replays a persisted discovery result by its search hash.
func (r *Runner) Result(ctx context.Context, cmd *cli.Command) error {
	hash := strings.TrimSpace(cmd.StringArg("hash"))
	if hash == "" {
		return fmt.Errorf("%w: a search hash is required (see cratedig history)", shared.ErrMissingArgument)
	}

	engine, db, err := r.buildEngine(ctx, false)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := engine.Result(hash)
	if err != nil {
		return fmt.Errorf("no live result for %s: %w", hash, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.ResultToText(result))
}
