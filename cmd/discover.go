package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/cratedig/internal/formatter"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// Discover runs the full pipeline for a query given on the command line and
// renders the ranked result.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	queryText := strings.TrimSpace(cmd.StringArg("query"))
	if queryText == "" {
		return fmt.Errorf("%w: a query is required, e.g. cratedig discover \"chill lofi beats\"", shared.ErrMissingArgument)
	}

	engine, db, err := r.buildEngine(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	query := models.DiscoveryQuery{
		Text:            queryText,
		Model:           cmd.String("model"),
		PlaylistLimit:   int(cmd.Int("limit")),
		TrackSampleSize: int(cmd.Int("sample")),
		RenderLimit:     int(cmd.Int("top")),
	}

	result, err := engine.Discover(ctx, r.userID(), query)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(result, cmd.Bool("pretty"))
	case cmd.Bool("markdown"):
		return r.writePlain("%s", formatter.ResultToMarkdown(result))
	default:
		return r.writePlain("%s", formatter.ResultToText(result))
	}
}
