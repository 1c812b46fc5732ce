package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/cratedig/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve starts the discovery HTTP API and blocks until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	engine, db, err := r.buildEngine(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()

	serverConfig := r.config.Server
	if host := cmd.String("host"); host != "" {
		serverConfig.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		serverConfig.Port = port
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(server.NewDiscoveryHandler(engine, r.hub, r.userID(), r.logger))

	srv := server.New(serverConfig, router)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", srv.Addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
