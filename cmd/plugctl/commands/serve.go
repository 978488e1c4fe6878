package commands

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/sym"
	"github.com/teranos/plugctl/version"
)

// ShutdownTimeout bounds graceful HTTP and provider shutdown
const ShutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: sym.Short("serve"),
		Long: sym.Serve + ` serve - Serve active provider routes over HTTP

Runs discovery and activation, mounts the routes of every active provider
and serves them until interrupted. On shutdown every active provider is
stopped in reverse name order.

GET /health reports the plugctl version and the active providers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd.OutOrStdout(), app, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Address to listen on")
	return cmd
}

func runServe(ctx context.Context, w io.Writer, app *App, addr string) error {
	mux, err := buildMux(ctx, app)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "failed to listen on %s", addr), "choose another address with --addr")
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	printSuccess(w, "Serving %d active %s on http://%s", len(app.Providers.Active()),
		plural(len(app.Providers.Active()), "provider"), listener.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	app.Logger.Infow("Initiating server shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Warnw("HTTP shutdown incomplete", logger.FieldError, err)
	}
	if err := app.Providers.ShutdownAll(shutdownCtx); err != nil {
		app.Logger.Warnw("Provider shutdown errors", logger.FieldError, err)
	}
	app.Logger.Infow("Server shutdown complete")
	return nil
}

// buildMux activates plugins and mounts the routes of active providers
func buildMux(ctx context.Context, app *App) (*http.ServeMux, error) {
	report := app.Registry.Activate(ctx, app.Providers, app.activationOptions())
	if report.Err != nil {
		return nil, report.Err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]interface{}{
			"status":    "ok",
			"version":   version.Get().Version,
			"providers": app.Providers.Active(),
		})
	})

	if err := app.Providers.MountHTTP(mux); err != nil {
		return nil, err
	}
	return mux, nil
}
