package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/skillmatrix/internal/adapters/http/api"
	app "github.com/okian/skillmatrix/internal/app"
	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/urfave/cli/v3"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func serveCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local dashboard API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (overrides addr)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.IsSet("addr") {
				e.cfg.Addr = c.String("addr")
			}
			svc, err := e.newService(ctx, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			srv, err := newHTTPServer(ctx, e.cfg.Addr, e.cfg.RateLimit, svc)
			if err != nil {
				return err
			}
			return runHTTPServer(ctx, srv)
		},
	}
}

func newHTTPServer(ctx context.Context, addr, rateLimit string, svc *app.Service) (*http.Server, error) {
	rate, err := api.ParseRate(rateLimit)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithRate(rate)).Register(ctx, mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}

// runHTTPServer serves until ctx is cancelled, then shuts down gracefully.
func runHTTPServer(ctx context.Context, srv *http.Server) error {
	log := logger.Named("http")
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
