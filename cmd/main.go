package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/skillmatrix/internal/adapters/gateway"
	"github.com/okian/skillmatrix/internal/adapters/session"
	app "github.com/okian/skillmatrix/internal/app"
	"github.com/okian/skillmatrix/internal/config"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := &env{out: os.Stdout, errOut: os.Stderr}
	if err := newRootCommand(e).Run(ctx, args); err != nil {
		os.Stderr.WriteString("skillmatrix: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// env carries the loaded configuration and output streams to commands.
type env struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
}

func newRootCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "skillmatrix",
		Usage:     "Employee training matrix client and local dashboard API",
		Writer:    e.out,
		ErrWriter: e.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "backend REST API root (overrides api_url)"},
			&cli.StringFlag{Name: "session", Usage: "session file path (overrides session_path)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides log_level)"},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, e.setup(ctx, c)
		},
		Commands: []*cli.Command{
			serveCommand(e),
			matrixCommand(e),
			scoreCommand(e),
			employeeCommand(e),
			columnCommand(e),
			levelsCommand(e),
			analyticsCommand(e),
			exportCommand(e),
			loginCommand(e),
			logoutCommand(e),
			whoamiCommand(e),
		},
	}
}

// setup loads configuration (defaults -> .env -> optional file -> env -> flags)
// and initializes logging on the error stream.
func (e *env) setup(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("session") {
		cfg.SessionPath = c.String("session")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg

	if err := logger.InitWriter(e.errOut, cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// newService builds and starts a service against the configured backend.
// initialLoad controls whether settings and the matrix are fetched on start.
func (e *env) newService(ctx context.Context, initialLoad bool) (*app.Service, error) {
	store, err := session.NewFileStore(e.cfg.SessionPath)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(e.cfg.APIURL,
		gateway.WithTimeout(e.cfg.RequestTimeout()),
		gateway.WithTokenSource(store),
		gateway.WithLogger(logger.Named("gateway")),
	)
	if err != nil {
		return nil, err
	}
	svc, err := app.New(
		app.WithGateway(gw),
		app.WithSessionStorage(store),
		app.WithLogger(logger.Named("service")),
		app.WithDefaultFilters(model.FilterOptions{ActiveOnly: model.Bool(e.cfg.ActiveOnly)}),
		app.WithDefaultUpdatedBy(e.cfg.DefaultUpdatedBy),
		app.WithInitialLoad(initialLoad),
	)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// withService runs fn against a started service and stops it afterwards.
func (e *env) withService(ctx context.Context, initialLoad bool, fn func(*app.Service) error) error {
	svc, err := e.newService(ctx, initialLoad)
	if err != nil {
		return err
	}
	defer svc.Stop()
	return fn(svc)
}
