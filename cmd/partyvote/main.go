package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CedricFinance/partyvote/application"
	"github.com/CedricFinance/partyvote/config"
	"github.com/CedricFinance/partyvote/infrastructure/api"
	"github.com/CedricFinance/partyvote/infrastructure/console"
	"github.com/CedricFinance/partyvote/infrastructure/render"
	"github.com/CedricFinance/partyvote/infrastructure/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds the collaborators shared by every command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *api.Client
	session *session.Store
	console *console.Console
	out     io.Writer
}

func newApp(cmd *cobra.Command, out io.Writer) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.GetLogLevel()}))
	slog.SetDefault(logger)

	store, err := session.Open(cfg.GetSessionPath())
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded", "api", cfg.GetAPIBaseURL(), "timeout", cfg.GetAPITimeout(), "session", cfg.GetSessionPath())

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  api.New(cfg.GetAPIBaseURL(), cfg.GetAPITimeout(), logger),
		session: store,
		console: console.New(out, logger),
		out:     out,
	}, nil
}

func (a *app) Close() error {
	return a.session.Close()
}

func (a *app) synchronizer(renderer application.Renderer) *application.Synchronizer {
	return &application.Synchronizer{
		Votes:     a.client,
		Identity:  a.session,
		Navigator: a.console,
		Notifier:  a.console,
		Renderer:  renderer,
		Logger:    a.logger.With("component", "synchronizer"),
		Timeout:   a.cfg.GetAPITimeout(),
	}
}

func (a *app) accounts() *application.Accounts {
	return &application.Accounts{
		Repository: a.client,
		Reference:  a.client,
		Session:    a.session,
		Navigator:  a.console,
		Logger:     a.logger.With("component", "accounts"),
		Timeout:    a.cfg.GetAPITimeout(),
	}
}

// renderer builds the renderer for the --format/--out flags of results.
func (a *app) renderer(format string, out string) (application.Renderer, error) {
	switch format {
	case "text", "":
		return render.Text{Out: a.out}, nil
	case "chart":
		if out == "" {
			out = a.cfg.GetChartOutput()
		}
		return render.ChartFile(out), nil
	case "slack":
		return render.Slack{WebhookURL: a.cfg.GetSlackWebhookURL(), Out: a.out}, nil
	case "all":
		if out == "" {
			out = a.cfg.GetChartOutput()
		}
		return render.Multi{render.Text{Out: a.out}, render.ChartFile(out)}, nil
	}
	return nil, errors.Errorf("unknown format %q (text, chart, slack, all)", format)
}

// withApp runs fn with a freshly wired app and closes it afterwards.
func withApp(out io.Writer, fn func(cmd *cobra.Command, args []string, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, out)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
