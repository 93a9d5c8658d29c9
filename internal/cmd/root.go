// Package cmd wires the adminctl CLI. Commands are construction and output
// only: every service object is built explicitly in the app context and
// passed down, with an explicit teardown when the command finishes.
package cmd

import (
	"context"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/paylinehq/adminctl/internal/agence"
	"github.com/paylinehq/adminctl/internal/auth"
	"github.com/paylinehq/adminctl/internal/config"
	"github.com/paylinehq/adminctl/internal/dashboard"
	"github.com/paylinehq/adminctl/internal/httpclient"
	"github.com/paylinehq/adminctl/internal/log"
	"github.com/paylinehq/adminctl/internal/token"
	"github.com/paylinehq/adminctl/internal/tui"
	"github.com/paylinehq/adminctl/internal/userservice"
)

// App is the explicitly constructed dependency context shared by all
// commands. There are no package-level service singletons; the root command
// builds one App per invocation and tears it down afterwards.
type App struct {
	Config       *config.Config
	Logger       *log.Logger
	Store        *token.Store
	Client       *httpclient.Client
	Coordinator  *auth.Coordinator
	Clients      *userservice.Service
	Admin        *agence.Service
	Orchestrator *dashboard.Orchestrator
	Styles       tui.Styles
}

// newApp builds the full service graph from configuration.
func newApp(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.Log.Level)
	logCfg.Format = log.ParseFormat(cfg.Log.Format)
	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	sessionPath := cfg.SessionFile
	if sessionPath == "" {
		sessionPath, err = token.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	store := token.NewStore(sessionPath)

	client := httpclient.New(httpclient.Config{
		Timeout:     time.Duration(cfg.HTTP.TimeoutMs) * time.Millisecond,
		MaxRetries:  cfg.HTTP.MaxRetries,
		BackoffBase: time.Duration(cfg.HTTP.BackoffBaseMs) * time.Millisecond,
		BackoffMax:  time.Duration(cfg.HTTP.BackoffMaxMs) * time.Millisecond,
		Exponential: cfg.HTTP.ExponentialBackoff,
	},
		httpclient.WithTokenSource(store),
		httpclient.WithLogger(logger),
	)

	coordinator := auth.New(store, client, auth.Config{
		Endpoints:   auth.RealmEndpoints(cfg.UserService.BaseURL, cfg.AgenceService.BaseURL),
		RefreshLead: time.Duration(cfg.Auth.RefreshLeadMinutes) * time.Minute,
	}, auth.WithLogger(logger))
	coordinator.Attach()

	clients := userservice.New(client, cfg.UserService.BaseURL)
	admin := agence.New(client, cfg.AgenceService.BaseURL)

	orchestrator := dashboard.New(clients, admin, dashboard.Config{
		Policy: dashboard.FallbackPolicy(cfg.Dashboard.FallbackPolicy),
	}, dashboard.WithLogger(logger))

	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Client:       client,
		Coordinator:  coordinator,
		Clients:      clients,
		Admin:        admin,
		Orchestrator: orchestrator,
		Styles:       tui.DefaultStyles(),
	}, nil
}

// Close tears the app context down.
func (a *App) Close() {
	if a.Coordinator != nil {
		a.Coordinator.Close()
	}
}

// NewRootCommand builds the adminctl command tree.
func NewRootCommand() *cobra.Command {
	var cfgPath string
	app := &App{}

	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Payline banking administration console",
		Long: `adminctl is the terminal console for the Payline banking platform.

It talks to the two backend services (UserService for client and financial
data, AgenceService for administration and document approval), manages the
login session including proactive token refresh, and renders the admin
dashboard with per-source degradation when a backend is unavailable.

Examples:
  adminctl login --realm agence
  adminctl dashboard --watch
  adminctl users list
  adminctl documents pending`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			*app = *built
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default is $HOME/.config/adminctl/config.yaml)")

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newStatusCommand(app),
		newDashboardCommand(app),
		newClientsCommand(app),
		newUsersCommand(app),
		newDocumentsCommand(app),
		newVersionCommand(),
	)
	return root
}

// stdinIsTerminal reports whether interactive prompts can be shown. Piped
// and scripted invocations must fail fast instead of hanging on a prompt.
func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
}

// ExecuteContext runs the root command under the given context.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
