// Command outreach-chat is the terminal client for the outreach assistant.
// Run without arguments to open the interactive chat screen.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/chat"
	"github.com/outreach/outreach-chat/internal/client"
	"github.com/outreach/outreach-chat/internal/config"
	"github.com/outreach/outreach-chat/internal/logging"
)

// errNoToken is returned when neither flags, env nor config supply a token
var errNoToken = errors.New("no API token: pass --token, set OUTREACH_TOKEN or api.token in config.json")

type globalFlags struct {
	configPath string
	apiURL     string
	token      string
	verbose    bool
	timeout    time.Duration
}

// app is everything a command needs to talk to the API
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	closer     io.Closer
	creds      *auth.CredentialStore
	client     *client.Client
	directory  *chat.Directory
	controller *chat.Controller
}

func (a *app) Close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// setup loads configuration and wires the chat core. Interactive mode keeps
// log output off the terminal.
func (g *globalFlags) setup(interactive bool, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if g.apiURL != "" {
		cfg.API.BaseURL = g.apiURL
	}
	if g.token != "" {
		cfg.API.Token = g.token
	}
	if g.timeout > 0 {
		cfg.API.Timeout = g.timeout
	}
	if cfg.API.Token == "" {
		return nil, errNoToken
	}

	level := cfg.Log.Level
	if g.verbose {
		level = "debug"
	}

	var (
		logger *logrus.Logger
		closer io.Closer
	)
	switch {
	case interactive && cfg.Log.File != "":
		logger, closer, err = logging.NewFile(level, cfg.Log.File)
	case interactive:
		logger = logging.Discard()
	default:
		logger, err = logging.New(level, stderr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	creds := auth.NewCredentialStore(cfg.API.Token)
	api := client.New(client.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, creds, logger)
	controller := chat.NewController(api, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		closer:     closer,
		creds:      creds,
		client:     api,
		directory:  chat.NewDirectory(api, controller, cfg.Chat.DefaultTitle, logger),
		controller: controller,
	}, nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "outreach-chat",
		Short: "Chat with the outreach assistant",
		Long: `outreach-chat talks to the outreach assistant API.

Run without arguments to start the interactive chat screen.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config.json")
	root.PersistentFlags().StringVar(&g.apiURL, "api-url", "", "API base URL (or set OUTREACH_API_URL)")
	root.PersistentFlags().StringVar(&g.token, "token", "", "Bearer token (or set OUTREACH_TOKEN)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 0, "Request timeout (default from config)")

	root.AddCommand(newTUICmd(g))
	root.AddCommand(newSessionsCmd(g))
	root.AddCommand(newSendCmd(g))
	return root
}

// commandContext is cancelled on SIGINT/SIGTERM
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if client.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, "session expired, sign in again")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
