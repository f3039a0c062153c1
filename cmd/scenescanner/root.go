package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/scenescanner/internal/api"
	"github.com/csheth/scenescanner/internal/config"
	"github.com/csheth/scenescanner/internal/logging"
	"github.com/csheth/scenescanner/internal/session"
	"github.com/csheth/scenescanner/internal/tui"
)

type rootOptions struct {
	configFile string
	envFile    string
}

// app bundles the wiring shared by the TUI and the headless commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	client  api.Client
	state   *session.State
	cleanup func()
}

func (a *app) Close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "scenescanner [pdf]",
		Short: "Upload a PDF and ask questions about it",
		Long: `scenescanner talks to a document Q&A backend: pick a PDF, choose GPT-4 or
Qwen2.5, upload it and ask questions about its contents.

Without a subcommand it starts the interactive terminal UI.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			initialPath := ""
			if len(args) == 1 {
				initialPath = args[0]
			}
			programOpts := []tea.ProgramOption{tea.WithContext(cmd.Context())}
			if !a.cfg.NoAltScreen {
				programOpts = append(programOpts, tea.WithAltScreen())
			}
			program := tea.NewProgram(
				tui.New(tui.Config{
					Session:        a.state,
					Client:         a.client,
					TranscriptPath: a.cfg.Transcript,
					InitialPath:    initialPath,
					Context:        cmd.Context(),
					Logger:         a.log,
				}),
				programOpts...,
			)
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("program error: %w", err)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.scenescanner.yaml)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file with SCENESCANNER_* entries (default is ./.env)")
	flags.String("api-url", api.DefaultBaseURL, "base URL of the Q&A backend")
	flags.String("model", string(session.DefaultModel), "model id: "+strings.Join(modelIDs(), " or "))
	flags.String("log-file", "", "write logs to this file (logging is off when empty)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("transcript", "", "append every answered question to this JSON file")
	flags.Bool("no-alt-screen", false, "disable the alternate screen buffer")

	root.AddCommand(newAskCmd(opts), newModelsCmd(opts), newPingCmd(opts))
	return root
}

func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: opts.configFile,
		EnvFile:    opts.envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	logger, cleanup, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	client, err := api.New(api.Config{BaseURL: cfg.APIURL, Logger: logger})
	if err != nil {
		cleanup()
		return nil, err
	}
	state := session.New(client, logger)
	if err := state.SetModel(cfg.SelectedModel()); err != nil {
		cleanup()
		return nil, err
	}
	logger.Info("scenescanner starting",
		zap.String("api_url", client.BaseURL()),
		zap.String("model", cfg.Model),
		zap.String("command", cmd.Name()),
	)
	return &app{cfg: cfg, log: logger, client: client, state: state, cleanup: cleanup}, nil
}

func modelIDs() []string {
	models := session.Models()
	ids := make([]string, len(models))
	for i, model := range models {
		ids[i] = string(model)
	}
	return ids
}
