package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"hynix-cli/internal/app"
	"hynix-cli/internal/tui"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	flagConfig string
	flagMock   bool
	flagModel  string
	flagMode   string
)

func main() {
	root := &cobra.Command{
		Use:   "hynix",
		Short: "Hynix Eds — Gemini-backed chat in your terminal",
		Long: "Hynix Eds is a terminal chat client for Gemini models with\n" +
			"persistent sessions, file extraction into a live workspace,\n" +
			"and hynix, nano and creatore application modes.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.config/hynix/config.yml)")
	root.Flags().BoolVar(&flagMock, "mock", false, "use the offline mock completer instead of Gemini")
	root.Flags().StringVar(&flagModel, "model", "", "override the default model for new sessions")
	root.Flags().StringVar(&flagMode, "mode", "", "starting application mode (hynix, nano, creatore)")

	root.AddCommand(newExportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runTUI() error {
	cfg, err := app.LoadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagModel != "" {
		cfg.DefaultModel = flagModel
	}
	if flagMode != "" {
		switch app.AppMode(flagMode) {
		case app.ModeHynix, app.ModeNano, app.ModeCreatore:
			cfg.Mode = flagMode
		default:
			return fmt.Errorf("unknown mode %q (want hynix, nano or creatore)", flagMode)
		}
	}
	if !flagMock && cfg.GeminiAPIKey == "" {
		return fmt.Errorf("no Gemini API key: set GEMINI_API_KEY or gemini_api_key in the config, or pass --mock")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	events := make(chan app.GenEvent, 64)
	notify := func(ev app.GenEvent) {
		select {
		case events <- ev:
		default:
		}
	}

	application, err := app.NewApplication(ctx, cfg, flagMock, notify)
	if err != nil {
		return err
	}
	defer application.Close()

	return tui.Run(application, events)
}

func newExportCmd() *cobra.Command {
	var (
		flagEmail  string
		flagFormat string
		flagOut    string
	)
	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Export a saved chat session to text or JSON",
		Long: "Export writes a saved session to stdout or a file. The session id\n" +
			"may be abbreviated to a unique prefix; with no argument the most\n" +
			"recently saved session is exported.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(flagConfig)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			format, err := app.ParseExportFormat(flagFormat)
			if err != nil {
				return err
			}

			logger := app.NewLogger(app.DefaultLogWriter())
			storage := app.NewFileStorage(cfg.StorageRoot, logger)
			snap := storage.Load(flagEmail)
			if len(snap.Sessions) == 0 {
				return fmt.Errorf("no saved sessions for %s", flagEmail)
			}

			var sess app.ChatSession
			if len(args) == 0 {
				sess = snap.Sessions[0]
				for _, s := range snap.Sessions {
					if s.ID == snap.CurrentSessionID {
						sess = s
					}
				}
			} else {
				matched := false
				for _, s := range snap.Sessions {
					if strings.HasPrefix(s.ID, args[0]) {
						if matched {
							return fmt.Errorf("session id prefix %q is ambiguous", args[0])
						}
						sess = s
						matched = true
					}
				}
				if !matched {
					return fmt.Errorf("no session matching %q", args[0])
				}
			}

			data, err := app.ExportSession(sess, format)
			if err != nil {
				return err
			}
			if flagOut == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(flagOut, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&flagEmail, "email", "guest@hynix.ai", "account whose sessions to read")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "output format: text or json")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "write to file instead of stdout")
	return cmd
}
