package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hession/researcher/internal/cli"
	"github.com/hession/researcher/internal/config"
	"github.com/hession/researcher/internal/logger"
)

var (
	version = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless the command already printed the failure.
func reportError(w io.Writer, err error) {
	if errors.Is(err, cli.ErrQueryFailed) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func newRootCmd() *cobra.Command {
	var (
		configDir string
		verbose   bool
		cfg       *config.Config
		logCloser io.Closer
	)

	rootCmd := &cobra.Command{
		Use:   "researcher",
		Short: "Researcher - answers questions with web search and page scraping",
		Long: `Researcher is a conversational research assistant.

It lets a language model decide when to:
  • Search the web for fresh information
  • Read the content of a webpage
and answers with what it found.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configDir != "" {
				config.SetConfigDir(configDir)
			}

			loaded, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}
			cfg = loaded

			if verbose {
				cfg.Log.Level = "debug"
				cfg.Log.Console = true
			}

			logCloser, err = logger.Init(logger.Config{
				LogDir:     config.LogDir(),
				Level:      logger.ParseLevel(cfg.Log.Level),
				MaxDays:    cfg.Log.MaxDays,
				ConsoleOut: cfg.Log.Console,
			})
			if err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}

			logConfigInfo(cfg)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(cfg, version)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ./config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug records to stderr")

	// ask subcommand
	askCmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer a single query and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(cfg, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}

	// config subcommand
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cfg.String())

			path, _ := config.ConfigPath()
			created, err := config.EnsureConfigFile()
			if err != nil {
				return errors.Wrap(err, "failed to create config file")
			}
			if created {
				fmt.Fprintf(out, "\nCreated default config file: %s\n", path)
			} else {
				fmt.Fprintf(out, "\nConfig file path: %s\n", path)
			}
			return nil
		},
	}

	// version subcommand
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Researcher v%s\n", version)
		},
	}

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// logConfigInfo records the effective configuration without secrets.
func logConfigInfo(cfg *config.Config) {
	slog.Info("configuration loaded",
		slog.String("model", cfg.Model.Model),
		slog.String("model_base_url", cfg.Model.BaseURL),
		slog.Int("max_tokens", cfg.Model.MaxTokens),
		slog.String("search_provider", cfg.WebSearch.Provider),
		slog.String("scrape_provider", cfg.Scrape.Provider),
		slog.Bool("chat_api_key", cfg.Secrets.ChatAPIKey != ""),
		slog.Bool("search_api_key", cfg.Secrets.SearchAPIKey != ""),
		slog.Bool("scrape_api_key", cfg.Secrets.ScrapeAPIKey != ""),
	)
}
