package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/axtree/internal/config"
	"github.com/agentic-research/axtree/internal/journal"
	"github.com/agentic-research/axtree/internal/tree"
)

// Version is stamped by the release build.
var Version = "dev"

var (
	configPath     string
	logLevel       string
	focusUnignored bool
	journalPath    string
	journalDriver  string
	treeID         string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to HCL config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&focusUnignored, "focus-unignored", false, "Treat the focused node as unignored")
	rootCmd.PersistentFlags().StringVarP(&journalPath, "journal", "j", "", "Journal file")
	rootCmd.PersistentFlags().StringVar(&journalDriver, "driver", "", "Journal driver (sqlite or bolt)")
	rootCmd.PersistentFlags().StringVar(&treeID, "tree-id", "", "Journal stream id")
}

var rootCmd = &cobra.Command{
	Use:           "axtree",
	Short:         "Apply, journal and replay incremental accessibility tree updates",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

// ErrDriverWithoutJournal is returned when a journal driver is chosen but
// no journal path is configured.
var ErrDriverWithoutJournal = errors.New("--driver needs a journal: pass --journal or add a journal block to the config")

// settings merges the config file with flags; flags win when set.
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("focus-unignored") {
		cfg.FocusedNodeAlwaysUnignored = focusUnignored
	}
	if journalPath != "" {
		if cfg.Journal == nil {
			cfg.Journal = &config.JournalConfig{}
		}
		cfg.Journal.Path = journalPath
	}
	if journalDriver != "" {
		if cfg.Journal == nil {
			return nil, ErrDriverWithoutJournal
		}
		cfg.Journal.Driver = journalDriver
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

func treeOptions(cfg *config.Config, logger *slog.Logger) tree.Options {
	return tree.Options{FocusedNodeAlwaysUnignored: cfg.FocusedNodeAlwaysUnignored, Logger: logger}
}

// openJournal returns nil when no journal is configured.
func openJournal(cfg *config.Config) (journal.Store, error) {
	if cfg.Journal == nil {
		return nil, nil
	}
	return journal.Open(cfg.Journal.Driver, cfg.Journal.Path)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
