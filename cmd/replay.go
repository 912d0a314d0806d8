package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/agentic-research/axtree/internal/replay"
)

func init() {
	replayCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Dump cached per-node values")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild a tree from its journal and print it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := settings(cmd)
		if err != nil {
			return err
		}
		store, err := openJournal(cfg)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("replay needs --journal or a journal block in the config")
		}
		defer func() { _ = store.Close() }()

		logger := newLogger(cmd.ErrOrStderr(), cfg)
		p := replay.New(replay.Options{Tree: treeOptions(cfg, logger), Logger: logger})
		defer func() { _ = p.Close() }()

		if _, err := p.Rebuild(cmd.Context(), store, treeID); err != nil {
			return err
		}
		printSnapshot(cmd, p.Snapshot(verbose))
		return nil
	},
}
