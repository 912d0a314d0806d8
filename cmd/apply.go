package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/axtree/internal/replay"
	"github.com/agentic-research/axtree/internal/source"
)

var (
	selector string
	verbose  bool
)

func init() {
	applyCmd.Flags().StringVarP(&selector, "select", "s", "", "JSONPath selecting the updates in each document")
	applyCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Dump cached per-node values")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply FILE...",
	Short: "Apply update documents in order to a fresh tree and print it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := settings(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), cfg)

		paths := make([]string, len(args))
		for i, a := range args {
			if paths[i], err = filepath.Abs(a); err != nil {
				return fmt.Errorf("resolve %s: %w", a, err)
			}
		}
		updates, err := source.NewLoader(osfs.New("/"), selector).LoadAll(cmd.Context(), paths)
		if err != nil {
			return err
		}

		store, err := openJournal(cfg)
		if err != nil {
			return err
		}
		if store != nil {
			defer func() { _ = store.Close() }()
		}

		p := replay.New(replay.Options{
			Tree:    treeOptions(cfg, logger),
			Journal: store,
			Logger:  logger,
			TreeID:  treeID,
		})
		defer func() { _ = p.Close() }()

		applyErr := p.ApplyAll(cmd.Context(), updates)
		printSnapshot(cmd, p.Snapshot(verbose))
		if applyErr != nil {
			return fmt.Errorf("some updates were rejected:\n%w", applyErr)
		}
		return nil
	},
}

func printSnapshot(cmd *cobra.Command, s replay.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, s.Dump)
	fmt.Fprintf(out, "tree_id: %s\nnodes: %d\napplied: %d\nrejected: %d\nfingerprint: %016x\n",
		s.TreeID, s.NodeCount, s.Applied, s.Failed, s.Fingerprint)
}
