package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dataset-splitter/internal/split"
)

type runFlags struct {
	seed       int64
	shuffle    bool
	archive    string
	workers    int
	sourceRoot string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reset the output roots and perform the split",
		Long: `Performs the split:
  1. Checks that both canonical class folders exist
  2. Deletes and recreates the manifest root and the sample root
  3. Per class: lists samples, merges augmented samples by name,
     assigns them to partitions, copies them and writes manifests
  4. Writes split.json next to the manifests`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("seed") {
				a.cfg.Seed = f.seed
				a.cfg.Shuffle = true
			}
			if flags.Changed("shuffle") {
				a.cfg.Shuffle = f.shuffle
			}
			if flags.Changed("archive") {
				a.cfg.Archive = f.archive
			}
			if flags.Changed("workers") {
				a.cfg.CopyWorkers = f.workers
			}
			if flags.Changed("source-root") {
				a.cfg.SourceRoot = f.sourceRoot
			}

			sum, err := split.Run(cmd.Context(), a.cfg, split.Options{Logger: a.logger})
			if err != nil {
				return err
			}
			printSummary(a, sum)
			return nil
		},
	}
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "shuffle each class pool with this seed before partitioning (implies --shuffle)")
	cmd.Flags().BoolVar(&f.shuffle, "shuffle", false, "shuffle each class pool before partitioning")
	cmd.Flags().StringVar(&f.archive, "archive", "", "also pack manifests and samples into this zip file")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent file copies per class (0 = one at a time)")
	cmd.Flags().StringVar(&f.sourceRoot, "source-root", "", "folder containing the all_<class> folders")
	return cmd
}

func printSummary(a *app, sum *split.Summary) {
	for _, c := range sum.Classes {
		fmt.Fprintf(a.out, "%s: %d samples (canonical=%d, augmented=%d, shadowed=%d)\n",
			c.Class, c.PoolSize, c.Canonical, c.Augmented, c.Shadowed)
		for _, p := range c.Partitions {
			fmt.Fprintf(a.out, "  %-10s %6d  %s\n", p.Name, p.Count, p.Manifest)
		}
	}
	switch {
	case sum.FirstRun:
	case len(sum.Drift) == 0:
		fmt.Fprintln(a.out, "Manifests unchanged since previous run")
	default:
		for _, d := range sum.Drift {
			fmt.Fprintf(a.out, "Changed %s (+%d -%d)\n", d.Manifest, d.Added, d.Removed)
		}
	}
	if sum.Archive != "" {
		fmt.Fprintf(a.out, "Wrote archive %s (entries=%d)\n", sum.Archive, sum.ArchiveEntries)
	}
	fmt.Fprintf(a.out, "Split %s (run %s)\n", sum.SplitID, sum.RunID)
}
