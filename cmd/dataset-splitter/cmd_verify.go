package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dataset-splitter/internal/record"
)

var errVerifyFailed = errors.New("sample root does not match split.json")

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check copied samples against the split.json of the last run",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := record.Load(a.cfg.OutputManifestRoot)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no %s in %s; run a split first", record.FileName, a.cfg.OutputManifestRoot)
			}
			problems, err := record.Verify(rec, a.cfg.OutputSampleRoot)
			if err != nil {
				return err
			}
			for _, p := range problems {
				a.logger.Warn("sample mismatch", zap.String("path", p.Path), zap.String("reason", p.Reason))
				fmt.Fprintf(a.out, "%s\t%s\n", p.Reason, p.Path)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%w: %d problem(s)", errVerifyFailed, len(problems))
			}
			fmt.Fprintf(a.out, "OK split %s (run %s)\n", rec.SplitID, rec.RunID)
			return nil
		},
	}
}
