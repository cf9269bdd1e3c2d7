// Package main provides the dataset-splitter CLI. It splits a two-class image
// dataset into train/validation/test partitions, copying samples into
// <sample_root>/<partition>/<class>/ and writing one manifest per class and
// partition into <manifest_root>/.
//
// Commands:
//   - run (default) : dataset-splitter [run] [-c splitter.yaml] [flags]
//   - verify        : dataset-splitter verify [-c splitter.yaml]
//   - config        : dataset-splitter config init|show
//
// WARNING: run deletes the manifest root and the sample root before writing.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dataset-splitter/internal/config"
)

// usageError marks bad flags or arguments; they exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// usageArgs wraps a positional-argument validator so its failures are usage
// errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// app is the state shared by all commands of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "dataset-splitter",
		Short: "Split a binary-class image dataset into train/validation/test",
		Long: `dataset-splitter copies the samples of two classes into train, validation
and test partitions and writes one manifest per class and partition.

Each class is read from <source_root>/all_<class>/. Files in an optional
augmented/ subfolder are added to the pool unless a canonical file with the
same name exists.

The manifest root and the sample root are DELETED and recreated on every run.

Run without a subcommand to perform a split.`,
		Args: usageArgs(func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "splitter.yaml", "path to the YAML config (defaults are used if it does not exist)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	run := newRunCmd(a)
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run, newVerifyCmd(a), newConfigCmd(a))
	return root
}

// init loads the config and builds the logger.
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.verbose {
		a.cfg.Logging.Level = "debug"
	}
	a.logger, err = buildLogger(a.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func buildLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if lc.Level != "" {
		lvl, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = lvl
	}
	zc.DisableStacktrace = true
	return zc.Build()
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
	}
	stop()
	os.Exit(exitCode(err))
}
