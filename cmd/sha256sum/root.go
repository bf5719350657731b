package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gingerrexayers/sha256-go/internal/sha256sum/commands"
	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/lib"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/logging"
)

// rootOptions holds the persistent flags and the settings resolved from them
// before any command runs.
type rootOptions struct {
	configPath  string
	logLevel    string
	bufferSize  int
	rateLimit   int
	metricsFile string

	hash    lib.HashOptions
	metrics *lib.Metrics
	cfg     lib.Config
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &rootOptions{}
	root := newRootCommand(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	// Metrics are flushed here rather than in a post-run hook, which cobra
	// skips when the command fails.
	err := root.ExecuteContext(ctx)
	if ferr := opts.flushMetrics(); err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return 0
}

// NewRootCommand creates the sha256sum command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sha256sum -f <file>",
		Short: "Given a file of data, return the sha256 hash over it",
		Long: `Computes the SHA-256 digest of a file and prints it as
"<hexdigest> <filename>", like the sha256sum utility.

Settings are read from $HOME/.sha256sum.yaml (or --config), then from
SHA256SUM_* environment variables, then from flags.`,
		Args:          noArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return cmd.Help()
			}
			return commands.Hash(cmd.Context(), cmd.OutOrStdout(), file, opts.hash)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File of data to hash with sha256")

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default is $HOME/.sha256sum.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.IntVar(&opts.bufferSize, "buffer-size", lib.DefaultBufferSize, "bytes read from the file per chunk")
	pf.IntVar(&opts.rateLimit, "rate-limit", 0, "maximum read throughput in bytes per second (0 = unlimited)")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError(c, err.Error())
	})

	cmd.AddCommand(NewChunksCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// load resolves config file, environment and flags, in that order, and
// installs the default logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := lib.LoadConfig(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = o.bufferSize
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = o.rateLimit
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfig, "invalid flags", err)
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), level))

	if cfg.MetricsFile != "" {
		o.metrics = lib.NewMetrics()
	}
	o.cfg = cfg
	o.hash = cfg.HashOptions(o.metrics)

	slog.Debug("configuration loaded",
		"buffer_size", cfg.BufferSize,
		"rate_limit", cfg.RateLimit,
		"metrics_file", cfg.MetricsFile,
	)
	return nil
}

func (o *rootOptions) flushMetrics() error {
	if o.metrics == nil {
		return nil
	}
	if err := o.metrics.WriteTextfile(o.cfg.MetricsFile); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, "metrics", err)
	}
	return nil
}

// usageError prints the command's usage and returns an error that maps to a
// zero exit code.
func usageError(cmd *cobra.Command, msg string) error {
	_ = cmd.Usage()
	return apperrors.New(apperrors.ErrCodeUsage, msg)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(cmd, fmt.Sprintf("unexpected argument %q", args[0]))
	}
	return nil
}
