package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/fold-labs/windrow"
	"github.com/fold-labs/windrow/internal/cliconfig"
	"github.com/fold-labs/windrow/internal/export"
	"github.com/fold-labs/windrow/internal/ingest"
	"github.com/fold-labs/windrow/internal/watch"
	"github.com/fold-labs/windrow/pkg/checkpoint"
	"github.com/fold-labs/windrow/pkg/log"
	"github.com/fold-labs/windrow/pkg/schedule"
	"github.com/fold-labs/windrow/pkg/signature"
	"github.com/fold-labs/windrow/pkg/window"
)

const longHelp = `Slice a JSONL record stream into windows sized for a fixed
per-call byte budget, split windows that overflow it, and checkpoint progress
so an interrupted run resumes exactly after its last committed window.

Windows land as one JSONL part file each under the output directory.
Configure via file (~/.windrow/config.toml), WINDROW_* environment
variables, or flags; flags win.`

const exampleUsage = `  windrow run --input chat.jsonl --output-dir out --step-size 200
  windrow plan --input chat.jsonl --output-dir out --step-unit bytes --max-window-bytes 64000
  windrow watch --spool-dir spool --output-dir out --resume`

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "windrow",
		Short:   "Window a record stream for budgeted batch processing",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.windrow/config.toml)")
	root.PersistentFlags().StringVar(&cfg.Input, "input", cfg.Input, "JSONL record file")
	root.PersistentFlags().StringVar(&cfg.SpoolDir, "spool-dir", cfg.SpoolDir, "directory watched for record files")
	root.PersistentFlags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for exported windows")
	root.PersistentFlags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "checkpoint directory (default <output-dir>/.windrow)")
	root.PersistentFlags().IntVar(&cfg.StepSize, "step-size", cfg.StepSize, "window stride (records, hours or days)")
	root.PersistentFlags().StringVar(&cfg.StepUnit, "step-unit", cfg.StepUnit, "windowing strategy: count, hours, days or bytes")
	root.PersistentFlags().Float64Var(&cfg.OverlapRatio, "overlap-ratio", cfg.OverlapRatio, "window overlap fraction, 0 to 0.5")
	root.PersistentFlags().Int64Var(&cfg.MaxWindowBytes, "max-window-bytes", cfg.MaxWindowBytes, "byte packing limit (bytes unit)")
	root.PersistentFlags().DurationVar(&cfg.MaxWindowSpan, "max-window-span", cfg.MaxWindowSpan, "cap on a time window's span (0 disables)")
	root.PersistentFlags().Int64Var(&cfg.MaxCallBytes, "max-call-bytes", cfg.MaxCallBytes, "per-call byte budget enforced by the exporter")
	root.PersistentFlags().IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "maximum split depth before failing")
	root.PersistentFlags().IntVar(&cfg.MinWindowSize, "min-window-size", cfg.MinWindowSize, "advisory minimum records per window")
	root.PersistentFlags().BoolVar(&cfg.Resume, "resume", cfg.Resume, "resume after the last committed window")
	root.PersistentFlags().StringVar(&cfg.TemplatePath, "template", cfg.TemplatePath, "prompt template file for window signatures")
	root.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "debug logging")

	resolve := func(cmd *cobra.Command) (log.Logger, error) {
		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		file := cfgPath
		if file == "" {
			file = cliconfig.DefaultConfigPath()
		}
		if file != "" && cliconfig.FileExists(file) {
			fc, err := cliconfig.LoadFileConfig(file)
			if err != nil {
				return nil, fmt.Errorf("load config: %w", err)
			}
			cliconfig.ApplyFileConfig(&cfg, fc, changed)
		}
		cliconfig.ApplyEnvConfig(&cfg, changed)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		level := zerolog.InfoLevel
		if cfg.Verbose {
			level = zerolog.DebugLevel
		}
		zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
		return log.Wrap(zl), nil
	}

	root.AddCommand(runCmd(&cfg, resolve))
	root.AddCommand(planCmd(&cfg, resolve))
	root.AddCommand(statusCmd(&cfg, resolve))
	root.AddCommand(watchCmd(&cfg, resolve))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type resolver func(cmd *cobra.Command) (log.Logger, error)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newPipeline(cfg *cliconfig.Config, logger log.Logger) (*windrow.Pipeline, error) {
	wcfg, err := cfg.WindowConfig()
	if err != nil {
		return nil, err
	}
	exporter := export.New(cfg.OutputDir, cfg.MaxCallBytes, logger)
	return windrow.New(exporter,
		windrow.WithWindowConfig(wcfg),
		windrow.WithCheckpoint(checkpoint.NewStore(cfg.CheckpointPath()), cfg.Resume),
		windrow.WithCommitIndex(signature.NewMemoryIndex()),
		windrow.WithTemplate(cfg.Template),
		windrow.WithLogger(logger),
		windrow.WithSchedulerOptions(
			schedule.WithMaxDepth(cfg.MaxDepth),
			schedule.WithMinWindowSize(cfg.MinWindowSize),
		),
	), nil
}

func runFile(ctx context.Context, cfg *cliconfig.Config, logger log.Logger, path string) error {
	stream, err := ingest.ReadFile(path, logger)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	results, err := p.Run(ctx, stream)
	if err != nil {
		return err
	}
	logger.Info("run complete", log.Int("windows", len(results)))
	return nil
}

func runCmd(cfg *cliconfig.Config, resolve resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Window and export a JSONL record file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := resolve(cmd)
			if err != nil {
				return err
			}
			if cfg.Input == "" {
				return fmt.Errorf("input is required")
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runFile(ctx, cfg, logger, cfg.Input)
		},
	}
}

func planCmd(cfg *cliconfig.Config, resolve resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the window layout without processing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := resolve(cmd)
			if err != nil {
				return err
			}
			if cfg.Input == "" {
				return fmt.Errorf("input is required")
			}
			stream, err := ingest.ReadFile(cfg.Input, logger)
			if err != nil {
				return err
			}
			wcfg, err := cfg.WindowConfig()
			if err != nil {
				return err
			}
			seq, err := window.NewSequence(stream, wcfg, window.WithLogger(logger))
			if err != nil {
				return err
			}
			for {
				w, ok := seq.Next()
				if !ok {
					break
				}
				fmt.Fprintf(cmd.OutOrStdout(), "window %d: %s  records=%d  bytes=%d\n",
					w.Index, w.Label(), w.Size(), w.Bytes())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d windows over %d records\n", seq.Len(), stream.Len())
			return nil
		},
	}
}

func statusCmd(cfg *cliconfig.Config, resolve resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the run's checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := resolve(cmd); err != nil {
				return err
			}
			store := checkpoint.NewStore(cfg.CheckpointPath())
			cp, ok := store.Load()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no checkpoint")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "last processed: %s\nrecords processed: %d\n",
				cp.LastProcessedTimestamp.Format("2006-01-02 15:04:05 MST"), cp.RecordsProcessed)
			return nil
		},
	}
}

func watchCmd(cfg *cliconfig.Config, resolve resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch a spool directory and run per dropped record file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := resolve(cmd)
			if err != nil {
				return err
			}
			if cfg.SpoolDir == "" {
				return fmt.Errorf("spool-dir is required")
			}
			ctx, cancel := signalContext()
			defer cancel()
			w := watch.New(cfg.SpoolDir, func(ctx context.Context, path string) error {
				return runFile(ctx, cfg, logger, path)
			}, logger, 0)
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
