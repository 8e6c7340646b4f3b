// Package cmd implements the crush-subagents command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/aleksclark/crush-subagents/internal/config"
	"github.com/aleksclark/crush-subagents/internal/log"
	"github.com/aleksclark/crush-subagents/internal/tracing"
	"github.com/aleksclark/crush-subagents/internal/version"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const otelEndpointEnv = "CRUSH_OTEL_ENDPOINT"

// globalOptions holds the persistent flags and the state set up from them.
type globalOptions struct {
	cwd          string
	globalDir    string
	logFile      string
	otelEndpoint string
	debug        bool

	workDir   string
	logCloser io.Closer
}

// Root returns the root command with every subcommand attached.
func Root() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "crush-subagents",
		Short: "Resolve subagent profiles",
		Long: heredoc.Doc(`
			Resolve the effective profile of Crush subagents.

			Profiles are layered from the packaged defaults, the global
			subagents.json, the project's .crush/subagents.json and runtime
			overrides, then specialized by the variant matching the active model.
		`),
		Example: heredoc.Doc(`
			# Resolve the general subagent for a model
			crush-subagents resolve general --model openai/gpt-5

			# Resolve every subagent as YAML
			crush-subagents resolve --all --format yaml

			# Show which configuration files were loaded
			crush-subagents sources
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.teardown(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.cwd, "cwd", "c", "", "Current working directory")
	flags.StringVar(&opts.globalDir, "global-dir", "", "Global configuration directory")
	flags.StringVar(&opts.logFile, "log-file", "", "Write JSON logs to this file")
	flags.StringVar(&opts.otelEndpoint, "otel-endpoint", "", "OTLP gRPC endpoint for traces (env "+otelEndpointEnv+")")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Debug")

	root.AddCommand(
		newResolveCmd(opts),
		newListCmd(opts),
		newSourcesCmd(opts),
		newBuiltinsCmd(),
		newSchemaCmd(),
	)
	return root
}

// Execute runs the command line and exits on failure.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		Root(),
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func (o *globalOptions) setup(cmd *cobra.Command) error {
	workDir, err := resolveWorkDir(o.cwd)
	if err != nil {
		return err
	}
	o.workDir = workDir

	o.logCloser = log.Setup(log.Options{
		File:   o.logFile,
		Debug:  o.debug,
		Writer: cmd.ErrOrStderr(),
	})

	if err := loadDotEnv(workDir); err != nil {
		return err
	}

	endpoint := o.otelEndpoint
	if endpoint == "" {
		endpoint = os.Getenv(otelEndpointEnv)
	}
	if err := tracing.Init(tracing.Config{
		Endpoint:       endpoint,
		ServiceName:    tracing.TracerName,
		ServiceVersion: version.Version,
		Insecure:       true,
	}); err != nil {
		slog.Warn("Tracing disabled", "error", err)
	}
	return nil
}

func (o *globalOptions) teardown(ctx context.Context) error {
	if err := tracing.Shutdown(ctx); err != nil {
		slog.Warn("Failed to flush traces", "error", err)
	}
	if o.logCloser != nil {
		return o.logCloser.Close()
	}
	return nil
}

// load reads every configuration source for the working directory.
func (o *globalOptions) load(ctx context.Context, settings config.Settings) *config.Sources {
	return config.Load(ctx, config.LoadOptions{
		WorkDir:   o.workDir,
		GlobalDir: o.globalDir,
		Settings:  settings,
	})
}

func resolveWorkDir(cwd string) (string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read working directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory is not a directory: %s", abs)
	}
	return abs, nil
}

// loadDotEnv loads <workDir>/.env without overriding variables already set.
func loadDotEnv(workDir string) error {
	path := filepath.Join(workDir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	slog.Debug("Loaded environment file", "path", path)
	return nil
}
