// Package cli implements the modfetch command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/handiism/modfetch/internal/config"
	"github.com/handiism/modfetch/internal/download"
	"github.com/handiism/modfetch/internal/http"
	"github.com/handiism/modfetch/internal/logging"
	"github.com/handiism/modfetch/internal/modlist"
	"github.com/handiism/modfetch/internal/registry"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailures    = 1
	ExitPreflight   = 2
	ExitInterrupted = 130
)

// DefaultModlist is read when no modlist argument is given.
const DefaultModlist = "modlist.json"

// ExitError carries the process exit code out of a command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func preflight(err error) error {
	return &ExitError{Code: ExitPreflight, Err: err}
}

type options struct {
	output      string
	concurrency int
	loader      string
	timeout     time.Duration
	configPath  string
	envFile     string
	logDir      string
	noProgress  bool
	saveConfig  bool
	verbosity   int
}

// NewRootCommand creates the modfetch command.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "modfetch [modlist.json]",
		Short: "Resolve and download every package of a modlist",
		Long: `modfetch reads a JSON modlist, finds the published version of each
package on Modrinth or CurseForge, and downloads the matching file into the
output directory. Files that already exist are skipped, so running it again
only fetches what is missing.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultModlist
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd, opts, path)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "Output directory (default from config, \"mods\")")
	flags.IntVarP(&opts.concurrency, "concurrency", "c", 0, "Number of packages processed at once (default from config, 8)")
	flags.StringVar(&opts.loader, "loader", "", "Preferred loader tag (default from config, \"fabric\")")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout for registry calls (default from config, 30s)")
	flags.StringVar(&opts.configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/modfetch/config.toml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	flags.StringVar(&opts.logDir, "log-dir", "", "Directory for modfetch.log (default is $XDG_STATE_HOME/modfetch)")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "Disable progress bars")
	flags.BoolVar(&opts.saveConfig, "save-config", false, "Write the effective settings to the config file and exit")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}

	// Flag and argument errors.
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	fmt.Fprintln(cmd.ErrOrStderr(), "Run with -h for usage information.")
	return ExitPreflight
}

func run(cmd *cobra.Command, opts *options, modlistPath string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	logging.Setup(opts.verbosity, opts.logDir, cmd.ErrOrStderr())
	log.Debug().Str("command", cmd.Name()).Str("modlist", modlistPath).Msg("Command started")

	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return preflight(err)
	}

	if opts.saveConfig {
		path := configPath(opts)
		if err := settings.Save(path); err != nil {
			return preflight(fmt.Errorf("save config: %w", err))
		}
		log.Info().Str("path", path).Msg("Configuration saved")
		fmt.Fprintf(out, "Saved configuration to %s\n", path)
		return nil
	}

	requests, err := modlist.Load(modlistPath)
	if err != nil {
		return preflight(err)
	}

	client := http.NewClient(settings.HTTPOptions()...)
	printer := newPrinter(out, len(requests), showProgress(cmd, opts))

	manager := download.NewManager(
		registry.NewSet(client, settings.Endpoints()),
		download.NewFetcher(client),
		download.Options{
			OutputDir:   settings.OutputDir,
			Concurrency: settings.Concurrency,
			LoaderTag:   settings.LoaderTag,
		},
		printer,
	)

	if err := manager.Initialize(ctx, requests); err != nil {
		printer.Close()
		return preflight(err)
	}

	summary, err := manager.StartDownloads(ctx)
	printer.Close()
	if err != nil {
		return &ExitError{Code: ExitFailures, Err: err}
	}

	printer.PrintSummary(summary)

	switch {
	case ctx.Err() != nil:
		return &ExitError{Code: ExitInterrupted}
	case len(summary.Failed) > 0:
		return &ExitError{Code: ExitFailures}
	}
	return nil
}

// loadSettings layers .env, config file, environment and flags.
func loadSettings(cmd *cobra.Command, opts *options) (*config.Settings, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}

	settings, err := config.Load(configPath(opts))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		settings.OutputDir = opts.output
	}
	if flags.Changed("concurrency") {
		settings.Concurrency = opts.concurrency
	}
	if flags.Changed("loader") {
		settings.LoaderTag = opts.loader
	}
	if flags.Changed("timeout") {
		settings.RequestTimeout = opts.timeout
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func configPath(opts *options) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	return config.DefaultPath()
}

// showProgress reports whether bars should be drawn: only when writing to
// a terminal.
func showProgress(cmd *cobra.Command, opts *options) bool {
	if opts.noProgress {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
