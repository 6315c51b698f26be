package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/jarchive/internal/config"
	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"; empty means the config value
	ConfigPath string
	Database   string // overrides the config database when set

	// Resolved by prepare.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the jarchive CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "jarchive",
		Short: "jarchive - chat message archive",
		Long: `Archive chat messages per conversation and page back through them.

Conversations are keyed by the unordered pair of bare addresses, so
alice@example.com/home -> bob@example.com and bob@example.com ->
alice@example.com share one history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "output format (json|text), defaults to the config value")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite archive (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewPageCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewLoggingCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// prepare loads the configuration, applies flag overrides and builds the
// logger. It runs once; later calls are no-ops.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if o.Config != nil {
		return nil
	}

	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Format == "" {
		o.Format = cfg.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	cfg.Format = o.Format

	level := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	// Logs go to stderr so JSON output on stdout stays parseable.
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	o.Config = cfg
	return nil
}

// openStore opens the configured archive.
func (o *RootOptions) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, o.Config.Database, store.WithLogger(o.Logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// formatter returns an output formatter writing to the command's stdout.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// parsePair validates the two conversation addresses given on the command line.
func parsePair(from, to string) (jid.JID, jid.JID, error) {
	a, err := jid.Parse(from)
	if err != nil {
		return "", "", WrapExitError(ExitCommandError, "invalid --from address", err)
	}
	b, err := jid.Parse(to)
	if err != nil {
		return "", "", WrapExitError(ExitCommandError, "invalid --to address", err)
	}
	return a, b, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
