package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jarchive/internal/jid"
)

// LoggingOptions holds flags for the logging command.
type LoggingOptions struct {
	*RootOptions
	From    string
	To      string
	Enable  bool
	Disable bool
}

// LoggingResult reports a conversation's logging switch.
type LoggingResult struct {
	Pair    string `json:"pair"`
	Logging bool   `json:"logging"`
}

// NewLoggingCommand creates the logging command.
func NewLoggingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoggingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logging",
		Short: "Show or set a conversation's logging switch",
		Long: `Show whether a conversation is archived, or change it with --enable or
--disable. Logging is enabled unless it was disabled explicitly. The switch
does not affect archived messages or reads.

Examples:
  jarchive logging --from alice@example.com --to bob@example.com
  jarchive logging --from alice@example.com --to bob@example.com --disable`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.prepare(cmd); err != nil {
				return err
			}
			return runLogging(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "one participant address (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "the other participant address (required)")
	cmd.Flags().BoolVar(&opts.Enable, "enable", false, "enable logging")
	cmd.Flags().BoolVar(&opts.Disable, "disable", false, "disable logging")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")

	return cmd
}

func runLogging(ctx context.Context, opts *LoggingOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	from, to, err := parsePair(opts.From, opts.To)
	if err != nil {
		return err
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Enable || opts.Disable {
		if err := st.SetLogging(ctx, from, to, opts.Enable); err != nil {
			return fmt.Errorf("failed to set logging: %w", err)
		}
	}

	logging, err := st.IsLogging(from, to)
	if err != nil {
		return fmt.Errorf("failed to read logging switch: %w", err)
	}

	result := LoggingResult{Pair: jid.PairKey(from, to), Logging: logging}
	f := opts.formatter(cmd)
	if f.Format == "json" {
		return f.Success(result)
	}
	state := "enabled"
	if !logging {
		state = "disabled"
	}
	fmt.Fprintf(f.Writer, "Logging %s for %s.\n", state, result.Pair)
	return nil
}
