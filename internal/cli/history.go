package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	From  string
	To    string
	Start string
	End   string
	Count int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Read a conversation by archive time window",
		Long: `Read the messages of a conversation archived between --start and --end
(RFC 3339, both inclusive). When more than --count messages match, the most
recent ones are shown, oldest first.

--count defaults to the configured page_size; 0 means no limit.

Examples:
  jarchive history --from alice@example.com --to bob@example.com
  jarchive history --from alice@example.com --to bob@example.com \
      --start 2024-03-01T00:00:00Z --end 2024-03-02T00:00:00Z --count 0`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.prepare(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				opts.Count = opts.Config.PageSize
			}
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "one participant address (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "the other participant address (required)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "window start, RFC 3339 (default: beginning of archive)")
	cmd.Flags().StringVar(&opts.End, "end", "", "window end, RFC 3339 (default: now)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "maximum messages to show")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	from, to, err := parsePair(opts.From, opts.To)
	if err != nil {
		return err
	}
	start, err := parseBound(opts.Start, time.Time{})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --start", err)
	}
	end, err := parseBound(opts.End, time.Now().UTC())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --end", err)
	}
	if end.Before(start) {
		return NewExitError(ExitCommandError, "--end is before --start")
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	msgs, err := st.GetMessages(ctx, from, to, start, end, opts.Count)
	if err != nil {
		return readError(err)
	}

	return outputRead(opts.formatter(cmd), newReadResult(jid.PairKey(from, to), msgs))
}

// parseBound parses an RFC 3339 time, returning def for an empty string.
func parseBound(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// readError wraps a read failure with an exit code.
func readError(err error) error {
	var malformed *store.MalformedRecordError
	switch {
	case errors.As(err, &malformed):
		return WrapExitError(ExitFailure, fmt.Sprintf("archive record %d is corrupt", malformed.ID), err)
	case errors.Is(err, store.ErrInvalidArgument):
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	default:
		return fmt.Errorf("failed to read archive: %w", err)
	}
}
