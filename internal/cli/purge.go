package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jarchive/internal/jid"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
	From string
	To   string
}

// PurgeResult holds the outcome of a purge.
type PurgeResult struct {
	Pair    string `json:"pair"`
	Removed int    `json:"removed"`
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete a conversation's archive",
		Long: `Delete every archived message of a conversation. The logging switch of
the conversation is left as it is.

Examples:
  jarchive purge --from alice@example.com --to bob@example.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.prepare(cmd); err != nil {
				return err
			}
			return runPurge(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "one participant address (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "the other participant address (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runPurge(ctx context.Context, opts *PurgeOptions, cmd *cobra.Command) error {
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

	n, err := st.CountMessages(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	if err := st.RemoveMessages(ctx, from, to); err != nil {
		return fmt.Errorf("failed to purge messages: %w", err)
	}

	result := PurgeResult{Pair: jid.PairKey(from, to), Removed: n}
	f := opts.formatter(cmd)
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Removed %d messages for %s.\n", result.Removed, result.Pair)
	return nil
}
