package cli

import (
	"context"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/jarchive/internal/jid"
)

// PageOptions holds flags for the page command.
type PageOptions struct {
	*RootOptions
	From   string
	To     string
	Before int64
	Count  int
}

// NewPageCommand creates the page command.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Page backwards through a conversation",
		Long: `Show up to --count messages of a conversation whose archive id is below
--before, oldest first. Omit --before for the newest page, then pass the
printed cursor to walk back until no messages are left.

--count defaults to the configured page_size; 0 means no limit.

Examples:
  jarchive page --from alice@example.com --to bob@example.com --count 20
  jarchive page --from alice@example.com --to bob@example.com --before 120`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.prepare(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				opts.Count = opts.Config.PageSize
			}
			return runPage(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "one participant address (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "the other participant address (required)")
	cmd.Flags().Int64Var(&opts.Before, "before", 0, "exclusive archive id cursor (default: newest)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "maximum messages to show")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runPage(ctx context.Context, opts *PageOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	from, to, err := parsePair(opts.From, opts.To)
	if err != nil {
		return err
	}
	before := opts.Before
	if before <= 0 {
		before = math.MaxInt64
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	msgs, err := st.GetMessagesBefore(ctx, from, to, before, opts.Count)
	if err != nil {
		return readError(err)
	}

	return outputRead(opts.formatter(cmd), newReadResult(jid.PairKey(from, to), msgs))
}
