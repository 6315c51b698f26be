package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/jarchive/internal/message"
	"github.com/roach88/jarchive/internal/store"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	IgnoreSwitch bool // archive pairs with logging disabled too
}

// SaveResult holds the outcome of a save.
type SaveResult struct {
	Read     int    `json:"read"`
	Archived int    `json:"archived"`
	Skipped  int    `json:"skipped"`         // no body, subject, thread or rich content
	Unlogged int    `json:"unlogged"`        // pair has logging disabled
	Batch    string `json:"batch,omitempty"` // archive batch id, empty if nothing was written
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save [files...]",
		Short: "Archive messages read from XML",
		Long: `Archive every <message/> element found in the given files, or in
standard input when no file is given. All messages are written in one
transaction.

Messages without body, subject, thread or rich content are skipped.
Messages whose conversation has logging disabled are dropped unless
--ignore-switch is set.

Examples:
  jarchive save --db ./archive.db messages.xml
  cat stream.xml | jarchive save --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.prepare(cmd); err != nil {
				return err
			}
			return runSave(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.IgnoreSwitch, "ignore-switch", false, "archive even when logging is disabled for the conversation")

	return cmd
}

func runSave(ctx context.Context, opts *SaveOptions, files []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	msgs, err := readMessages(files, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read messages", err)
	}
	f.VerboseLog("Read %d messages", len(msgs))

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	result := SaveResult{Read: len(msgs)}
	accepted := make([]*message.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.HasContent() {
			result.Skipped++
			continue
		}
		if !opts.IgnoreSwitch {
			logging, err := st.IsLogging(m.From, m.To)
			if err != nil {
				return saveError(err)
			}
			if !logging {
				result.Unlogged++
				continue
			}
		}
		accepted = append(accepted, m)
	}

	batchID, err := st.SaveBatch(ctx, accepted)
	if err != nil {
		return saveError(err)
	}
	result.Archived = len(accepted)
	result.Batch = batchID

	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Archived %d of %d messages (%d skipped, %d unlogged).\n",
		result.Archived, result.Read, result.Skipped, result.Unlogged)
	f.VerboseLog("Batch %s", result.Batch)
	return nil
}

func saveError(err error) error {
	if errors.Is(err, store.ErrInvalidArgument) {
		return WrapExitError(ExitCommandError, "invalid message", err)
	}
	return fmt.Errorf("failed to archive messages: %w", err)
}

// readMessages decodes messages from files in order, or from stdin when
// files is empty.
func readMessages(files []string, stdin io.Reader) ([]*message.Message, error) {
	if len(files) == 0 {
		return message.ReadAll(stdin)
	}

	var all []*message.Message
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		msgs, err := message.ReadAllBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, msgs...)
	}
	return all, nil
}
