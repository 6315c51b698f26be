package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/message"
)

// pendingRow is one archive insert built from an accepted message.
type pendingRow struct {
	msg     *message.Message
	delayAt time.Time
	key     string
	stamp   string
	payload string
}

// SaveMessages archives messages as a single transaction. It is SaveBatch
// without the batch id.
func (s *Store) SaveMessages(ctx context.Context, messages []*message.Message) error {
	_, err := s.SaveBatch(ctx, messages)
	return err
}

// SaveBatch archives messages as a single transaction and returns the batch
// id that tags its log lines and errors. The id is empty when nothing was
// retained.
//
// Messages without body, subject, thread and rich content are skipped.
// Every retained message is given a delay annotation stamped with the
// current time if it lacks one or carries the zero time. This modifies the
// caller's messages in place: after SaveBatch returns, the caller observes
// the normalized annotation. The storage timestamp is read from the clock
// separately and does not reuse the annotation's value.
//
// A nil slice or nil element, a retained message without from or to, or a
// message whose serialized form exceeds MessageColumnLen fails with
// ErrInvalidArgument before the database is touched and before any message
// is modified. If nothing is retained, the database is not touched at all.
// Storage errors are returned wrapped with the batch id: the batch commits
// entirely or not at all.
//
// SaveBatch does not consult the logging switches; callers check IsLogging
// first.
func (s *Store) SaveBatch(ctx context.Context, messages []*message.Message) (string, error) {
	if messages == nil {
		return "", invalidArgument("messages is nil")
	}
	if len(messages) == 0 {
		return "", nil
	}

	batch := make([]pendingRow, 0, len(messages))
	for i, m := range messages {
		if m == nil {
			return "", invalidArgument("messages[%d] is nil", i)
		}
		if !m.HasContent() {
			continue
		}
		if err := requirePair(m.From, m.To); err != nil {
			return "", fmt.Errorf("messages[%d]: %w", i, err)
		}

		// Serialize a normalized copy; m itself changes only once the
		// whole batch is known to be valid.
		delayAt := s.clock.Now()
		normalized := m.Clone()
		normalized.EnsureDelay(delayAt)

		payload, err := marshalPayload(normalized)
		if err != nil {
			return "", fmt.Errorf("messages[%d]: %w", i, err)
		}

		batch = append(batch, pendingRow{
			msg:     m,
			delayAt: delayAt,
			key:     jid.PairKey(m.From, m.To),
			stamp:   FormatStamp(s.clock.Now()),
			payload: payload,
		})
	}

	if len(batch) == 0 {
		s.logger.Debug("nothing to archive", "skipped", len(messages))
		return "", nil
	}

	for _, row := range batch {
		row.msg.EnsureDelay(row.delayAt)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("save messages: batch id: %w", err)
	}
	batchID := id.String()

	if err := s.writeBatch(ctx, batchID, batch); err != nil {
		return "", err
	}

	s.logger.Debug("archived messages",
		"batch", batchID,
		"rows", len(batch),
		"skipped", len(messages)-len(batch),
	)
	return batchID, nil
}

// writeBatch inserts rows in one transaction.
func (s *Store) writeBatch(ctx context.Context, batchID string, batch []pendingRow) error {
	s.logger.Debug("archive batch begin", "batch", batchID, "rows", len(batch))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save messages: batch %s: begin tx: %w", batchID, err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jabber_archive (jid, stamp, message)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save messages: batch %s: prepare: %w", batchID, err)
	}
	defer stmt.Close()

	for _, row := range batch {
		if _, err := stmt.ExecContext(ctx, row.key, row.stamp, row.payload); err != nil {
			return fmt.Errorf("save messages: batch %s: insert: %w", batchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save messages: batch %s: commit: %w", batchID, err)
	}

	s.logger.Debug("archive batch committed", "batch", batchID)
	return nil
}
