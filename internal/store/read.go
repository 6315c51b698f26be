package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/message"
)

// noLimit is SQLite's LIMIT value for an unbounded result.
const noLimit = -1

// GetMessages returns the archived messages between from and to whose
// storage timestamp lies in [start, end].
//
// Most-recent-first truncation, chronological presentation: when more than
// count rows match, the count newest (by archive id) are kept, and the result
// is returned oldest first. A count of zero or less means no limit.
//
// Returned messages are fresh copies carrying ArchiveID and ArchivedAt. A row
// that fails to decode aborts the read with a *MalformedRecordError.
func (s *Store) GetMessages(ctx context.Context, from, to jid.JID, start, end time.Time, count int) ([]*message.Message, error) {
	if err := requirePair(from, to); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stamp, message
		FROM jabber_archive
		WHERE jid = ? AND stamp BETWEEN ? AND ?
		ORDER BY id DESC
		LIMIT ?
	`, jid.PairKey(from, to), FormatStamp(start), FormatStamp(end), limitFor(count))
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetMessagesBefore returns up to count archived messages between from and to
// with an archive id below beforeID, oldest first.
//
// Pass the smallest ArchiveID of one page as beforeID to fetch the page
// before it; an empty result means the history is exhausted. Use
// math.MaxInt64 for the newest page. A count of zero or less means no limit.
func (s *Store) GetMessagesBefore(ctx context.Context, from, to jid.JID, beforeID int64, count int) ([]*message.Message, error) {
	if err := requirePair(from, to); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stamp, message
		FROM jabber_archive INDEXED BY jabber_archive_jid
		WHERE jid = ? AND id < ?
		ORDER BY id DESC
		LIMIT ?
	`, jid.PairKey(from, to), beforeID, limitFor(count))
	if err != nil {
		return nil, fmt.Errorf("query messages before %d: %w", beforeID, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountMessages returns the number of archived messages between from and to.
func (s *Store) CountMessages(ctx context.Context, from, to jid.JID) (int, error) {
	if err := requirePair(from, to); err != nil {
		return 0, err
	}

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM jabber_archive WHERE jid = ?
	`, jid.PairKey(from, to)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// RemoveMessages deletes the whole archived conversation between from and to.
// The logging switch for the pair is left as is.
func (s *Store) RemoveMessages(ctx context.Context, from, to jid.JID) error {
	if err := requirePair(from, to); err != nil {
		return err
	}

	key := jid.PairKey(from, to)
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM jabber_archive WHERE jid = ?
	`, key)
	if err != nil {
		return fmt.Errorf("remove messages: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil {
		s.logger.Debug("archive purged", "pair", key, "rows", n)
	}
	return nil
}

// scanRecords decodes rows selected newest first and returns them oldest
// first. Returns an empty slice (not nil) if there are no rows.
func scanRecords(rows *sql.Rows) ([]*message.Message, error) {
	messages := []*message.Message{}
	for rows.Next() {
		var (
			id             int64
			stamp, payload string
		)
		if err := rows.Scan(&id, &stamp, &payload); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		m, err := unmarshalRecord(id, stamp, payload)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	slices.Reverse(messages)
	return messages, nil
}

// limitFor maps a caller count to a LIMIT value.
func limitFor(count int) int {
	if count > 0 && count < math.MaxInt {
		return count
	}
	return noLimit
}
