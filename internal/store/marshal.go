package store

import (
	"fmt"
	"time"

	"github.com/roach88/jarchive/internal/message"
)

// MessageColumnLen bounds the serialized size of one archived message.
const MessageColumnLen = 65535

// stampLayout is fixed width: nine fractional digits and a literal Z.
// Lexicographic order of formatted stamps equals chronological order.
const stampLayout = "2006-01-02T15:04:05.000000000Z"

// Representable stamp range. Outside it the year no longer has four digits
// and string order stops matching time order.
var (
	minStamp = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
	maxStamp = time.Date(9999, 12, 31, 23, 59, 59, 999_999_999, time.UTC)
)

// FormatStamp converts t to the text form stored in the stamp column.
// Times before year 0 or after year 9999 are clamped to the range ends, so
// window bounds such as time.Time{} or far future dates stay ordered.
func FormatStamp(t time.Time) string {
	t = t.UTC()
	if t.Before(minStamp) {
		t = minStamp
	} else if t.After(maxStamp) {
		t = maxStamp
	}
	return t.Format(stampLayout)
}

// parseStamp parses a stored timestamp.
func parseStamp(s string) (time.Time, error) {
	t, err := time.Parse(stampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stamp: %w", err)
	}
	return t, nil
}

// marshalPayload serializes m for the message column and enforces the
// column bound.
func marshalPayload(m *message.Message) (string, error) {
	payload, err := message.Marshal(m)
	if err != nil {
		return "", err
	}
	if len(payload) > MessageColumnLen {
		return "", invalidArgument("serialized message is %d bytes, limit is %d", len(payload), MessageColumnLen)
	}
	return payload, nil
}

// unmarshalRecord decodes one stored row into a message carrying its archive
// id and storage time.
func unmarshalRecord(id int64, stamp, payload string) (*message.Message, error) {
	storedAt, err := parseStamp(stamp)
	if err != nil {
		return nil, &MalformedRecordError{ID: id, Stamp: stamp, Raw: payload, Err: err}
	}
	m, err := message.Unmarshal(payload)
	if err != nil {
		return nil, &MalformedRecordError{ID: id, Stamp: stamp, Raw: payload, Err: err}
	}
	m.ArchiveID = id
	m.ArchivedAt = storedAt
	return m, nil
}
