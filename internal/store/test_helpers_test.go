package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/message"
	"github.com/roach88/jarchive/internal/testutil"
)

const (
	alice = jid.JID("alice@example.com/home")
	bob   = jid.JID("bob@example.com/work")
	carol = jid.JID("carol@example.com")
)

// testEpoch is the first instant of every test clock.
var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new temp-dir store with a one-second step clock.
func createTestStore(t *testing.T) (*Store, *testutil.StepClock) {
	t.Helper()
	clock := testutil.NewStepClock(testEpoch, time.Second)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path, WithClock(clock))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// chat builds a message with a body.
func chat(from, to jid.JID, body string) *message.Message {
	return &message.Message{From: from, To: to, Type: "chat", Body: body}
}

// saveEach archives one message per call, so each gets its own batch.
func saveEach(t *testing.T, s *Store, msgs ...*message.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := s.SaveMessages(context.Background(), []*message.Message{m}); err != nil {
			t.Fatalf("SaveMessages() failed: %v", err)
		}
	}
}

// bodies extracts message bodies in order.
func bodies(msgs []*message.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Body
	}
	return out
}
