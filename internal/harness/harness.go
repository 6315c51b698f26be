package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/message"
	"github.com/roach88/jarchive/internal/store"
	"github.com/roach88/jarchive/internal/testutil"
)

// Unbounded history window.
var (
	windowStart = time.Time{}
	windowEnd   = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// Harness executes scenario steps against one archive.
type Harness struct {
	store  *store.Store
	clock  *testutil.StepClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database whose clock starts at
// testutil.DefaultEpoch and advances one second per read, so archive ids and
// storage stamps are reproducible.
//
// A returned error means the harness itself could not run; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	// Scenarios built in code skip ParseScenario.
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	clock := testutil.NewStepClock(time.Time{}, time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:", store.WithClock(clock), store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, clock: clock, logger: logger}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, i, step)
		if err != nil {
			event.Error = classify(err)
		}
		result.AddEvent(event)

		for _, msg := range checkExpect(i, step, event, err) {
			result.AddError(msg)
		}
	}

	return result, nil
}

// executeStep runs one step and returns its trace event. The event is
// populated as far as the step got before failing.
func (h *Harness) executeStep(ctx context.Context, index int, step Step) (TraceEvent, error) {
	from, to := jid.JID(step.From), jid.JID(step.To)
	event := TraceEvent{Step: index, Op: step.Op}
	if !from.IsZero() && !to.IsZero() {
		event.Pair = jid.PairKey(from, to)
	}

	switch step.Op {
	case OpSave:
		msgs := make([]*message.Message, len(step.Messages))
		for i, ms := range step.Messages {
			msgs[i] = ms.Message()
			if msgs[i].HasContent() {
				event.Accepted++
			}
		}
		return event, h.store.SaveMessages(ctx, msgs)

	case OpSetLogging:
		if step.Enabled == nil {
			return event, fmt.Errorf("enabled is required for set_logging")
		}
		enabled := *step.Enabled
		event.Logging = &enabled
		return event, h.store.SetLogging(ctx, from, to, enabled)

	case OpIsLogging:
		logging, err := h.store.IsLogging(from, to)
		if err != nil {
			return event, err
		}
		event.Logging = &logging
		return event, nil

	case OpHistory:
		start, err := parseBound(step.Start, windowStart)
		if err != nil {
			return event, err
		}
		end, err := parseBound(step.End, windowEnd)
		if err != nil {
			return event, err
		}
		msgs, err := h.store.GetMessages(ctx, from, to, start, end, step.Count)
		if err != nil {
			return event, err
		}
		setMessages(&event, msgs)
		return event, nil

	case OpPage:
		before := step.Before
		if before == 0 {
			before = math.MaxInt64
		}
		msgs, err := h.store.GetMessagesBefore(ctx, from, to, before, step.Count)
		if err != nil {
			return event, err
		}
		setMessages(&event, msgs)
		return event, nil

	case OpPurge:
		return event, h.store.RemoveMessages(ctx, from, to)

	case OpCount:
		n, err := h.store.CountMessages(ctx, from, to)
		if err != nil {
			return event, err
		}
		event.Count = &n
		return event, nil

	case OpInsertRaw:
		_, err := h.store.DB().ExecContext(ctx,
			"INSERT INTO jabber_archive (jid, stamp, message) VALUES (?, ?, ?)",
			event.Pair, store.FormatStamp(h.clock.Now()), step.Raw,
		)
		return event, err

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}
}

// parseBound parses an RFC 3339 window bound, returning def for "".
func parseBound(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

// setMessages records a read result on event.
func setMessages(event *TraceEvent, msgs []*message.Message) {
	n := len(msgs)
	event.Count = &n
	for _, m := range msgs {
		event.Messages = append(event.Messages, newTraceMessage(m))
	}
}

// classify maps an archive error to its trace class.
func classify(err error) string {
	switch {
	case errors.Is(err, store.ErrInvalidArgument):
		return ErrClassInvalidArgument
	case store.IsMalformedRecord(err):
		return ErrClassMalformedRecord
	default:
		return ErrClassStorage
	}
}
