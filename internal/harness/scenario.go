package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/message"
)

// Step operations.
const (
	OpSave       = "save"
	OpSetLogging = "set_logging"
	OpIsLogging  = "is_logging"
	OpHistory    = "history"
	OpPage       = "page"
	OpPurge      = "purge"
	OpCount      = "count"
	OpInsertRaw  = "insert_raw"
)

// Scenario defines an archive scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against one fresh archive.
	Steps []Step `yaml:"steps"`
}

// Step is one archive operation.
type Step struct {
	// Op is one of the Op constants.
	Op string `yaml:"op"`

	// From and To address the conversation. Left empty on purpose to
	// exercise argument validation.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Messages are archived by save.
	Messages []MessageSpec `yaml:"messages,omitempty"`

	// Enabled is the switch value for set_logging.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Start and End bound a history read (RFC 3339). Empty means unbounded.
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`

	// Before is the exclusive cursor for page. 0 means newest.
	Before int64 `yaml:"before,omitempty"`

	// Count limits history and page reads. 0 means unlimited.
	Count int `yaml:"count,omitempty"`

	// Raw is the payload written by insert_raw.
	Raw string `yaml:"raw,omitempty"`

	// Expect is checked against the step outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// MessageSpec describes a message to save.
type MessageSpec struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Body    string `yaml:"body,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Thread  string `yaml:"thread,omitempty"`
	HTML    string `yaml:"html,omitempty"`
}

// Message builds the described message.
func (m MessageSpec) Message() *message.Message {
	msg := &message.Message{
		From:    jid.JID(m.From),
		To:      jid.JID(m.To),
		Type:    "chat",
		Body:    m.Body,
		Subject: m.Subject,
		Thread:  m.Thread,
	}
	if m.HTML != "" {
		msg.HTML = &message.HTML{Content: m.HTML}
	}
	return msg
}

// Expect specifies the expected outcome of a step. Unset fields are not
// checked.
type Expect struct {
	// Bodies are the expected message bodies of a read, in order.
	// Use an explicit empty list to expect no messages.
	Bodies []string `yaml:"bodies,omitempty"`

	// IDs are the expected archive ids of a read, in order.
	IDs []int64 `yaml:"ids,omitempty"`

	// Count is the expected count result or number of messages read.
	Count *int `yaml:"count,omitempty"`

	// Logging is the expected is_logging result.
	Logging *bool `yaml:"logging,omitempty"`

	// Error is the expected error class. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step) error {
	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpSave:
		if len(st.Messages) == 0 {
			return fmt.Errorf("steps[%d]: messages list is required for save", index)
		}
	case OpSetLogging:
		if st.Enabled == nil {
			return fmt.Errorf("steps[%d]: enabled is required for set_logging", index)
		}
	case OpHistory:
		for _, ts := range []string{st.Start, st.End} {
			if ts == "" {
				continue
			}
			if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
				return fmt.Errorf("steps[%d]: invalid time %q: %w", index, ts, err)
			}
		}
	case OpInsertRaw:
		if st.From == "" || st.To == "" {
			return fmt.Errorf("steps[%d]: from and to are required for insert_raw", index)
		}
	case OpIsLogging, OpPage, OpPurge, OpCount:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.Expect != nil {
		switch st.Expect.Error {
		case "", ErrClassInvalidArgument, ErrClassMalformedRecord, ErrClassStorage:
		default:
			return fmt.Errorf("steps[%d].expect: unknown error class %q", index, st.Expect.Error)
		}
	}

	return nil
}
