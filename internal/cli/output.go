package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/roach88/jarchive/internal/message"
	"github.com/roach88/jarchive/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure
	ExitCommandError = 2 // Command error (bad address, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode maps an error to the code reported in JSON error responses.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, store.ErrInvalidArgument):
		return "E001"
	case store.IsMalformedRecord(err):
		return "E002"
	case GetExitCode(err) == ExitCommandError:
		return "E003"
	default:
		return "E100"
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// MessageView is an archived message as printed by read commands.
type MessageView struct {
	ID         int64  `json:"id"`
	ArchivedAt string `json:"archived_at"`
	From       string `json:"from"`
	To         string `json:"to"`
	Type       string `json:"type,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
	Thread     string `json:"thread,omitempty"`
	Sent       string `json:"sent,omitempty"`
}

// ReadResult is the output of history and page.
type ReadResult struct {
	Pair     string        `json:"pair"`
	Messages []MessageView `json:"messages"`
	Count    int           `json:"count"`

	// NextBefore is the cursor for the next older page. Zero when the
	// result is empty.
	NextBefore int64 `json:"next_before,omitempty"`
}

func newReadResult(pair string, msgs []*message.Message) ReadResult {
	result := ReadResult{
		Pair:     pair,
		Messages: make([]MessageView, 0, len(msgs)),
		Count:    len(msgs),
	}
	for _, m := range msgs {
		view := MessageView{
			ID:         m.ArchiveID,
			ArchivedAt: m.ArchivedAt.Format(time.RFC3339Nano),
			From:       m.From.String(),
			To:         m.To.String(),
			Type:       m.Type,
			Subject:    m.Subject,
			Body:       m.Body,
			Thread:     m.Thread,
		}
		if m.Delay != nil {
			view.Sent = m.Delay.Stamp.Format(time.RFC3339Nano)
		}
		result.Messages = append(result.Messages, view)
	}
	if len(msgs) > 0 {
		result.NextBefore = msgs[0].ArchiveID
	}
	return result
}

// outputRead writes a read result in the configured format.
func outputRead(f *OutputFormatter, result ReadResult) error {
	if f.Format == "json" {
		return f.Success(result)
	}

	w := f.Writer
	if result.Count == 0 {
		fmt.Fprintf(w, "No messages for %s.\n", result.Pair)
		return nil
	}

	fmt.Fprintf(w, "%s (%d messages)\n", result.Pair, result.Count)
	for _, m := range result.Messages {
		fmt.Fprintf(w, "  [%d] %s %s -> %s", m.ID, m.ArchivedAt, m.From, m.To)
		if m.Subject != "" {
			fmt.Fprintf(w, " (%s)", m.Subject)
		}
		fmt.Fprintf(w, ": %s\n", m.Body)
	}
	fmt.Fprintf(w, "Next page: --before %d\n", result.NextBefore)
	return nil
}
