package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jarchive/internal/jid"
	"github.com/roach88/jarchive/internal/store"
)

const conversationXML = `<stream>
<message from="alice@example.com/home" to="bob@example.com" type="chat"><body>one</body></message>
<message from="bob@example.com" to="alice@example.com/home" type="chat"><body>two</body></message>
<message from="alice@example.com/home" to="bob@example.com" type="chat"><active xmlns="http://jabber.org/protocol/chatstates"/></message>
<message from="alice@example.com/home" to="bob@example.com" type="chat"><subject>plans</subject><body>three</body></message>
</stream>`

// setupArchive saves conversationXML into a fresh database and returns its path.
func setupArchive(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archive.db")
	xmlPath := filepath.Join(dir, "messages.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(conversationXML), 0644))

	out, err := runCLI(t, "--db", dbPath, "save", xmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 3 of 4 messages (1 skipped, 0 unlogged).")
	return dbPath
}

// decodeRead parses a JSON read response.
func decodeRead(t *testing.T, out string) ReadResult {
	t.Helper()
	var resp struct {
		Status string     `json:"status"`
		Data   ReadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func bodiesOf(r ReadResult) []string {
	out := make([]string, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = m.Body
	}
	return out
}

func TestSave_Stdin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	out := &strings.Builder{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&strings.Builder{})
	cmd.SetIn(strings.NewReader(conversationXML))
	cmd.SetArgs([]string{"--db", dbPath, "--format", "json", "save"})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string     `json:"status"`
		Data   SaveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.String()), &resp))
	assert.NotEmpty(t, resp.Data.Batch)
	resp.Data.Batch = ""
	assert.Equal(t, SaveResult{Read: 4, Archived: 3, Skipped: 1}, resp.Data)
}

func TestSave_AddressesMatchFlagAddresses(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archive.db")
	xmlPath := filepath.Join(dir, "messages.xml")
	// Decomposed accent and padding in the stanza, composed form on the flags.
	xml := "<message from=\" jose\u0301@example.com/home \" to=\"bob@example.com\"><body>hola</body></message>"
	require.NoError(t, os.WriteFile(xmlPath, []byte(xml), 0644))

	_, err := runCLI(t, "--db", dbPath, "save", xmlPath)
	require.NoError(t, err)

	out, err := runCLI(t, "--db", dbPath, "--format", "json",
		"page", "--from", "jos\u00e9@example.com", "--to", "bob@example.com")
	require.NoError(t, err)
	result := decodeRead(t, out)
	assert.Equal(t, "bob@example.com|jos\u00e9@example.com", result.Pair)
	assert.Equal(t, []string{"hola"}, bodiesOf(result))
	assert.Equal(t, "jos\u00e9@example.com/home", result.Messages[0].From)

	_, err = runCLI(t, "--db", dbPath, "logging",
		"--from", "jos\u00e9@example.com", "--to", "bob@example.com", "--disable")
	require.NoError(t, err)

	out, err = runCLI(t, "--db", dbPath, "save", xmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 0 of 1 messages (0 skipped, 1 unlogged).")
}

func TestSave_InvalidStanzaAddress(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(`<message from="x y@z" to="bob@example.com"><body>hi</body></message>`), 0644))

	_, err := runCLI(t, "--db", filepath.Join(dir, "archive.db"), "save", xmlPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, jid.ErrInvalid)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSave_MissingFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	_, err := runCLI(t, "--db", dbPath, "save", "/nonexistent/messages.xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSave_MalformedXML(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(`<message><body>open`), 0644))

	_, err := runCLI(t, "--db", filepath.Join(dir, "archive.db"), "save", xmlPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read messages")
}

func TestSave_MissingAddress(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "noto.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(`<message from="alice@example.com"><body>hi</body></message>`), 0644))

	_, err := runCLI(t, "--db", filepath.Join(dir, "archive.db"), "save", xmlPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSave_RespectsLoggingSwitch(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archive.db")
	xmlPath := filepath.Join(dir, "messages.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(conversationXML), 0644))

	_, err := runCLI(t, "--db", dbPath, "logging", "--from", "bob@example.com", "--to", "alice@example.com", "--disable")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", dbPath, "save", xmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 0 of 4 messages (1 skipped, 3 unlogged).")

	out, err = runCLI(t, "--db", dbPath, "save", "--ignore-switch", xmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 3 of 4 messages (1 skipped, 0 unlogged).")
}

func TestHistory(t *testing.T) {
	dbPath := setupArchive(t)

	out, err := runCLI(t, "--db", dbPath, "--format", "json",
		"history", "--from", "bob@example.com/phone", "--to", "alice@example.com")
	require.NoError(t, err)

	result := decodeRead(t, out)
	assert.Equal(t, "alice@example.com|bob@example.com", result.Pair)
	assert.Equal(t, []string{"one", "two", "three"}, bodiesOf(result))
	assert.Equal(t, "plans", result.Messages[2].Subject)
	assert.NotEmpty(t, result.Messages[0].Sent)
}

func TestHistory_CountKeepsNewest(t *testing.T) {
	dbPath := setupArchive(t)

	out, err := runCLI(t, "--db", dbPath, "--format", "json",
		"history", "--from", "alice@example.com", "--to", "bob@example.com", "--count", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "three"}, bodiesOf(decodeRead(t, out)))
}

func TestHistory_WindowExcludesEverything(t *testing.T) {
	dbPath := setupArchive(t)

	out, err := runCLI(t, "--db", dbPath,
		"history", "--from", "alice@example.com", "--to", "bob@example.com",
		"--start", "2000-01-01T00:00:00Z", "--end", "2000-01-02T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages for alice@example.com|bob@example.com.")
}

func TestHistory_InvalidWindow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	_, err := runCLI(t, "--db", dbPath,
		"history", "--from", "alice@example.com", "--to", "bob@example.com", "--start", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --start")

	_, err = runCLI(t, "--db", dbPath,
		"history", "--from", "alice@example.com", "--to", "bob@example.com",
		"--start", "2024-03-02T00:00:00Z", "--end", "2024-03-01T00:00:00Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--end is before --start")
}

func TestHistory_CorruptRecord(t *testing.T) {
	dbPath := setupArchive(t)

	st, err := store.Open(context.Background(), dbPath)
	require.NoError(t, err)
	_, err = st.DB().Exec(
		"INSERT INTO jabber_archive (jid, stamp, message) VALUES (?, ?, ?)",
		"alice@example.com|bob@example.com", "2024-03-01T12:00:00.000000000Z", "<message",
	)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = runCLI(t, "--db", dbPath,
		"page", "--from", "alice@example.com", "--to", "bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive record 4 is corrupt")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestPage_WalksBackwards(t *testing.T) {
	dbPath := setupArchive(t)

	var pages [][]string
	before := int64(0)
	for i := 0; i < 5; i++ {
		out, err := runCLI(t, "--db", dbPath, "--format", "json",
			"page", "--from", "alice@example.com", "--to", "bob@example.com",
			"--count", "2", "--before", strconv.FormatInt(before, 10))
		require.NoError(t, err)

		result := decodeRead(t, out)
		if result.Count == 0 {
			break
		}
		pages = append(pages, bodiesOf(result))
		before = result.NextBefore
	}

	assert.Equal(t, [][]string{{"two", "three"}, {"one"}}, pages)
}

func TestPage_Text(t *testing.T) {
	dbPath := setupArchive(t)

	out, err := runCLI(t, "--db", dbPath,
		"page", "--from", "alice@example.com", "--to", "bob@example.com", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com|bob@example.com (1 messages)")
	assert.Contains(t, out, "(plans): three")
	assert.Contains(t, out, "Next page: --before 3")
}

func TestPurge(t *testing.T) {
	dbPath := setupArchive(t)

	_, err := runCLI(t, "--db", dbPath, "logging", "--from", "alice@example.com", "--to", "bob@example.com", "--disable")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", dbPath, "--format", "json",
		"purge", "--from", "bob@example.com", "--to", "alice@example.com")
	require.NoError(t, err)
	var resp struct {
		Data PurgeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, PurgeResult{Pair: "alice@example.com|bob@example.com", Removed: 3}, resp.Data)

	out, err = runCLI(t, "--db", dbPath, "page", "--from", "alice@example.com", "--to", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages")

	// Purge leaves the switch alone.
	out, err = runCLI(t, "--db", dbPath, "logging", "--from", "alice@example.com", "--to", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logging disabled")
}

func TestLogging_Toggle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	args := []string{"--db", dbPath, "--format", "json", "logging", "--from", "alice@example.com/home", "--to", "bob@example.com"}

	decode := func(out string) LoggingResult {
		var resp struct {
			Data LoggingResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data
	}

	out, err := runCLI(t, args...)
	require.NoError(t, err)
	assert.True(t, decode(out).Logging)

	out, err = runCLI(t, append(args, "--disable")...)
	require.NoError(t, err)
	assert.False(t, decode(out).Logging)

	// A new process sees the persisted switch.
	out, err = runCLI(t, args...)
	require.NoError(t, err)
	assert.False(t, decode(out).Logging)

	out, err = runCLI(t, append(args, "--enable")...)
	require.NoError(t, err)
	assert.True(t, decode(out).Logging)
}

func TestLogging_EnableAndDisableExclusive(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	_, err := runCLI(t, "--db", dbPath, "logging",
		"--from", "alice@example.com", "--to", "bob@example.com", "--enable", "--disable")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

const passingScenario = `
name: cli_passing
description: "two messages, one page"
steps:
  - op: save
    messages:
      - { from: alice@example.com, to: bob@example.com, body: one }
      - { from: bob@example.com, to: alice@example.com, body: two }
  - op: page
    from: alice@example.com
    to: bob@example.com
    expect:
      bodies: [one, two]
`

const failingScenario = `
name: cli_failing
description: "expects a message that was never saved"
steps:
  - op: count
    from: alice@example.com
    to: bob@example.com
    expect:
      count: 1
`

func TestScenario_PassAndFail(t *testing.T) {
	dir := t.TempDir()
	pass := filepath.Join(dir, "pass.yaml")
	fail := filepath.Join(dir, "fail.yaml")
	require.NoError(t, os.WriteFile(pass, []byte(passingScenario), 0644))
	require.NoError(t, os.WriteFile(fail, []byte(failingScenario), 0644))

	out, err := runCLI(t, "scenario", pass)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ cli_passing")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = runCLI(t, "scenario", pass, fail)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ cli_failing")
	assert.Contains(t, out, "count = 0, want 1")
}

func TestScenario_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.yaml")
	require.NoError(t, os.WriteFile(path, []byte(passingScenario), 0644))

	out, err := runCLI(t, "--format", "json", "scenario", path)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   ScenarioRunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Total)
}

func TestScenario_Golden(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pass.yaml")
	require.NoError(t, os.WriteFile(path, []byte(passingScenario), 0644))

	_, err := runCLI(t, "scenario", "--update", path)
	require.NoError(t, err)

	goldenPath := filepath.Join(dir, "golden", "cli_passing.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "cli_passing"`)

	_, err = runCLI(t, "scenario", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err := runCLI(t, "scenario", path)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match")
}

func TestScenario_Errors(t *testing.T) {
	_, err := runCLI(t, "scenario")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")

	_, err = runCLI(t, "scenario", "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\n"), 0644))
	out, err := runCLI(t, "scenario", bad)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}
