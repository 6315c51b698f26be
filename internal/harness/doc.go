// Package harness runs archive scenarios described in YAML.
//
// A scenario is a list of steps executed in order against a fresh in-memory
// archive with a deterministic step clock. Each step may carry an expect
// clause; the run records a trace of every step's observable outcome, which
// can be compared against a golden file.
//
// # Scenario Format
//
//	name: conversation_paging
//	description: "Cursor pages cover the whole history"
//	steps:
//	  - op: save
//	    messages:
//	      - { from: alice@example.com/home, to: bob@example.com, body: hello }
//	  - op: page
//	    from: alice@example.com
//	    to: bob@example.com
//	    count: 2
//	    expect:
//	      bodies: [hello]
//	  - op: set_logging
//	    from: alice@example.com
//	    to: bob@example.com
//	    enabled: false
//
// # Operations
//
//   - save: archive messages in one batch
//   - set_logging / is_logging: logging switch
//   - history: time window read (start/end RFC 3339, default unbounded)
//   - page: cursor read (before 0 means newest)
//   - purge: remove a conversation
//   - count: number of archived messages for a pair
//   - insert_raw: write a raw payload row, bypassing the writer
//
// # Golden Files
//
// RunWithGolden stores traces in testdata/golden/{name}.golden. To regenerate:
//
//	go test ./internal/harness -update
package harness
