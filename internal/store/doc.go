// Package store provides SQLite-backed storage for the chat message archive.
//
// Messages are filed under a pair key derived from the bare addresses of the
// two participants (see jid.PairKey), so one conversation has one history
// regardless of direction. The store offers:
//   - SaveMessages: filters content-less messages, stamps the rest and
//     inserts them as one transaction
//   - GetMessages: time window read
//   - GetMessagesBefore: cursor read by archive id
//   - RemoveMessages: purge of one conversation
//   - SetLogging / IsLogging: per-pair opt-out of archiving
//
// # Pagination
//
// Both reads use most-recent-first truncation with chronological
// presentation: rows are selected newest first, cut to count, then returned
// oldest first. When a window holds more rows than count, the latest count
// rows are returned, not the earliest. To page backwards with
// GetMessagesBefore, pass the smallest ArchiveID of the previous page.
//
// # Logging switches
//
// The set of pairs with logging disabled lives in jabber_archive_switch and
// is mirrored by an in-memory SwitchCache so IsLogging never touches the
// database. The cache is loaded when the store is opened and updated on every
// SetLogging after the database write succeeds.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Storage timestamps are fixed-width UTC text, so comparing them as strings
// orders them in time.
package store
