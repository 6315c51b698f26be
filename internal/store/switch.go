package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/jarchive/internal/jid"
)

// SwitchCache mirrors the set of pair keys with logging disabled.
//
// An entry's presence is the whole signal: a key in the cache means logging
// is off for that pair. The stored value is always false.
//
// Thread-safety: SwitchCache is safe for concurrent use. A Disable that has
// returned is visible to every later Disabled call from any goroutine.
type SwitchCache struct {
	mu       sync.RWMutex
	disabled map[string]bool
	closed   bool
}

// NewSwitchCache creates an empty cache.
func NewSwitchCache() *SwitchCache {
	return &SwitchCache{disabled: make(map[string]bool)}
}

// Load replaces the cache contents with keys.
func (c *SwitchCache) Load(keys []string) {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.disabled = m
}

// Disable marks key as not logged.
func (c *SwitchCache) Disable(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.disabled[key] = false
}

// Enable removes key from the cache.
func (c *SwitchCache) Enable(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.disabled, key)
}

// Disabled reports whether logging is off for key.
func (c *SwitchCache) Disabled(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.disabled[key]
	return ok
}

// Len returns the number of disabled pairs.
func (c *SwitchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.disabled)
}

// Close drops all entries. Later Load and Disable calls are ignored.
func (c *SwitchCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.disabled = map[string]bool{}
}

// SetLogging turns archiving of the conversation between from and to on or
// off. The database is written first; the cache follows only on success.
// Enabling an already enabled pair is a no-op.
func (s *Store) SetLogging(ctx context.Context, from, to jid.JID, enabled bool) error {
	if err := requirePair(from, to); err != nil {
		return err
	}

	key := jid.PairKey(from, to)
	if enabled {
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM jabber_archive_switch WHERE id = ?
		`, key); err != nil {
			return fmt.Errorf("enable logging: %w", err)
		}
		s.switches.Enable(key)
	} else {
		if _, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO jabber_archive_switch (id) VALUES (?)
		`, key); err != nil {
			return fmt.Errorf("disable logging: %w", err)
		}
		s.switches.Disable(key)
	}

	s.logger.Debug("logging switch set", "pair", key, "enabled", enabled)
	return nil
}

// IsLogging reports whether messages between from and to are archived.
// Answers from memory only.
func (s *Store) IsLogging(from, to jid.JID) (bool, error) {
	if err := requirePair(from, to); err != nil {
		return false, err
	}
	return !s.switches.Disabled(jid.PairKey(from, to)), nil
}

// ReloadSwitches replaces the cache contents with the switch table.
func (s *Store) ReloadSwitches(ctx context.Context) error {
	keys, err := s.ReadSwitchKeys(ctx)
	if err != nil {
		return err
	}
	s.switches.Load(keys)
	return nil
}

// ReadSwitchKeys returns the persisted pair keys with logging disabled,
// ordered by key.
func (s *Store) ReadSwitchKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM jabber_archive_switch ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query logging switches: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan logging switch: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logging switches: %w", err)
	}

	return keys, nil
}

// requirePair rejects an absent address.
func requirePair(from, to jid.JID) error {
	if from.IsZero() {
		return invalidArgument("from address is required")
	}
	if to.IsZero() {
		return invalidArgument("to address is required")
	}
	return nil
}
