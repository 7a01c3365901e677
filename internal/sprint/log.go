package sprint

import (
	"sync"
	"time"
)

// InteractionLog is the append-only record of every request issued to a
// role and every artifact it returned. Appends are serialized so log
// ordering reflects completion order; when instances of a role group
// race, the controller merges their output in instance index order
// before appending, which keeps the observable ordering deterministic.
type InteractionLog struct {
	mu      sync.Mutex
	entries []InteractionLogEntry
}

// NewInteractionLog creates an empty log.
func NewInteractionLog() *InteractionLog {
	return &InteractionLog{}
}

// Append adds one entry, stamping the append time if unset.
func (l *InteractionLog) Append(entry InteractionLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.entries = append(l.entries, entry)
}

// Len returns the number of entries.
func (l *InteractionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshot returns a copy of all entries in append order.
func (l *InteractionLog) Snapshot() []InteractionLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]InteractionLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
