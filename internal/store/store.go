package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beamline-io/dataweb/internal/model"
)

// Entry is the latest poll result for one instrument: either a snapshot
// or the error that replaced it. Entries are overwritten wholesale each
// cycle; readers always see one or the other, never a mix.
type Entry struct {
	Snapshot  *model.Snapshot
	Err       error
	Target    string // host:port the poll went to
	FetchedAt time.Time
	CycleID   string
}

// Ok reports whether the entry holds a usable snapshot.
func (e Entry) Ok() bool {
	return e.Err == nil && e.Snapshot != nil
}

// Store keeps the current entry per instrument. It is the only shared
// mutable state between the pollers and the web handlers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	names   []string
}

// New creates a store for the given instruments. The name order is kept
// for listing, so pages follow the configured fleet order.
func New(names []string) *Store {
	ordered := make([]string, len(names))
	copy(ordered, names)
	return &Store{
		entries: make(map[string]Entry, len(names)),
		names:   ordered,
	}
}

// SetSnapshot records a successful poll.
func (s *Store) SetSnapshot(name, target string, snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = Entry{
		Snapshot:  snap,
		Target:    target,
		FetchedAt: time.Now().UTC(),
		CycleID:   uuid.New().String(),
	}
}

// SetError records a failed poll, superseding any previous snapshot.
func (s *Store) SetError(name, target string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = Entry{
		Err:       err,
		Target:    target,
		FetchedAt: time.Now().UTC(),
		CycleID:   uuid.New().String(),
	}
}

// Get returns the current entry for an instrument. ok is false when the
// instrument is not known to this store.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		for _, n := range s.names {
			if n == name {
				// Known instrument, no poll completed yet.
				return Entry{}, true
			}
		}
		return Entry{}, false
	}
	return e, true
}

// Names lists the configured instruments in their configured order.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// ActiveMap reports, per instrument, whether the last poll produced a
// snapshot.
func (s *Store) ActiveMap() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make(map[string]bool, len(s.names))
	for _, name := range s.names {
		active[name] = s.entries[name].Ok()
	}
	return active
}

// LastFetch returns the most recent fetch time across all instruments.
// Zero when nothing has been polled yet.
func (s *Store) LastFetch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last time.Time
	for _, e := range s.entries {
		if e.FetchedAt.After(last) {
			last = e.FetchedAt
		}
	}
	return last
}
