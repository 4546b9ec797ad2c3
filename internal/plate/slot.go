package plate

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is one published JPEG together with its update time.
type Snapshot struct {
	JPEG    []byte
	Updated time.Time

	// Version increases by one on every Store, starting at 1.
	Version uint64
}

// Slot holds the latest JPEG for one session.
//
// There is a single writer (the session's Coordinator) and any number of
// readers. Bytes, timestamp and version are replaced together, so a reader
// never sees a timestamp paired with older bytes.
type Slot struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Snapshot]
	now func() time.Time
}

// NewSlot creates an empty slot.
func NewSlot() *Slot {
	return &Slot{now: time.Now}
}

// Store publishes new JPEG bytes. The timestamp is strictly later than the
// previous one even if the clock has not advanced.
func (s *Slot) Store(jpeg []byte) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.now().UTC()
	var version uint64 = 1
	if prev := s.cur.Load(); prev != nil {
		if !updated.After(prev.Updated) {
			updated = prev.Updated.Add(time.Nanosecond)
		}
		version = prev.Version + 1
	}

	snap := &Snapshot{JPEG: jpeg, Updated: updated, Version: version}
	s.cur.Store(snap)
	return *snap
}

// Load returns the current snapshot. ok is false before the first Store.
func (s *Slot) Load() (snap Snapshot, ok bool) {
	p := s.cur.Load()
	if p == nil {
		return Snapshot{}, false
	}
	return *p, true
}
