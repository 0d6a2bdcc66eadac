package game

import "sync"

// History is a fixed-capacity ring buffer of snapshots in insertion order.
// The recording path uses it to find the state that was on screen at a
// given presentation time. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []TimestampedState
	head    int
	count   int
}

// NewHistory creates a history holding at most capacity snapshots.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		entries: make([]TimestampedState, capacity),
	}
}

// Record appends a snapshot, evicting the oldest when full.
func (h *History) Record(ts int64, s GameState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	h.entries[h.head] = TimestampedState{Timestamp: ts, State: s}
	h.head = (h.head + 1) % n
	if h.count < n {
		h.count++
	}
}

// Lookup returns the snapshot whose timestamp is closest to ts. Ties go to
// the earlier entry. The second result is false when the history is empty.
func (h *History) Lookup(ts int64) (GameState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return GameState{}, false
	}
	n := len(h.entries)
	best := -1
	var bestDiff int64
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + n) % n
		d := h.entries[idx].Timestamp - ts
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDiff {
			best = idx
			bestDiff = d
		}
	}
	return h.entries[best].State, true
}

// Entries returns the buffered snapshots in chronological order (oldest first).
func (h *History) Entries() []TimestampedState {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	result := make([]TimestampedState, h.count)
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + n) % n
		result[i] = h.entries[idx]
	}
	return result
}

// Latest returns the newest entry.
func (h *History) Latest() (TimestampedState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return TimestampedState{}, false
	}
	n := len(h.entries)
	return h.entries[(h.head-1+n)%n], true
}

// Len returns the number of buffered snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Cap returns the fixed capacity.
func (h *History) Cap() int {
	return len(h.entries)
}

// Reset empties the buffer.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.entries)
	h.head = 0
	h.count = 0
}
