// Package history keeps the recent questions of each dashboard session:
// de-duplicated, most recent first, capped at Capacity entries.
package history

import (
	"context"
	"strings"

	"github.com/querylens/querylens/internal/utils"
)

// Capacity is the maximum number of questions kept per session.
const Capacity = utils.HistoryCapacity

// Store persists per-session question history.
type Store interface {
	// Add records a question as the most recent entry. A question already in
	// the history moves to the front instead of appearing twice. Blank
	// questions are ignored.
	Add(ctx context.Context, sessionID, question string) error

	// List returns the history, most recent first.
	List(ctx context.Context, sessionID string) ([]string, error)

	// Clear drops the session's history.
	Clear(ctx context.Context, sessionID string) error

	// Close releases the store's resources.
	Close() error
}

func normalize(question string) string {
	return strings.TrimSpace(question)
}

// Ring is a fixed-capacity ring buffer of distinct strings ordered from most
// to least recent. Pushing into a full ring overwrites the oldest entry. It
// is not safe for concurrent use.
type Ring struct {
	buf  []string
	head int // slot of the most recent entry
	n    int
}

// NewRing creates a ring holding up to capacity entries.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]string, capacity)}
}

func (r *Ring) slot(i int) int {
	return (r.head + i) % len(r.buf)
}

// Push makes s the most recent entry.
func (r *Ring) Push(s string) {
	if i := r.indexOf(s); i >= 0 {
		r.removeAt(i)
	}
	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	r.buf[r.head] = s
	if r.n < len(r.buf) {
		r.n++
	}
}

func (r *Ring) indexOf(s string) int {
	for i := 0; i < r.n; i++ {
		if r.buf[r.slot(i)] == s {
			return i
		}
	}
	return -1
}

// removeAt closes the gap left by entry i by shifting the newer entries one
// step toward the tail.
func (r *Ring) removeAt(i int) {
	for j := i; j > 0; j-- {
		r.buf[r.slot(j)] = r.buf[r.slot(j-1)]
	}
	r.buf[r.head] = ""
	r.head = (r.head + 1) % len(r.buf)
	r.n--
}

// Items returns the entries, most recent first.
func (r *Ring) Items() []string {
	out := make([]string, r.n)
	for i := range out {
		out[i] = r.buf[r.slot(i)]
	}
	return out
}

// Len returns the number of entries.
func (r *Ring) Len() int {
	return r.n
}

// Reset empties the ring.
func (r *Ring) Reset() {
	clear(r.buf)
	r.head, r.n = 0, 0
}
