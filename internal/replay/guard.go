// Package replay implements the clock and replay guard: it validates message
// timestamps against a tolerance window and remembers message ids seen within
// that window so a captured message cannot be presented twice.
package replay

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/moltid/authcore/internal/authz"
)

// DefaultWindow is the default replay tolerance window.
const DefaultWindow = 300 * time.Second

// DefaultMaxEntries bounds the seen-message set. Entries expire after one
// window regardless, so this cap only matters under traffic bursts larger
// than the window can hold.
const DefaultMaxEntries = 1 << 20

// Guard validates timestamps and tracks seen message ids. Safe for
// concurrent use: a Guard-level mutex spans the duplicate check and the
// insertion, so of two concurrent presentations of the same id exactly one
// is accepted.
type Guard struct {
	window time.Duration

	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

// NewGuard creates a replay guard. A non-positive window falls back to
// DefaultWindow; a non-positive maxEntries falls back to DefaultMaxEntries.
func NewGuard(window time.Duration, maxEntries int) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Guard{
		window: window,
		seen:   expirable.NewLRU[string, struct{}](maxEntries, nil, window),
	}
}

// Window returns the configured tolerance window.
func (g *Guard) Window() time.Duration {
	return g.window
}

// Check validates a message timestamp against the tolerance window and
// rejects duplicate message ids. On acceptance the id is remembered until it
// ages out of the window, which bounds memory to one window of traffic.
//
// A message replayed after its id has been purged is still rejected: its
// timestamp now falls outside the window.
func (g *Guard) Check(messageID string, timestamp, now time.Time) error {
	diff := now.Sub(timestamp)
	if diff < 0 {
		diff = -diff
	}
	if diff > g.window {
		return authz.ErrTimestampOutOfRange
	}

	// The cache's own locking covers Get and Add individually, not the
	// pair; without the outer lock two concurrent presentations of the
	// same id could both miss the lookup and both be accepted.
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.seen.Get(messageID); dup {
		return authz.ErrReplayDetected
	}
	g.seen.Add(messageID, struct{}{})
	return nil
}

// Len returns the current number of remembered message ids. Exposed for
// metrics and tests.
func (g *Guard) Len() int {
	return g.seen.Len()
}
