package content

import (
	"sync"
	"time"
)

// DoubleTapWindow is the longest gap between two taps that still counts as a
// double tap.
const DoubleTapWindow = 300 * time.Millisecond

// DoubleTap turns two taps on the same post within DoubleTapWindow into a
// like. It never unlikes, and it leaves already liked posts alone.
type DoubleTap struct {
	store  *Store
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewDoubleTap returns a gesture detector that likes posts in store.
func NewDoubleTap(store *Store) *DoubleTap {
	return &DoubleTap{
		store:  store,
		window: DoubleTapWindow,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

// Tap records a tap on postID and reports whether it completed a double tap
// that liked the post.
func (d *DoubleTap) Tap(postID string) (bool, error) {
	now := d.now()

	d.mu.Lock()
	prev, seen := d.last[postID]
	double := seen && now.Sub(prev) <= d.window
	if double {
		delete(d.last, postID)
	} else {
		d.last[postID] = now
	}
	d.mu.Unlock()

	if !double {
		return false, nil
	}

	post, err := d.store.Post(postID)
	if err != nil {
		return false, err
	}
	if post.HasLiked {
		return false, nil
	}
	if _, err := d.store.Like(postID); err != nil {
		return false, err
	}
	return true, nil
}
