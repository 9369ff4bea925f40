package security

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// FixedWindow is an in-memory fixed-window rate limiter keyed by an
// action name and a client address. When a window's span elapses the
// counter resets; until then attempts past the limit are rejected.
type FixedWindow struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewFixedWindow() *FixedWindow {
	return &FixedWindow{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Limited records an attempt for (action, addr) and reports whether it
// exceeds limit attempts within span.
func (f *FixedWindow) Limited(action, addr string, limit int, span time.Duration) bool {
	key := action + "|" + addr
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	w, ok := f.windows[key]
	if !ok || now.Sub(w.start) > span {
		f.windows[key] = &window{count: 1, start: now}
		return false
	}
	w.count++
	return w.count > limit
}

// Reset clears the window for (action, addr), typically after a
// successful attempt.
func (f *FixedWindow) Reset(action, addr string) {
	f.mu.Lock()
	delete(f.windows, action+"|"+addr)
	f.mu.Unlock()
}
