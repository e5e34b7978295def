package geo

import "sync"

// TrackBuffer smooths the ground-track heading over a rolling window of GPS
// fixes. Individual fixes wander too much to steer by; the bearing from the
// oldest to the newest fix in the window is stable enough for the live
// recorder to report.
type TrackBuffer struct {
	mu     sync.Mutex
	fixes  []Point
	window int
}

// NewTrackBuffer creates a buffer holding at most window fixes. A window
// below 2 cannot produce a bearing and is raised to 2.
func NewTrackBuffer(window int) *TrackBuffer {
	if window < 2 {
		window = 2
	}
	return &TrackBuffer{
		fixes:  make([]Point, 0, window),
		window: window,
	}
}

// Push records a fix and returns the smoothed track bearing. Until a second
// fix arrives there is no track to measure, so fallback is returned.
func (b *TrackBuffer) Push(p Point, fallback float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fixes = append(b.fixes, p)
	if n := len(b.fixes); n > b.window {
		b.fixes = b.fixes[n-b.window:]
	}

	if len(b.fixes) < 2 {
		return fallback
	}
	return Bearing(b.fixes[0], b.fixes[len(b.fixes)-1])
}

// Reset drops the recorded fixes, for session restarts.
func (b *TrackBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fixes = b.fixes[:0]
}
