package track

import (
	"math"
	"time"
)

// AtProgress maps a normalized scrubber position in [0, 1] to the sample
// whose timestamp is closest to the time linearly interpolated between the
// track's first and last timestamps. If fewer than 2 samples carry
// timestamps it falls back to a proportional index. Returns the index of the
// chosen sample, or -1 for an empty track.
func AtProgress(points []PointSample, progress float64) int {
	if len(points) == 0 {
		return -1
	}
	progress = math.Min(1, math.Max(0, progress))

	first, last, timed := timeSpan(points)
	if timed < 2 {
		return int(math.Round(progress * float64(len(points)-1)))
	}

	target := first.Add(time.Duration(progress * float64(last.Sub(first))))

	best := -1
	bestDelta := time.Duration(math.MaxInt64)
	for i, p := range points {
		if p.Time == nil {
			continue
		}
		delta := p.Time.Sub(target)
		if delta < 0 {
			delta = -delta
		}
		if delta < bestDelta {
			bestDelta = delta
			best = i
		}
	}
	return best
}

// timeSpan finds the first and last timestamps in recording order and counts
// how many samples are timestamped.
func timeSpan(points []PointSample) (first, last time.Time, timed int) {
	for _, p := range points {
		if p.Time == nil {
			continue
		}
		if timed == 0 {
			first = *p.Time
		}
		last = *p.Time
		timed++
	}
	return first, last, timed
}
