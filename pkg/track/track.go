// Package track compares recorded GPS tracks for after-action review: how
// closely the dog's path followed the laid trail, and how both relate to the
// predicted scent cone.
package track

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"scentline/pkg/geo"
)

// PointSample is one recorded GPS fix. Time and SpeedKmh are optional; GPX
// imports and manual recordings do not always carry them.
type PointSample struct {
	Lat      float64    `json:"lat"`
	Lon      float64    `json:"lon"`
	Time     *time.Time `json:"time,omitempty"`
	SpeedKmh *float64   `json:"speed_kmh,omitempty"`
}

// Point returns the sample's coordinate.
func (p PointSample) Point() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

// Metrics summarizes a dog track against a laid trail and a cone polygon.
type Metrics struct {
	MinSeparationM       float64 `json:"min_separation_m"`
	AvgSeparationM       float64 `json:"avg_separation_m"`
	MaxSeparationM       float64 `json:"max_separation_m"`
	P90SeparationM       float64 `json:"p90_separation_m"`
	DogInsideConePct     float64 `json:"dog_inside_cone_pct"`
	LaidTrackTransitions int     `json:"laid_track_transitions"`
}

// Compute derives the separation and cone-occupancy metrics. If either track
// is empty it returns the zero-valued Metrics rather than an error.
//
// The nearest-point search is brute force O(N*M); training-session tracks
// are at most a few thousand points, so this is fine.
func Compute(laid, dog []PointSample, cone []geo.Point) Metrics {
	if len(laid) == 0 || len(dog) == 0 {
		return Metrics{}
	}

	separations := make([]float64, 0, len(dog))
	insideCount := 0
	for _, d := range dog {
		nearest := math.MaxFloat64
		for _, l := range laid {
			if dist := geo.Distance(d.Point(), l.Point()); dist < nearest {
				nearest = dist
			}
		}
		separations = append(separations, nearest)

		if geo.PointInRing(d.Point(), cone) {
			insideCount++
		}
	}

	m := Metrics{
		MinSeparationM:   separations[0],
		MaxSeparationM:   separations[0],
		DogInsideConePct: 100 * float64(insideCount) / float64(len(dog)),
	}
	for _, s := range separations {
		m.MinSeparationM = math.Min(m.MinSeparationM, s)
		m.MaxSeparationM = math.Max(m.MaxSeparationM, s)
	}
	m.AvgSeparationM = stat.Mean(separations, nil)

	sorted := append([]float64(nil), separations...)
	sort.Float64s(sorted)
	m.P90SeparationM = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	m.LaidTrackTransitions = coneTransitions(laid, cone)

	return m
}

// coneTransitions counts how often the laid trail crosses the cone boundary
// walking point to point. A high count suggests the cone underestimates
// spread, or the trail is erratic relative to the wind.
func coneTransitions(laid []PointSample, cone []geo.Point) int {
	transitions := 0
	prev := geo.PointInRing(laid[0].Point(), cone)
	for _, p := range laid[1:] {
		inside := geo.PointInRing(p.Point(), cone)
		if inside != prev {
			transitions++
			prev = inside
		}
	}
	return transitions
}
