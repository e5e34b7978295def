package track

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// DefaultCoverageResolution is H3 resolution 11, cells roughly 25 m across —
// about the effective width of a working dog's scent sweep.
const DefaultCoverageResolution = 11

// CoverageCells returns the distinct H3 cells a track passed through, in
// first-visit order. The cell set approximates the ground actually covered
// by a search leg.
func CoverageCells(points []PointSample, resolution int) ([]h3.Cell, error) {
	seen := make(map[h3.Cell]struct{}, len(points))
	cells := make([]h3.Cell, 0, len(points))

	for _, p := range points {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat, Lng: p.Lon}, resolution)
		if err != nil {
			return nil, fmt.Errorf("failed to index point (%f, %f): %w", p.Lat, p.Lon, err)
		}
		if _, ok := seen[cell]; ok {
			continue
		}
		seen[cell] = struct{}{}
		cells = append(cells, cell)
	}

	return cells, nil
}
