package track

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// gpxFile covers the subset of GPX 1.1 we need: track segments and waypoints
// with optional timestamps.
type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Tracks  []struct {
		Segments []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
	Waypoints []gpxPoint `xml:"wpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
}

// ParseGPX reads a GPX document and flattens all track segments into a
// single ordered sample sequence. Files with no track fall back to
// waypoints. Timestamps that fail to parse are dropped, not fatal.
func ParseGPX(r io.Reader) ([]PointSample, error) {
	var doc gpxFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse gpx: %w", err)
	}

	var raw []gpxPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			raw = append(raw, seg.Points...)
		}
	}
	if len(raw) == 0 {
		raw = doc.Waypoints
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("gpx document contains no track points")
	}

	samples := make([]PointSample, 0, len(raw))
	for _, p := range raw {
		s := PointSample{Lat: p.Lat, Lon: p.Lon}
		if p.Time != "" {
			if ts, err := time.Parse(time.RFC3339, p.Time); err == nil {
				s.Time = &ts
			}
		}
		samples = append(samples, s)
	}
	return samples, nil
}
