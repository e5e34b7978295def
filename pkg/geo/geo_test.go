package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		p1   Point
		p2   Point
		want float64
	}{
		{
			name: "Same Point",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 0},
			want: 0,
		},
		{
			name: "London to Paris",
			p1:   Point{Lat: 51.5074, Lon: -0.1278},
			p2:   Point{Lat: 48.8566, Lon: 2.3522},
			want: 344000, // Approx 344km
		},
		{
			name: "Equator 1 degree",
			p1:   Point{Lat: 0, Lon: 0},
			p2:   Point{Lat: 0, Lon: 1},
			want: 111319, // Approx 111km
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			// Allow 1% margin of error due to float precision/earth radius var
			margin := tt.want * 0.01
			if math.Abs(got-tt.want) > margin && tt.want != 0 {
				t.Errorf("Distance() = %v, want %v (+/- %v)", got, tt.want, margin)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{Lat: 39.5, Lon: -104.99}
	b := Point{Lat: 47.61, Lon: -122.33}
	if d1, d2 := Distance(a, b), Distance(b, a); d1 != d2 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDestinationPointRoundTrip(t *testing.T) {
	origins := []Point{
		{Lat: 39.5, Lon: -104.99},
		{Lat: -33.86, Lon: 151.2},
		{Lat: 64.14, Lon: -21.9},
	}
	for _, origin := range origins {
		for _, bearing := range []float64{0, 45, 90, 135, 200, 359} {
			for _, dist := range []float64{50, 1000, 25000, 300000} {
				dest := DestinationPoint(origin, dist, bearing)
				got := Distance(origin, dest)
				if math.Abs(got-dist) > dist*0.001 {
					t.Errorf("round trip origin=%v bearing=%v dist=%v: got %v", origin, bearing, dist, got)
				}
			}
		}
	}
}

func TestDestinationPointWrapsLongitude(t *testing.T) {
	// Travel east across the antimeridian
	p := DestinationPoint(Point{Lat: 0, Lon: 179.9}, 50000, 90)
	if p.Lon > 180 || p.Lon <= -180 {
		t.Errorf("longitude not wrapped into (-180, 180]: %v", p.Lon)
	}
	if p.Lon > 0 {
		t.Errorf("expected negative longitude after crossing antimeridian, got %v", p.Lon)
	}
}

func TestNormalizeDeg(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{360, 0},
		{361, 1},
		{-1, 359},
		{-720, 0},
		{450, 90},
	}
	for _, tt := range tests {
		if got := NormalizeDeg(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeDeg(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	// Periodicity
	for _, d := range []float64{13.7, -250.4, 359.99} {
		for k := -3; k <= 3; k++ {
			if got := NormalizeDeg(d + float64(k)*360); math.Abs(got-NormalizeDeg(d)) > 1e-9 {
				t.Errorf("NormalizeDeg(%v + %d*360) = %v, want %v", d, k, got, NormalizeDeg(d))
			}
		}
	}
}

func TestDownwindDeg(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{270, 90}, // wind from the west blows scent east
		{0, 180},
		{180, 0},
		{90, 270},
	}
	for _, tt := range tests {
		if got := DownwindDeg(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DownwindDeg(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPointInRing(t *testing.T) {
	square := []Point{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 0},
	}
	closedSquare := append(append([]Point{}, square...), square[0])

	tests := []struct {
		name string
		p    Point
		ring []Point
		want bool
	}{
		{"center open ring", Point{Lat: 5, Lon: 5}, square, true},
		{"center closed ring", Point{Lat: 5, Lon: 5}, closedSquare, true},
		{"outside", Point{Lat: 15, Lon: 5}, square, false},
		{"outside closed", Point{Lat: -1, Lon: -1}, closedSquare, false},
		{"degenerate ring", Point{Lat: 5, Lon: 5}, square[:2], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInRing(tt.p, tt.ring); got != tt.want {
				t.Errorf("PointInRing(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestTrackBuffer(t *testing.T) {
	b := NewTrackBuffer(5)

	// Single fix falls back to default heading
	if got := b.Push(Point{Lat: 0, Lon: 0}, 42); got != 42 {
		t.Errorf("Push with one sample = %v, want default 42", got)
	}

	// Moving due east
	if got := b.Push(Point{Lat: 0, Lon: 0.001}, 42); math.Abs(got-90) > 0.5 {
		t.Errorf("eastbound track = %v, want ~90", got)
	}

	b.Reset()
	if got := b.Push(Point{Lat: 1, Lon: 1}, 7); got != 7 {
		t.Errorf("Push after Reset = %v, want default 7", got)
	}
}

func TestTrackBufferWindowSlides(t *testing.T) {
	b := NewTrackBuffer(2)

	b.Push(Point{Lat: 0, Lon: 0}, 0)
	b.Push(Point{Lat: 0.001, Lon: 0}, 0) // north

	// With a window of 2, the old northbound leg must drop out and the
	// bearing follow the newest pair.
	if got := b.Push(Point{Lat: 0.001, Lon: 0.001}, 0); math.Abs(got-90) > 0.5 {
		t.Errorf("bearing after window slide = %v, want ~90", got)
	}
}
