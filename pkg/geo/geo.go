package geo

import "math"

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	const R = 6371000 // Earth radius in meters
	dLat := (p2.Lat - p1.Lat) * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
// The resulting longitude is wrapped into (-180, 180].
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	const R = 6371000 // Earth radius in meters
	lat1 := start.Lat * (math.Pi / 180.0)
	lon1 := start.Lon * (math.Pi / 180.0)
	brng := bearing * (math.Pi / 180.0)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(distMeters/R) +
		math.Cos(lat1)*math.Sin(distMeters/R)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(distMeters/R)*math.Cos(lat1),
		math.Cos(distMeters/R)-math.Sin(lat1)*math.Sin(lat2))

	return Point{
		Lat: lat2 * (180.0 / math.Pi),
		Lon: wrapLon(lon2 * (180.0 / math.Pi)),
	}
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees.
func Bearing(p1, p2 Point) float64 {
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Atan2(y, x)

	return math.Mod(brng*(180.0/math.Pi)+360.0, 360.0)
}

// NormalizeDeg normalizes a bearing to the range [0, 360).
func NormalizeDeg(deg float64) float64 {
	return math.Mod(math.Mod(deg, 360)+360, 360)
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// DownwindDeg converts a meteorological "wind from" bearing into the bearing
// scent travels toward.
func DownwindDeg(windFromDeg float64) float64 {
	return NormalizeDeg(windFromDeg + 180)
}

// PointInRing reports whether p lies inside the ring using the even-odd
// (ray casting) rule. The ring may or may not repeat its first point as the
// last; both forms are handled. A point exactly on a ring edge has an
// implementation-defined result, a known limitation of the algorithm.
func PointInRing(p Point, ring []Point) bool {
	n := len(ring)
	if n >= 2 && ring[0] == ring[n-1] {
		n-- // skip explicit closing point
	}
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, xi := ring[i].Lat, ring[i].Lon
		yj, xj := ring[j].Lat, ring[j].Lon
		if (yi > p.Lat) != (yj > p.Lat) {
			xCross := (xj-xi)*(p.Lat-yi)/(yj-yi) + xi
			if p.Lon < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		lon = 180
	}
	return lon
}
