// Package cone builds the simple operational wind cone used for live
// planning: a single wedge polygon downwind of the LKP plus fixed-time
// distance markers. The richer time-decaying model lives in pkg/envelope.
package cone

import (
	"math"

	"scentline/pkg/geo"
	"scentline/pkg/units"
)

// Stability describes qualitative atmospheric mixing for the operational
// cone. Lower stability means more turbulent, variable wind and a wider cone.
type Stability string

const (
	StabilityLow    Stability = "low"
	StabilityMedium Stability = "medium"
	StabilityHigh   Stability = "high"
)

// Settings configures a cone computation. SpreadDeg is the total angular
// spread of the cone, not the half-angle.
type Settings struct {
	TimeHorizonHours float64   `json:"time_horizon_hours" yaml:"time_horizon_hours"`
	SpreadDeg        float64   `json:"spread_deg" yaml:"spread_deg"`
	Stability        Stability `json:"stability" yaml:"stability"`
}

// Band marks how far scent has likely traveled after a given number of
// minutes, with the center of the cone and its left/right edges at that
// distance. Rendered as cross-cone tick marks.
type Band struct {
	Minutes   float64      `json:"minutes"`
	DistanceM units.Meters `json:"distance_m"`
	Center    geo.Point    `json:"center"`
	Left      geo.Point    `json:"left"`
	Right     geo.Point    `json:"right"`
}

const (
	// Empirical effective travel fraction: scent transports at roughly
	// 28% of wind speed, not at full wind speed.
	travelFraction = 0.28

	// arcSteps subdivisions give arcSteps+1 samples across the far edge.
	arcSteps = 22

	minConeRadiusM = 250
	minDistanceM   = 20
)

func (s Stability) factor() float64 {
	switch s {
	case StabilityLow:
		return 1.25
	case StabilityHigh:
		return 0.75
	default:
		return 1.0
	}
}

// SpreadHalfDeg returns the cone half-angle: half the configured spread,
// scaled by the stability factor.
func SpreadHalfDeg(s Settings) float64 {
	return s.SpreadDeg / 2 * s.Stability.factor()
}

// EstimateScentDistanceMeters estimates how far scent has traveled after the
// given minutes of the given wind. The 20 m floor guards against near-zero
// wind degeneracy.
func EstimateScentDistanceMeters(windSpeed units.Kmh, minutes float64, stability Stability) units.Meters {
	d := float64(windSpeed) * 1000 * (minutes / 60) * travelFraction * stability.factor()
	return units.Meters(math.Max(minDistanceM, d))
}

// BuildPolygon constructs the cone wedge: apex at source, a far-edge arc of
// arcSteps+1 points swept around the downwind bearing, closed back to the
// apex. The returned ring always has arcSteps+3 points.
func BuildPolygon(source geo.Point, windFromDeg float64, windSpeed units.Kmh, s Settings) []geo.Point {
	radius := math.Max(minConeRadiusM, float64(windSpeed)*1000*s.TimeHorizonHours*travelFraction)
	axis := geo.DownwindDeg(windFromDeg)
	half := SpreadHalfDeg(s)

	ring := make([]geo.Point, 0, arcSteps+3)
	ring = append(ring, source)
	for i := 0; i <= arcSteps; i++ {
		bearing := axis - half + 2*half*float64(i)/float64(arcSteps)
		ring = append(ring, geo.DestinationPoint(source, radius, geo.NormalizeDeg(bearing)))
	}
	ring = append(ring, source)
	return ring
}

// DistanceBands computes tick marks for the requested minute marks.
// A nil minutesList defaults to 15, 30 and 60 minutes.
func DistanceBands(source geo.Point, windFromDeg float64, windSpeed units.Kmh, s Settings, minutesList []float64) []Band {
	if minutesList == nil {
		minutesList = []float64{15, 30, 60}
	}

	axis := geo.DownwindDeg(windFromDeg)
	half := SpreadHalfDeg(s)

	bands := make([]Band, 0, len(minutesList))
	for _, minutes := range minutesList {
		dist := EstimateScentDistanceMeters(windSpeed, minutes, s.Stability)
		bands = append(bands, Band{
			Minutes:   minutes,
			DistanceM: dist,
			Center:    geo.DestinationPoint(source, float64(dist), axis),
			Left:      geo.DestinationPoint(source, float64(dist), geo.NormalizeDeg(axis-half)),
			Right:     geo.DestinationPoint(source, float64(dist), geo.NormalizeDeg(axis+half)),
		})
	}
	return bands
}
