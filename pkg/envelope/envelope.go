// Package envelope implements the time-aware scent dispersion estimator:
// three nested probability-zone polygons downwind of the LKP, a decaying
// confidence score, recommended start points and deployment guidance.
//
// Compute is a pure function of its inputs. It performs no I/O, holds no
// state, and is safe to call concurrently.
package envelope

import (
	"fmt"
	"math"
	"time"

	"scentline/pkg/geo"
	"scentline/pkg/units"
)

// Inputs carries everything the model needs. Timestamps are parsed and
// validated by the caller; Conditions must be fully populated (see
// DefaultConditions).
type Inputs struct {
	Source       geo.Point
	LKPTime      time.Time
	Now          time.Time
	WindFromDeg  float64
	WindSpeedMph units.Mph
	Conditions   Conditions
}

// Zone is one nested probability region: a closed ring starting and ending
// at the apex, its far radius and its half-angle.
type Zone struct {
	Name         string       `json:"name"`
	Ring         []geo.Point  `json:"ring"`
	RadiusM      units.Meters `json:"radius_m"`
	HalfAngleDeg float64      `json:"half_angle_deg"`
}

// StartPoint is a labeled recommended deployment point.
type StartPoint struct {
	Label string    `json:"label"`
	Point geo.Point `json:"point"`
}

// Output is the full model result, recomputed from scratch on every call.
type Output struct {
	ElapsedMinutes    float64      `json:"elapsed_minutes"`
	Core              Zone         `json:"core"`
	Fringe            Zone         `json:"fringe"`
	Residual          Zone         `json:"residual"`
	Confidence        int          `json:"confidence"`
	Band              string       `json:"band"`
	StartPoints       []StartPoint `json:"start_points"`
	Notes             []string     `json:"notes"`
	Factors           []string     `json:"factors"`
	ResetAfterMinutes int          `json:"reset_after_minutes"`
}

// Zone construction constants. The residual half-angle is intentionally
// wider than the raw computed half-angle.
const (
	coreRadiusFrac     = 0.55
	fringeRadiusFrac   = 0.85
	residualRadiusFrac = 1.00

	coreAngleFrac     = 0.45
	fringeAngleFrac   = 0.80
	residualAngleFrac = 1.15

	coreArcPoints     = 28
	fringeArcPoints   = 32
	residualArcPoints = 36
)

// Diminishing marginal effect of very high wind on plume growth. The raw
// wind speed still drives the confidence multipliers.
const growthWindCapMph = 18

// Compute runs the dispersion and confidence model.
func Compute(in Inputs) Output {
	c := in.Conditions

	elapsed := math.Max(0, in.Now.Sub(in.LKPTime).Minutes())

	wEff := math.Min(float64(in.WindSpeedMph), growthWindCapMph)

	// Empirical growth formulas work in feet; conversion to meters happens
	// only at polygon construction.
	lengthFt := (30 + 6.0*elapsed + 120*wEff*math.Log(1+elapsed/30)) *
		c.Terrain.lengthFactor() * c.Stability.lengthFactor()
	widthEndFt := (20 + 3.5*elapsed + 40*math.Sqrt(elapsed)) * widthFactor(c)

	halfAngleDeg := math.Atan2(widthEndFt, math.Max(1, lengthFt)) * (180.0 / math.Pi)

	axis := geo.DownwindDeg(in.WindFromDeg)

	core := buildZone("core", in.Source, axis, lengthFt, halfAngleDeg, coreRadiusFrac, coreAngleFrac, coreArcPoints)
	fringe := buildZone("fringe", in.Source, axis, lengthFt, halfAngleDeg, fringeRadiusFrac, fringeAngleFrac, fringeArcPoints)
	residual := buildZone("residual", in.Source, axis, lengthFt, halfAngleDeg, residualRadiusFrac, residualAngleFrac, residualArcPoints)

	tau := confidenceTau(c, in.WindSpeedMph)
	cTime := 100 * math.Exp(-elapsed/tau)

	factors := environmentFactors(c, in.WindSpeedMph)
	cEnv := 1.0
	notes := make([]string, 0, len(factors))
	for _, f := range factors {
		cEnv *= f.mult
		notes = append(notes, f.note)
	}

	score := int(math.Round(clamp(cTime*cEnv, 5, 100)))

	return Output{
		ElapsedMinutes:    elapsed,
		Core:              core,
		Fringe:            fringe,
		Residual:          residual,
		Confidence:        score,
		Band:              bandFor(score),
		StartPoints:       startPoints(in.Source, axis, lengthFt),
		Notes:             deploymentNotes(c, in.WindSpeedMph, score),
		Factors:           notes,
		ResetAfterMinutes: resetAfter(score),
	}
}

func buildZone(name string, apex geo.Point, axisDeg, lengthFt, halfAngleDeg, radiusFrac, angleFrac float64, arcPoints int) Zone {
	radius := units.Feet(radiusFrac * lengthFt).Meters()
	half := angleFrac * halfAngleDeg

	ring := make([]geo.Point, 0, arcPoints+2)
	ring = append(ring, apex)
	for i := 0; i < arcPoints; i++ {
		bearing := axisDeg - half + 2*half*float64(i)/float64(arcPoints-1)
		ring = append(ring, geo.DestinationPoint(apex, float64(radius), geo.NormalizeDeg(bearing)))
	}
	ring = append(ring, apex)

	return Zone{
		Name:         name,
		Ring:         ring,
		RadiusM:      radius,
		HalfAngleDeg: half,
	}
}

func startPoints(apex geo.Point, axisDeg, lengthFt float64) []StartPoint {
	points := []StartPoint{
		{Label: "LKP (Immediate)", Point: apex},
	}
	for _, frac := range []float64{0.35, 0.55} {
		dist := units.Feet(frac * lengthFt).Meters()
		points = append(points, StartPoint{
			Label: fmt.Sprintf("Downwind %.0f%%", frac*100),
			Point: geo.DestinationPoint(apex, float64(dist), axisDeg),
		})
	}
	return points
}

// deploymentNotes evaluates each advisory independently; several can apply
// at once.
func deploymentNotes(c Conditions, wind units.Mph, score int) []string {
	var notes []string

	if wind <= 3 || c.Terrain == TerrainUrban || c.Terrain == TerrainForest {
		notes = append(notes, "Expect pooling and eddies; check depressions, leeward sides and structure edges rather than trusting the cone.")
	}
	if wind >= 4 && wind <= 12 && score >= 50 {
		notes = append(notes, "Steady workable wind; a cone-based downwind strategy is appropriate.")
	}
	if wind >= 13 || c.Precip == PrecipHeavy {
		notes = append(notes, "High dilution conditions; commit the dog in shorter intervals and re-cast often.")
	}

	return notes
}

func bandFor(score int) string {
	switch {
	case score >= 70:
		return "High"
	case score >= 40:
		return "Moderate"
	default:
		return "Low"
	}
}

func resetAfter(score int) int {
	switch {
	case score < 40:
		return 30
	case score < 70:
		return 45
	default:
		return 60
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
