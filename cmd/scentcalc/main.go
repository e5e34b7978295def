// Offline calculator for the dispersion model. Runs the same envelope and
// cone computations the server exposes, printing JSON or GeoJSON to stdout,
// for field use without a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"scentline/pkg/cone"
	"scentline/pkg/envelope"
	"scentline/pkg/geo"
	"scentline/pkg/units"
)

func main() {
	var (
		lat       = flag.Float64("lat", 0, "LKP latitude")
		lon       = flag.Float64("lon", 0, "LKP longitude")
		lkpTime   = flag.String("lkp-time", "", "LKP timestamp (RFC3339, default now)")
		nowStr    = flag.String("now", "", "Evaluation timestamp (RFC3339, default now)")
		windFrom  = flag.Float64("wind-from", 0, "Wind origin bearing (degrees)")
		windMph   = flag.Float64("wind-mph", 5, "Wind speed (mph)")
		temp      = flag.Float64("temp", 75, "Temperature (F)")
		humidity  = flag.Float64("humidity", 50, "Relative humidity (%)")
		cloudStr  = flag.String("cloud", "partly", "Cloud cover: clear|partly|overcast|night")
		precipStr = flag.String("precip", "none", "Precipitation: none|light|moderate|heavy")
		rain      = flag.Bool("recent-rain", false, "Measurable rain in the last few hours")
		terrStr   = flag.String("terrain", "mixed", "Terrain: open|forest|urban|swamp|beach|mixed")
		stabStr   = flag.String("stability", "neutral", "Air stability: stable|neutral|convective")

		coneMode  = flag.Bool("cone", false, "Compute the operational cone instead of the envelope")
		hours     = flag.Float64("hours", 2, "Cone time horizon (hours)")
		spread    = flag.Float64("spread", 40, "Cone spread angle (degrees)")
		coneStab  = flag.String("cone-stability", "medium", "Cone stability: low|medium|high")
		asGeoJSON = flag.Bool("geojson", false, "Emit GeoJSON instead of raw JSON")
	)
	flag.Parse()

	if err := run(calcArgs{
		lat: *lat, lon: *lon, lkpTime: *lkpTime, now: *nowStr,
		windFrom: *windFrom, windMph: *windMph,
		temp: *temp, humidity: *humidity, cloud: *cloudStr, precip: *precipStr,
		rain: *rain, terrain: *terrStr, stability: *stabStr,
		coneMode: *coneMode, hours: *hours, spread: *spread, coneStab: *coneStab,
		geoJSON: *asGeoJSON,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type calcArgs struct {
	lat, lon          float64
	lkpTime, now      string
	windFrom, windMph float64
	temp, humidity    float64
	cloud, precip     string
	rain              bool
	terrain           string
	stability         string

	coneMode bool
	hours    float64
	spread   float64
	coneStab string
	geoJSON  bool
}

func run(a calcArgs) error {
	if a.lat < -90 || a.lat > 90 || a.lon < -180 || a.lon > 180 {
		return fmt.Errorf("coordinates out of range")
	}
	source := geo.Point{Lat: a.lat, Lon: a.lon}

	if a.coneMode {
		return runCone(source, a)
	}
	return runEnvelope(source, a)
}

func runCone(source geo.Point, a calcArgs) error {
	stab := cone.Stability(a.coneStab)
	switch stab {
	case cone.StabilityLow, cone.StabilityMedium, cone.StabilityHigh:
	default:
		return fmt.Errorf("unknown cone stability %q", a.coneStab)
	}

	settings := cone.Settings{TimeHorizonHours: a.hours, SpreadDeg: a.spread, Stability: stab}
	windKmh := units.Mph(a.windMph).Kmh()
	polygon := cone.BuildPolygon(source, a.windFrom, windKmh, settings)
	bands := cone.DistanceBands(source, a.windFrom, windKmh, settings, []float64{30, 60, 120})

	if a.geoJSON {
		fc := geojson.NewFeatureCollection()
		f := geojson.NewFeature(orb.Polygon{ring(polygon)})
		f.Properties["kind"] = "cone"
		f.Properties["wind_from_deg"] = a.windFrom
		fc.Append(f)
		return emit(fc)
	}

	return emit(map[string]any{
		"polygon":     polygon,
		"bands":       bands,
		"spread_half": cone.SpreadHalfDeg(settings),
	})
}

func runEnvelope(source geo.Point, a calcArgs) error {
	now := time.Now()
	if a.now != "" {
		t, err := time.Parse(time.RFC3339, a.now)
		if err != nil {
			return fmt.Errorf("invalid -now: %w", err)
		}
		now = t
	}
	lkpTime := now
	if a.lkpTime != "" {
		t, err := time.Parse(time.RFC3339, a.lkpTime)
		if err != nil {
			return fmt.Errorf("invalid -lkp-time: %w", err)
		}
		lkpTime = t
	}

	cond, err := buildConditions(a)
	if err != nil {
		return err
	}

	out := envelope.Compute(envelope.Inputs{
		Source:       source,
		LKPTime:      lkpTime,
		Now:          now,
		WindFromDeg:  a.windFrom,
		WindSpeedMph: units.Mph(a.windMph),
		Conditions:   cond,
	})

	if a.geoJSON {
		return emit(envelopeFeatures(out))
	}
	return emit(out)
}

func buildConditions(a calcArgs) (envelope.Conditions, error) {
	cond := envelope.DefaultConditions()
	cond.TemperatureF = a.temp
	cond.HumidityPct = a.humidity
	cond.RecentRain = a.rain

	cond.Cloud = envelope.Cloud(a.cloud)
	switch cond.Cloud {
	case envelope.CloudClear, envelope.CloudPartly, envelope.CloudOvercast, envelope.CloudNight:
	default:
		return cond, fmt.Errorf("unknown cloud cover %q", a.cloud)
	}

	cond.Precip = envelope.Precip(a.precip)
	switch cond.Precip {
	case envelope.PrecipNone, envelope.PrecipLight, envelope.PrecipModerate, envelope.PrecipHeavy:
	default:
		return cond, fmt.Errorf("unknown precipitation %q", a.precip)
	}

	cond.Terrain = envelope.Terrain(a.terrain)
	switch cond.Terrain {
	case envelope.TerrainOpen, envelope.TerrainForest, envelope.TerrainUrban,
		envelope.TerrainSwamp, envelope.TerrainBeach, envelope.TerrainMixed:
	default:
		return cond, fmt.Errorf("unknown terrain %q", a.terrain)
	}

	cond.Stability = envelope.Stability(a.stability)
	switch cond.Stability {
	case envelope.StabilityStable, envelope.StabilityNeutral, envelope.StabilityConvective:
	default:
		return cond, fmt.Errorf("unknown stability %q", a.stability)
	}

	return cond, nil
}

func envelopeFeatures(out envelope.Output) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, zone := range []envelope.Zone{out.Core, out.Fringe, out.Residual} {
		f := geojson.NewFeature(orb.Polygon{ring(zone.Ring)})
		f.Properties["kind"] = "envelope"
		f.Properties["zone"] = zone.Name
		f.Properties["radius_m"] = float64(zone.RadiusM)
		f.Properties["confidence"] = out.Confidence
		f.Properties["band"] = out.Band
		fc.Append(f)
	}
	for _, sp := range out.StartPoints {
		f := geojson.NewFeature(orb.Point{sp.Point.Lon, sp.Point.Lat})
		f.Properties["kind"] = "start_point"
		f.Properties["label"] = sp.Label
		fc.Append(f)
	}
	return fc
}

func ring(points []geo.Point) orb.Ring {
	r := make(orb.Ring, 0, len(points))
	for _, p := range points {
		r = append(r, orb.Point{p.Lon, p.Lat})
	}
	return r
}

func emit(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
