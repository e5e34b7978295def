package envelope

import (
	"fmt"

	"scentline/pkg/units"
)

// Terrain classifies the ground around the LKP.
type Terrain string

const (
	TerrainOpen   Terrain = "open"
	TerrainForest Terrain = "forest"
	TerrainUrban  Terrain = "urban"
	TerrainSwamp  Terrain = "swamp"
	TerrainBeach  Terrain = "beach"
	TerrainMixed  Terrain = "mixed"
)

// Stability describes atmospheric mixing. Stable air keeps the plume narrow;
// convective mixing widens it.
type Stability string

const (
	StabilityStable     Stability = "stable"
	StabilityNeutral    Stability = "neutral"
	StabilityConvective Stability = "convective"
)

// Cloud describes sky condition. Night behaves like overcast for scent
// retention.
type Cloud string

const (
	CloudClear    Cloud = "clear"
	CloudPartly   Cloud = "partly"
	CloudOvercast Cloud = "overcast"
	CloudNight    Cloud = "night"
)

// Precip describes current precipitation intensity.
type Precip string

const (
	PrecipNone     Precip = "none"
	PrecipLight    Precip = "light"
	PrecipModerate Precip = "moderate"
	PrecipHeavy    Precip = "heavy"
)

// Conditions holds the environmental state the model runs on. Every field is
// required; use DefaultConditions and overwrite what is known so the
// computation never branches on missing values.
type Conditions struct {
	TemperatureF float64   `json:"temperature_f"`
	HumidityPct  float64   `json:"humidity_pct"`
	Cloud        Cloud     `json:"cloud"`
	Precip       Precip    `json:"precip"`
	RecentRain   bool      `json:"recent_rain"`
	Terrain      Terrain   `json:"terrain"`
	Stability    Stability `json:"stability"`
}

// DefaultConditions returns the assumed environment when nothing is known:
// mild, average humidity, partial cloud, dry, mixed terrain, neutral air.
func DefaultConditions() Conditions {
	return Conditions{
		TemperatureF: 75,
		HumidityPct:  50,
		Cloud:        CloudPartly,
		Precip:       PrecipNone,
		RecentRain:   false,
		Terrain:      TerrainMixed,
		Stability:    StabilityNeutral,
	}
}

// lengthFactor scales plume length growth by terrain. Open ground carries
// scent farther; cluttered terrain absorbs and diverts it.
func (t Terrain) lengthFactor() float64 {
	switch t {
	case TerrainOpen:
		return 1.10
	case TerrainForest:
		return 0.95
	case TerrainUrban:
		return 0.85
	case TerrainSwamp:
		return 0.90
	case TerrainBeach:
		return 1.00
	case TerrainMixed:
		return 1.00
	}
	return 1.00
}

func (s Stability) lengthFactor() float64 {
	switch s {
	case StabilityStable:
		return 0.90
	case StabilityConvective:
		return 1.05
	case StabilityNeutral:
		return 1.00
	}
	return 1.00
}

// widthFactor is the lateral mixing multiplier: stable air narrows the
// plume, convection widens it, urban canyons channel and spread it.
func widthFactor(c Conditions) float64 {
	mix := 1.0
	if c.Stability == StabilityStable {
		mix *= 0.85
	}
	if c.Stability == StabilityConvective {
		mix *= 1.25
	}
	if c.Terrain == TerrainUrban {
		mix *= 1.15
	}
	return mix
}

// tauRule maps an environment predicate to a confidence time constant in
// minutes. Rules are evaluated in order and later matches override earlier
// ones on purpose: when both the cool/humid and hot/dry/windy conditions
// hold, the hot/dry/windy constant wins.
type tauRule struct {
	when func(c Conditions, wind units.Mph) bool
	tau  float64
}

const baseTauMinutes = 180

var tauRules = []tauRule{
	{
		// Cool or humid, dim sky, light wind: scent persists.
		when: func(c Conditions, wind units.Mph) bool {
			return (c.HumidityPct > 60 || c.TemperatureF < 60) &&
				(c.Cloud == CloudOvercast || c.Cloud == CloudNight) &&
				wind < 13
		},
		tau: 240,
	},
	{
		// Hot, dry or bright, with real wind: scent burns off fast.
		when: func(c Conditions, wind units.Mph) bool {
			return (c.TemperatureF > 85 || c.HumidityPct < 30 || c.Cloud == CloudClear) &&
				wind >= 13
		},
		tau: 120,
	},
}

func confidenceTau(c Conditions, wind units.Mph) float64 {
	tau := float64(baseTauMinutes)
	for _, r := range tauRules {
		if r.when(c, wind) {
			tau = r.tau
		}
	}
	return tau
}

// factor is one environmental confidence multiplier with a display note.
type factor struct {
	mult float64
	note string
}

// environmentFactors evaluates the five independent confidence multipliers.
func environmentFactors(c Conditions, wind units.Mph) []factor {
	factors := make([]factor, 0, 5)

	humidity := factor{1.0, "Humidity: neutral"}
	switch {
	case c.HumidityPct < 30:
		humidity = factor{0.80, fmt.Sprintf("Dry air (%.0f%% RH): x0.80", c.HumidityPct)}
	case c.HumidityPct > 60:
		humidity = factor{1.10, fmt.Sprintf("Humid air (%.0f%% RH): x1.10", c.HumidityPct)}
	}
	factors = append(factors, humidity)

	temp := factor{1.0, "Temperature: neutral"}
	switch {
	case c.TemperatureF > 85:
		temp = factor{0.85, fmt.Sprintf("Hot (%.0fF): x0.85", c.TemperatureF)}
	case c.TemperatureF < 60:
		temp = factor{1.05, fmt.Sprintf("Cool (%.0fF): x1.05", c.TemperatureF)}
	}
	factors = append(factors, temp)

	sky := factor{1.0, "Sky: neutral"}
	switch c.Cloud {
	case CloudClear:
		sky = factor{0.85, "Clear sky: x0.85"}
	case CloudPartly:
		sky = factor{0.95, "Partly cloudy: x0.95"}
	case CloudOvercast, CloudNight:
		sky = factor{1.05, "Overcast/night: x1.05"}
	}
	factors = append(factors, sky)

	precip := factor{1.0, "Precipitation: none"}
	switch c.Precip {
	case PrecipHeavy:
		precip = factor{0.75, "Heavy precipitation: x0.75"}
	case PrecipLight, PrecipModerate:
		precip = factor{0.90, "Light/moderate precipitation: x0.90"}
	case PrecipNone:
		if c.RecentRain {
			precip = factor{0.95, "Recent rain: x0.95"}
		}
	}
	factors = append(factors, precip)

	windF := factor{1.0, "Wind: workable"}
	switch {
	case wind <= 3:
		windF = factor{0.85, fmt.Sprintf("Calm wind (%.0f mph): x0.85", float64(wind))}
	case wind > 18:
		windF = factor{0.80, fmt.Sprintf("Strong wind (%.0f mph): x0.80", float64(wind))}
	case wind >= 13:
		windF = factor{0.90, fmt.Sprintf("Brisk wind (%.0f mph): x0.90", float64(wind))}
	}
	factors = append(factors, windF)

	return factors
}
