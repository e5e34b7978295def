// Package terrain resolves ground truth around a point: land-cover class
// from local GeoJSON layers and elevation from Open-Topo-Data.
package terrain

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"scentline/pkg/envelope"
)

// Classifier looks up land cover for coordinates from GeoJSON polygon layers.
type Classifier struct {
	mu       sync.RWMutex
	features []*geojson.Feature
}

// NewClassifier creates a classifier and loads the specified GeoJSON files.
func NewClassifier(paths ...string) (*Classifier, error) {
	c := &Classifier{}
	for _, path := range paths {
		if err := c.load(path); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Classifier) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read geojson %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.features = append(c.features, fc.Features...)
	return nil
}

// FeatureCount returns the number of loaded polygons.
func (c *Classifier) FeatureCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.features)
}

// Classify returns the land-cover class at the given coordinates. Points
// covered by no polygon, or by polygons of more than one class, come back as
// mixed terrain.
func (c *Classifier) Classify(lat, lon float64) envelope.Terrain {
	point := orb.Point{lon, lat}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var found envelope.Terrain
	for _, f := range c.features {
		// Fast bounding box check
		if !f.Geometry.Bound().Contains(point) {
			continue
		}
		if !containsPoint(f.Geometry, point) {
			continue
		}

		t := terrainFromClass(getStringProp(f.Properties, "terrain"))
		if t == "" {
			continue
		}
		if found != "" && found != t {
			return envelope.TerrainMixed
		}
		found = t
	}

	if found == "" {
		return envelope.TerrainMixed
	}
	return found
}

// containsPoint checks if a geometry contains a point.
func containsPoint(geom orb.Geometry, point orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		for _, poly := range g {
			if planar.PolygonContains(poly, point) {
				return true
			}
		}
	}
	return false
}

// NormalizeClass maps a raw land-cover class name to a canonical terrain
// class. Used by shp2geojson when preparing layers.
func NormalizeClass(class string) envelope.Terrain {
	return terrainFromClass(class)
}

// terrainFromClass normalizes a land-cover class name. Layers produced by
// shp2geojson already carry the canonical names; raw CORINE/NLCD-style labels
// are matched loosely.
func terrainFromClass(class string) envelope.Terrain {
	switch s := strings.ToLower(strings.TrimSpace(class)); {
	case s == "":
		return ""
	case s == string(envelope.TerrainOpen), strings.Contains(s, "grass"), strings.Contains(s, "pasture"), strings.Contains(s, "crop"):
		return envelope.TerrainOpen
	case s == string(envelope.TerrainForest), strings.Contains(s, "forest"), strings.Contains(s, "wood"):
		return envelope.TerrainForest
	case s == string(envelope.TerrainUrban), strings.Contains(s, "urban"), strings.Contains(s, "built"), strings.Contains(s, "residential"):
		return envelope.TerrainUrban
	case s == string(envelope.TerrainSwamp), strings.Contains(s, "wetland"), strings.Contains(s, "marsh"), strings.Contains(s, "bog"):
		return envelope.TerrainSwamp
	case s == string(envelope.TerrainBeach), strings.Contains(s, "sand"), strings.Contains(s, "dune"), strings.Contains(s, "shore"):
		return envelope.TerrainBeach
	default:
		return envelope.TerrainMixed
	}
}

// getStringProp safely extracts a string property from GeoJSON properties.
func getStringProp(props geojson.Properties, key string) string {
	if val, ok := props[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
