// Converts land-cover shapefiles (CORINE, NLCD exports and the like) into
// the GeoJSON polygon layers the terrain classifier reads. The class
// attribute is normalized into a canonical "terrain" property.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"scentline/pkg/terrain"
)

func main() {
	inputPath := flag.String("input", "", "Path to input .shp file")
	outputPath := flag.String("output", "", "Path to output .geojson file")
	classField := flag.String("class-field", "terrain", "Attribute holding the land-cover class")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		flag.Usage()
		log.Fatal("Input and output paths are required")
	}

	if err := run(*inputPath, *outputPath, *classField); err != nil {
		log.Fatal(err)
	}
}

func run(inputPath, outputPath, classField string) error {
	shape, err := shp.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shape.Close()

	fields := shape.Fields()
	classIdx := -1
	for i, f := range fields {
		if f.String() == classField {
			classIdx = i
		}
	}
	if classIdx < 0 {
		return fmt.Errorf("attribute %q not found in shapefile", classField)
	}

	fc := geojson.NewFeatureCollection()
	skipped := 0

	for shape.Next() {
		n, p := shape.Shape()

		var geometry orb.Geometry
		switch s := p.(type) {
		case *shp.Polygon:
			geometry = convertPolygon(s)
		default:
			// The classifier only works with polygons
			skipped++
			continue
		}

		class := terrain.NormalizeClass(shape.ReadAttribute(n, classIdx))
		if class == "" {
			skipped++
			continue
		}

		f := geojson.NewFeature(geometry)
		f.Properties["terrain"] = string(class)
		fc.Append(f)
	}

	if err := shape.Err(); err != nil {
		return fmt.Errorf("error iterating shapes: %w", err)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Converted %d features to %s (%d skipped)\n", len(fc.Features), outputPath, skipped)
	return nil
}

func convertPolygon(s *shp.Polygon) orb.Polygon {
	// Simple conversion treating all parts as rings of a single polygon
	var poly orb.Polygon

	for i := 0; i < int(s.NumParts); i++ {
		start := s.Parts[i]
		end := s.NumPoints
		if i < int(s.NumParts)-1 {
			end = s.Parts[i+1]
		}

		var ring orb.Ring
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{s.Points[j].X, s.Points[j].Y})
		}
		poly = append(poly, ring)
	}
	return poly
}
