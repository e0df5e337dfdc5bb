// convert-kml converts a park boundary KML into a GeoJSON
// FeatureCollection for inspection or manual catalog repair.
package main

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type kmlRing struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Point       struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
	LineString struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"LineString"`
	Polygon struct {
		OuterRings []kmlRing `xml:"outerBoundaryIs"`
		InnerRings []kmlRing `xml:"innerBoundaryIs"`
	} `xml:"Polygon"`
}

type kmlDoc struct {
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
	Foldered   []kmlPlacemark `xml:"Document>Folder>Placemark"`
}

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: convert-kml <kml-file> <output-geojson>")
		fmt.Println("Example: convert-kml monte-leon.kml monte-leon.geojson")
		os.Exit(1)
	}

	kmlPath := os.Args[1]
	outputPath := os.Args[2]
	parkLabel := strings.TrimSuffix(filepath.Base(kmlPath), filepath.Ext(kmlPath))

	data, err := os.ReadFile(kmlPath)
	if err != nil {
		fmt.Printf("Error reading KML: %v\n", err)
		os.Exit(1)
	}

	var doc kmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		fmt.Printf("Error parsing KML: %v\n", err)
		os.Exit(1)
	}

	placemarks := append(doc.Placemarks, doc.Foldered...)
	features := make([]map[string]interface{}, 0, len(placemarks))

	for _, pm := range placemarks {
		geometry := placemarkGeometry(pm)
		if geometry == nil {
			continue
		}

		name := strings.TrimSpace(pm.Name)
		if name == "" {
			name = parkLabel
		}

		features = append(features, map[string]interface{}{
			"type": "Feature",
			"properties": map[string]interface{}{
				"name":        name,
				"description": strings.TrimSpace(pm.Description),
			},
			"geometry": geometry,
		})
	}

	collection := map[string]interface{}{
		"type":     "FeatureCollection",
		"features": features,
	}

	out, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling GeoJSON: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outputPath, out, 0644); err != nil {
		fmt.Printf("Error writing output file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Converted to GeoJSON: %d features\n", len(features))
	fmt.Printf("Output: %s\n", outputPath)
}

func placemarkGeometry(pm kmlPlacemark) map[string]interface{} {
	var rings [][][]float64
	for _, r := range append(pm.Polygon.OuterRings, pm.Polygon.InnerRings...) {
		if coords := parseCoordinates(r.Coordinates); len(coords) >= 3 {
			rings = append(rings, closeRing(coords))
		}
	}
	if len(rings) > 0 {
		return map[string]interface{}{"type": "Polygon", "coordinates": rings}
	}

	if coords := parseCoordinates(pm.LineString.Coordinates); len(coords) >= 2 {
		return map[string]interface{}{
			"type":        "Polygon",
			"coordinates": [][][]float64{closeRing(coords)},
		}
	}

	if coords := parseCoordinates(pm.Point.Coordinates); len(coords) == 1 {
		return map[string]interface{}{"type": "Point", "coordinates": coords[0]}
	}

	return nil
}

func closeRing(coords [][]float64) [][]float64 {
	first, last := coords[0], coords[len(coords)-1]
	if first[0] != last[0] || first[1] != last[1] {
		coords = append(coords, first)
	}
	return coords
}

// parseCoordinates parses a KML coordinate string: space-separated
// "lng,lat[,elev]" tuples.
func parseCoordinates(coordString string) [][]float64 {
	var coordinates [][]float64

	for _, tuple := range strings.Fields(strings.TrimSpace(coordString)) {
		values := strings.Split(tuple, ",")
		if len(values) < 2 {
			continue
		}

		lng, err1 := strconv.ParseFloat(values[0], 64)
		lat, err2 := strconv.ParseFloat(values[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}

		coordinates = append(coordinates, []float64{lng, lat})
	}

	return coordinates
}
