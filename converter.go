package main

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// KML parsing comes in two flavors. The strict decoder requires the
// standard KML 2.2 namespace on the root element; park boundary files
// exported from Google Earth carry it. Files produced by other tools
// omit or mangle the namespace, so a lenient decode of the same
// element names acts as fallback.

const kmlNS = "http://www.opengis.net/kml/2.2"

type kmlRing struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

type kmlPolygon struct {
	OuterRings []kmlRing `xml:"outerBoundaryIs"`
	InnerRings []kmlRing `xml:"innerBoundaryIs"`
}

type kmlPlacemark struct {
	Name         string `xml:"name"`
	Description  string `xml:"description"`
	ExtendedData struct {
		Data []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:"value"`
		} `xml:"Data"`
	} `xml:"ExtendedData"`
	Point struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
	LineString struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"LineString"`
	Polygon       kmlPolygon   `xml:"Polygon"`
	MultiPolygons []kmlPolygon `xml:"MultiGeometry>Polygon"`
}

type kmlStrictDoc struct {
	XMLName    xml.Name       `xml:"http://www.opengis.net/kml/2.2 kml"`
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
	Foldered   []kmlPlacemark `xml:"Document>Folder>Placemark"`
}

type kmlLooseDoc struct {
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
	Foldered   []kmlPlacemark `xml:"Document>Folder>Placemark"`
}

// ConvertKML converts a KML document into GeoFeatures. parkLabel is
// used as fallback rawName when a Placemark carries no name of its own.
// Placemarks with unsupported or empty geometry are skipped, not errored.
func ConvertKML(kml []byte, parkLabel string) ([]GeoFeature, error) {
	logger := slog.With("park", parkLabel)

	placemarks, err := parseStrictKML(kml)
	if err != nil || len(placemarks) == 0 {
		if err != nil {
			logger.Debug("strict KML parse failed, trying lenient parser", "error", err)
		}
		placemarks, err = parseLooseKML(kml)
		if err != nil {
			return nil, fmt.Errorf("failed to parse KML: %w", err)
		}
	}

	features := make([]GeoFeature, 0, len(placemarks))
	for _, pm := range placemarks {
		geom := placemarkGeometry(pm)
		if geom == nil {
			continue
		}

		name := strings.TrimSpace(pm.Name)
		if name == "" {
			name = parkLabel
		}

		props := map[string]string{}
		if desc := strings.TrimSpace(pm.Description); desc != "" {
			props["description"] = desc
		}
		for _, d := range pm.ExtendedData.Data {
			if d.Name != "" && d.Value != "" {
				props[d.Name] = strings.TrimSpace(d.Value)
			}
		}

		features = append(features, GeoFeature{
			RawName:    name,
			Geometry:   geom,
			Properties: props,
			Provenance: ProvenanceKML,
		})
	}

	logger.Debug("KML converted", "placemarks", len(placemarks), "features", len(features))
	return features, nil
}

func parseStrictKML(kml []byte) ([]kmlPlacemark, error) {
	var doc kmlStrictDoc
	if err := xml.Unmarshal(kml, &doc); err != nil {
		return nil, err
	}
	if doc.XMLName.Space != kmlNS {
		return nil, fmt.Errorf("unexpected KML namespace %q", doc.XMLName.Space)
	}
	return append(doc.Placemarks, doc.Foldered...), nil
}

func parseLooseKML(kml []byte) ([]kmlPlacemark, error) {
	var doc kmlLooseDoc
	if err := xml.Unmarshal(kml, &doc); err != nil {
		return nil, err
	}
	return append(doc.Placemarks, doc.Foldered...), nil
}

// placemarkGeometry extracts the first supported geometry from a
// placemark. Polygons collect all LinearRing coordinate rings; a bare
// LineString is auto-closed into a polygon ring when its endpoints
// differ, since park boundaries are drawn as open lines in some files.
// Unsupported geometry types yield nil.
func placemarkGeometry(pm kmlPlacemark) orb.Geometry {
	if poly, ok := polygonFromKML(pm.Polygon); ok {
		return poly
	}

	if len(pm.MultiPolygons) > 0 {
		var mp orb.MultiPolygon
		for _, p := range pm.MultiPolygons {
			if poly, ok := polygonFromKML(p); ok {
				mp = append(mp, poly)
			}
		}
		if len(mp) > 0 {
			return mp
		}
	}

	if coords := parseKMLCoordinates(pm.LineString.Coordinates); len(coords) >= 2 {
		return orb.Polygon{closeRing(coords)}
	}

	if coords := parseKMLCoordinates(pm.Point.Coordinates); len(coords) == 1 {
		return coords[0]
	}

	return nil
}

func polygonFromKML(p kmlPolygon) (orb.Polygon, bool) {
	var rings []orb.Ring
	for _, r := range p.OuterRings {
		if coords := parseKMLCoordinates(r.Coordinates); len(coords) >= 3 {
			rings = append(rings, closeRing(coords))
		}
	}
	for _, r := range p.InnerRings {
		if coords := parseKMLCoordinates(r.Coordinates); len(coords) >= 3 {
			rings = append(rings, closeRing(coords))
		}
	}
	if len(rings) == 0 {
		return nil, false
	}
	return orb.Polygon(rings), true
}

// closeRing appends the first point when first and last differ.
func closeRing(coords []orb.Point) orb.Ring {
	ring := orb.Ring(coords)
	if len(ring) >= 2 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// parseKMLCoordinates parses a KML coordinate string into points.
// KML format: "lng,lat,elev lng,lat,elev ..." (space-separated tuples,
// comma-separated values); elevation is ignored.
func parseKMLCoordinates(coordString string) []orb.Point {
	var points []orb.Point

	for _, tuple := range strings.Fields(strings.TrimSpace(coordString)) {
		values := strings.Split(tuple, ",")
		if len(values) < 2 {
			continue
		}

		lng, err1 := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(values[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}

		points = append(points, orb.Point{lng, lat})
	}

	return points
}
