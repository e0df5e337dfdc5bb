package main

import (
	"testing"

	"github.com/paulmach/orb"
)

func pointFeature(name string, prov Provenance, props map[string]string) GeoFeature {
	if props == nil {
		props = map[string]string{}
	}
	return GeoFeature{
		RawName:    name,
		Geometry:   orb.Point{-64.0, -31.0},
		Properties: props,
		Provenance: prov,
	}
}

func polygonFeature(name string, prov Provenance) GeoFeature {
	return GeoFeature{
		RawName: name,
		Geometry: orb.Polygon{
			{{-68.9, -50.3}, {-68.8, -50.3}, {-68.8, -50.4}, {-68.9, -50.3}},
		},
		Properties: map[string]string{},
		Provenance: prov,
	}
}

func TestDeduplicateUniqueKeys(t *testing.T) {
	base := []GeoFeature{
		pointFeature("Parque Nacional Iguazú", ProvenanceGeoJSON, nil),
		pointFeature("PN Iguazú", ProvenanceGeoJSON, nil),
		pointFeature("Monte León", ProvenanceGeoJSON, nil),
	}

	result := Deduplicate(base, nil)
	if len(result) != 2 {
		t.Fatalf("expected 2 unique keys, got %d", len(result))
	}
	if _, ok := result["iguazu"]; !ok {
		t.Error("missing key \"iguazu\"")
	}
	if _, ok := result["monte leon"]; !ok {
		t.Error("missing key \"monte leon\"")
	}
}

func TestDeduplicatePolygonBeatsPoint(t *testing.T) {
	base := []GeoFeature{pointFeature("Monte León", ProvenanceGeoJSON, nil)}
	overlays := []GeoFeature{polygonFeature("Monte León", ProvenanceKML)}

	result := Deduplicate(base, overlays)
	winner, ok := result["monte leon"]
	if !ok {
		t.Fatal("missing key \"monte leon\"")
	}
	if _, isPoly := winner.Geometry.(orb.Polygon); !isPoly {
		t.Errorf("winner geometry is %T, expected the overlay polygon", winner.Geometry)
	}
}

func TestDeduplicateBaseWinsTies(t *testing.T) {
	// Two points, same key, same score profile except provenance:
	// the base feature scores higher (+5) and must win.
	base := []GeoFeature{pointFeature("El Palmar", ProvenanceGeoJSON, map[string]string{"marker": "base"})}
	overlays := []GeoFeature{pointFeature("El Palmar", ProvenanceKML, map[string]string{"marker": "overlay"})}

	result := Deduplicate(base, overlays)
	winner := result["el palmar"]
	if winner.Properties["marker"] != "base" {
		t.Errorf("expected base feature to win, got %q", winner.Properties["marker"])
	}
}

func TestDeduplicateInsertionOrderBreaksTies(t *testing.T) {
	// Identical score within the base list: earlier inserted wins.
	first := pointFeature("Copo", ProvenanceGeoJSON, map[string]string{"marker": "first"})
	second := pointFeature("Copo", ProvenanceGeoJSON, map[string]string{"marker": "second"})

	result := Deduplicate([]GeoFeature{first, second}, nil)
	if result["copo"].Properties["marker"] != "first" {
		t.Errorf("expected first-inserted feature to win, got %q", result["copo"].Properties["marker"])
	}
}

func TestDeduplicateSkipsEmptyKeys(t *testing.T) {
	base := []GeoFeature{
		pointFeature("", ProvenanceGeoJSON, nil),
		pointFeature("Parque Nacional", ProvenanceGeoJSON, nil), // normalizes to nothing
		pointFeature("Talampaya", ProvenanceGeoJSON, nil),
	}

	result := Deduplicate(base, nil)
	if len(result) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result))
	}
	if _, ok := result["talampaya"]; !ok {
		t.Error("missing key \"talampaya\"")
	}
}

func TestDeduplicateDescriptionScore(t *testing.T) {
	// Same key, both KML points; the long description wins by +1.
	short := pointFeature("Ansenuza", ProvenanceKML, map[string]string{"description": "corta"})
	long := pointFeature("Ansenuza", ProvenanceKML, map[string]string{
		"description": "Laguna Mar Chiquita y los humedales del río Dulce",
	})

	result := Deduplicate(nil, []GeoFeature{short, long})
	if result["ansenuza"].Properties["description"] != long.Properties["description"] {
		t.Error("expected the richly described feature to win")
	}
}

func TestDeduplicateProvinceBackfill(t *testing.T) {
	base := []GeoFeature{
		pointFeature("Monte León", ProvenanceGeoJSON, map[string]string{"provincia": "Santa Cruz"}),
	}
	overlays := []GeoFeature{polygonFeature("Monte León", ProvenanceKML)}

	result := Deduplicate(base, overlays)
	winner := result["monte leon"]
	if _, isPoly := winner.Geometry.(orb.Polygon); !isPoly {
		t.Fatal("expected the overlay polygon to be the representative")
	}
	if winner.Properties["provincia"] != "Santa Cruz" {
		t.Errorf("provincia = %q, expected backfill from base feature", winner.Properties["provincia"])
	}
}

func TestDeduplicateBackfillNeverOverwrites(t *testing.T) {
	base := []GeoFeature{
		pointFeature("Monte León", ProvenanceGeoJSON, map[string]string{"provincia": "Santa Cruz"}),
	}
	poly := polygonFeature("Monte León", ProvenanceKML)
	poly.Properties["provincia"] = "ya presente"

	result := Deduplicate(base, []GeoFeature{poly})
	if result["monte leon"].Properties["provincia"] != "ya presente" {
		t.Error("backfill overwrote an existing province")
	}
}
