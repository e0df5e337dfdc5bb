package main

import (
	"testing"

	"github.com/paulmach/orb"
)

const baseCatalogJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {
				"name": "Parque Nacional Iguazú",
				"description": "Cataratas del Iguazú\nProvincia de Misiones"
			},
			"geometry": {"type": "Point", "coordinates": [-54.44, -25.69]}
		},
		{
			"type": "Feature",
			"properties": {
				"ROTULO": "Monte León",
				"provincia": "Santa Cruz"
			},
			"geometry": {"type": "Point", "coordinates": [-68.88, -50.33]}
		},
		{
			"type": "Feature",
			"properties": {
				"name": "PN Monte León",
				"description": "Costa patagónica"
			},
			"geometry": {"type": "Point", "coordinates": [-68.87, -50.34]}
		}
	]
}`

const monteLeonKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
	<Document>
		<Placemark>
			<name>Parque Nacional Monte León</name>
			<Polygon>
				<outerBoundaryIs>
					<LinearRing>
						<coordinates>
							-68.95,-50.25,0 -68.80,-50.25,0 -68.80,-50.40,0 -68.95,-50.40,0 -68.95,-50.25,0
						</coordinates>
					</LinearRing>
				</outerBoundaryIs>
			</Polygon>
		</Placemark>
	</Document>
</kml>`

func runPipeline(t *testing.T, overlayKML string) ([]Region, []TraceEntry, *MapComposition) {
	t.Helper()

	base, err := ParseBaseCatalog([]byte(baseCatalogJSON))
	if err != nil {
		t.Fatalf("failed to parse base catalog: %v", err)
	}

	var overlays []GeoFeature
	if overlayKML != "" {
		overlays, err = ConvertKML([]byte(overlayKML), "monte leon")
		if err != nil {
			t.Fatalf("failed to convert overlay: %v", err)
		}
	}

	dedup := Deduplicate(base, overlays)
	regions, trace := NewClassifier(false).Classify(dedup)
	comp := NewComposer(testMapConfig()).Compose(regions)
	return regions, trace, comp
}

func TestPipelineBaseCatalogOnly(t *testing.T) {
	regions, trace, comp := runPipeline(t, "")

	var nea, austral *Region
	for i := range regions {
		switch regions[i].ID {
		case RegionNEA:
			nea = &regions[i]
		case RegionPatagoniaAustral:
			austral = &regions[i]
		}
	}

	if len(nea.Features) != 1 {
		t.Fatalf("expected exactly one NEA feature, got %d", len(nea.Features))
	}
	if nea.Features[0].RawName != "Parque Nacional Iguazú" {
		t.Errorf("unexpected NEA feature: %q", nea.Features[0].RawName)
	}

	// The two Monte León catalog rows collapse into one entry.
	if len(austral.Features) != 1 {
		t.Fatalf("expected exactly one Patagonia Austral feature, got %d", len(austral.Features))
	}

	for _, entry := range trace {
		if entry.Outcome != "assigned" {
			t.Errorf("expected every catalog feature assigned, %q was %q", entry.RawName, entry.Outcome)
		}
	}

	if len(comp.Layers) != 2 {
		t.Fatalf("expected 2 map layers, got %d", len(comp.Layers))
	}
	for _, layer := range comp.Layers {
		if layer.Kind != LayerMarker {
			t.Errorf("point-only catalog must yield markers, got %q", layer.Kind)
		}
		if layer.Color == marineBlue {
			t.Errorf("inland parks must not get the marine color: %q", layer.Title)
		}
	}
}

func TestPipelineOverlayPolygonWins(t *testing.T) {
	regions, _, comp := runPipeline(t, monteLeonKML)

	var austral *Region
	for i := range regions {
		if regions[i].ID == RegionPatagoniaAustral {
			austral = &regions[i]
		}
	}

	if len(austral.Features) != 1 {
		t.Fatalf("expected exactly one Patagonia Austral feature, got %d", len(austral.Features))
	}
	f := austral.Features[0]
	if f.Provenance != ProvenanceKML {
		t.Errorf("boundary overlay must win the dedup, got provenance %q", f.Provenance)
	}
	if _, ok := f.Geometry.(orb.Polygon); !ok {
		t.Errorf("expected a polygon geometry, got %T", f.Geometry)
	}
	if got := provinceOf(&f); got != "Santa Cruz" {
		t.Errorf("expected province backfilled from the base catalog, got %q", got)
	}

	var polygons, markers int
	for _, layer := range comp.Layers {
		switch layer.Kind {
		case LayerPolygon:
			polygons++
		case LayerMarker:
			markers++
		}
	}
	if polygons != 1 || markers != 1 {
		t.Fatalf("expected 1 polygon and 1 marker layer, got %d and %d", polygons, markers)
	}

	c := NewComposer(testMapConfig())
	c.Compose(regions)
	sel, ok := c.Select("Monte León")
	if !ok {
		t.Fatal("expected the overlay park to be selectable")
	}
	if sel.Action != "fit-bounds" {
		t.Errorf("boundary parks must fit to bounds on selection, got %q", sel.Action)
	}
}

func TestPipelineServiceFallbackSelection(t *testing.T) {
	base, err := ParseBaseCatalog([]byte(baseCatalogJSON))
	if err != nil {
		t.Fatalf("failed to parse base catalog: %v", err)
	}

	cfg := &Config{Map: testMapConfig()}
	svc := NewCatalogService(cfg, nil, nil)
	svc.base = base
	svc.rebuildLocked()

	// "Cataratas" matches no layer key; the raw-coords fallback only
	// kicks in for names present in the base catalog.
	if _, ok := svc.Select("Cataratas"); ok {
		t.Error("names absent from catalog and layers must not resolve")
	}

	sel, ok := svc.Select("Parque Nacional Iguazú")
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.Action != "pan-marker" {
		t.Errorf("classified parks resolve through the composer, got %q", sel.Action)
	}
}
