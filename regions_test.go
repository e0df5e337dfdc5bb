package main

import (
	"reflect"
	"testing"
)

func dedupOf(features ...GeoFeature) map[string]*GeoFeature {
	return Deduplicate(features, nil)
}

func regionByID(t *testing.T, regions []Region, id RegionID) *Region {
	t.Helper()
	for i := range regions {
		if regions[i].ID == id {
			return &regions[i]
		}
	}
	t.Fatalf("region %q not found", id)
	return nil
}

func TestClassifyFixedRegionOrder(t *testing.T) {
	c := NewClassifier(false)
	regions, _ := c.Classify(map[string]*GeoFeature{})

	if len(regions) != 6 {
		t.Fatalf("expected exactly 6 regions, got %d", len(regions))
	}

	expected := []RegionID{"noa", "nea", "centro", "patagonia", "patagonia-austral", "mar-argentino"}
	for i, id := range expected {
		if regions[i].ID != id {
			t.Errorf("region[%d] = %q, expected %q", i, regions[i].ID, id)
		}
		if regions[i].Features == nil {
			t.Errorf("region %q has nil feature list, expected empty slice", id)
		}
	}
}

func TestClassifyExactMatch(t *testing.T) {
	c := NewClassifier(false)
	regions, trace := c.Classify(dedupOf(pointFeature("Parque Nacional Iguazú", ProvenanceGeoJSON, nil)))

	for _, region := range regions {
		count := len(region.Features)
		if region.ID == RegionNEA {
			if count != 1 {
				t.Errorf("nea has %d features, expected 1", count)
			}
		} else if count != 0 {
			t.Errorf("region %q has %d features, expected 0", region.ID, count)
		}
	}

	if len(trace) != 1 || trace[0].MatchOrigin != "exact" {
		t.Errorf("trace = %+v, expected one exact match", trace)
	}
}

func TestClassifySubstringMatch(t *testing.T) {
	c := NewClassifier(false)
	regions, trace := c.Classify(dedupOf(
		pointFeature("Núcleo Puerto Iguazú (Sector Administrativo)", ProvenanceGeoJSON, nil),
	))

	nea := regionByID(t, regions, RegionNEA)
	if len(nea.Features) != 1 {
		t.Fatalf("nea has %d features, expected the substring-matched fragment", len(nea.Features))
	}
	if trace[0].MatchOrigin != "substring" {
		t.Errorf("match origin = %q, expected substring", trace[0].MatchOrigin)
	}
}

func TestClassifyUnmatchedDropped(t *testing.T) {
	c := NewClassifier(false)
	regions, trace := c.Classify(dedupOf(pointFeature("Central Park", ProvenanceGeoJSON, nil)))

	for _, region := range regions {
		if len(region.Features) != 0 {
			t.Errorf("region %q has %d features, expected dropped feature in none", region.ID, len(region.Features))
		}
	}
	if len(trace) != 1 || trace[0].Outcome != "skipped" {
		t.Errorf("trace = %+v, expected one skipped entry", trace)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(false)
	dedup := dedupOf(
		pointFeature("Parque Nacional Iguazú", ProvenanceGeoJSON, nil),
		pointFeature("Lanín", ProvenanceGeoJSON, nil),
		pointFeature("Monte León", ProvenanceGeoJSON, nil),
		pointFeature("El Palmar", ProvenanceGeoJSON, nil),
	)

	first, _ := c.Classify(dedup)
	second, _ := c.Classify(dedup)

	if !reflect.DeepEqual(first, second) {
		t.Error("re-running classification on the same input produced different regions")
	}
}

func TestClassifyTableSpread(t *testing.T) {
	testCases := []struct {
		name     string
		expected RegionID
	}{
		{"PN Baritú", RegionNOA},
		{"Calilegua", RegionNOA},
		{"Iberá", RegionNEA},
		{"Quebrada del Condorito", RegionCentro},
		{"Nahuel Huapi", RegionPatagonia},
		{"Los Glaciares", RegionPatagoniaAustral},
		{"Tierra del Fuego", RegionPatagoniaAustral},
	}

	c := NewClassifier(false)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			regions, _ := c.Classify(dedupOf(pointFeature(tc.name, ProvenanceGeoJSON, nil)))
			r := regionByID(t, regions, tc.expected)
			if len(r.Features) != 1 {
				t.Errorf("%q not assigned to %q", tc.name, tc.expected)
			}
		})
	}
}

func TestGeographicFallbackDisabledByDefault(t *testing.T) {
	c := NewClassifier(false)
	feature := pointFeature("Laguna Desconocida", ProvenanceGeoJSON, map[string]string{"provincia": "Chubut"})

	regions, _ := c.Classify(dedupOf(feature))
	for _, region := range regions {
		if len(region.Features) != 0 {
			t.Errorf("fallback is off but feature landed in %q", region.ID)
		}
	}
}

func TestGeographicFallbackProvinceKeyword(t *testing.T) {
	c := NewClassifier(true)
	feature := pointFeature("Laguna Desconocida", ProvenanceGeoJSON, map[string]string{"provincia": "Chubut"})

	regions, trace := c.Classify(dedupOf(feature))
	patagonia := regionByID(t, regions, RegionPatagonia)
	if len(patagonia.Features) != 1 {
		t.Fatalf("expected province keyword to place feature in patagonia")
	}
	if trace[0].MatchOrigin != "geographic" {
		t.Errorf("match origin = %q, expected geographic", trace[0].MatchOrigin)
	}
}

func TestGeographicFallbackLatitudeBands(t *testing.T) {
	testCases := []struct {
		name     string
		lat, lon float64
		expected RegionID
	}{
		{"North Andean", -24.0, -65.5, RegionNOA},
		{"Northeast", -27.5, -58.0, RegionNEA},
		{"Central", -32.0, -64.0, RegionCentro},
		{"Northern Patagonia", -40.0, -71.0, RegionPatagonia},
		{"Deep south", -50.0, -69.0, RegionPatagoniaAustral},
		{"Open sea", -45.0, -55.0, RegionMarArgentino},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := regionForLatitude(tc.lat, tc.lon)
			if got != tc.expected {
				t.Errorf("regionForLatitude(%v, %v) = %q, expected %q", tc.lat, tc.lon, got, tc.expected)
			}
		})
	}
}

func TestGeographicFallbackNoGeometry(t *testing.T) {
	c := NewClassifier(true)
	feature := GeoFeature{
		RawName:    "Sitio Sin Datos",
		Geometry:   nil,
		Properties: map[string]string{},
		Provenance: ProvenanceGeoJSON,
	}

	dedup := map[string]*GeoFeature{NormalizeName(feature.RawName): &feature}
	regions, trace := c.Classify(dedup)
	for _, region := range regions {
		if len(region.Features) != 0 {
			t.Errorf("geometry-less unmatched feature landed in %q", region.ID)
		}
	}
	if trace[0].Outcome != "skipped" {
		t.Errorf("outcome = %q, expected skipped", trace[0].Outcome)
	}
}

func TestManualRulesNormalized(t *testing.T) {
	for _, rule := range manualRules {
		if rule.key != NormalizeName(rule.key) {
			t.Errorf("rule key %q is not in normalized form", rule.key)
		}
	}
}
