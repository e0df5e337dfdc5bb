package main

import (
	"log/slog"

	"github.com/paulmach/orb"
)

// dedupCandidate pairs a feature with its provenance score and its
// insertion order, so the winner per key is chosen by an explicit
// comparator instead of map insertion semantics.
type dedupCandidate struct {
	feature *GeoFeature
	score   int
	order   int
}

// betterCandidate reports whether a should be preferred over b:
// higher score wins, ties go to the earlier-inserted feature (base
// catalog features are inserted first).
func betterCandidate(a, b dedupCandidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.order < b.order
}

// featureScore ranks a feature as the representative for its key.
// Boundary geometry beats a bare point, base-catalog provenance beats
// an overlay, and a substantive description is a weak signal of a
// curated record.
func featureScore(f *GeoFeature) int {
	score := 0

	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.LineString, orb.MultiLineString:
		score += 10
	case orb.Point:
		score++
	}

	if f.Provenance == ProvenanceGeoJSON {
		score += 5
	}

	if len(f.Properties["description"]) > 30 {
		score++
	}

	return score
}

// Deduplicate merges same-park features from the base catalog and the
// KML overlays into one representative per normalized key. Geometries
// are never merged: the highest-scoring feature wins outright, and a
// missing province is backfilled from a same-key base-catalog feature
// afterwards.
func Deduplicate(base, overlays []GeoFeature) map[string]*GeoFeature {
	winners := make(map[string]dedupCandidate)
	order := 0

	insert := func(f GeoFeature) {
		key := NormalizeName(f.RawName)
		if key == "" {
			return
		}

		cand := dedupCandidate{feature: &f, score: featureScore(&f), order: order}
		order++

		if current, ok := winners[key]; !ok || betterCandidate(cand, current) {
			winners[key] = cand
		}
	}

	for _, f := range base {
		insert(f)
	}
	for _, f := range overlays {
		insert(f)
	}

	result := make(map[string]*GeoFeature, len(winners))
	for key, cand := range winners {
		result[key] = cand.feature
	}

	backfillProvinces(result, base)

	slog.Debug("deduplication complete",
		"base", len(base), "overlays", len(overlays), "unique", len(result))
	return result
}

// backfillProvinces patches a missing province on retained features
// from a same-key base-catalog record. KML overlays usually carry the
// richer boundary geometry but no administrative metadata; the base
// catalog is the reverse. Non-empty values are never overwritten.
func backfillProvinces(result map[string]*GeoFeature, base []GeoFeature) {
	for _, bf := range base {
		key := NormalizeName(bf.RawName)
		if key == "" {
			continue
		}

		winner, ok := result[key]
		if !ok || provinceOf(winner) != "" {
			continue
		}

		province := provinceOf(&bf)
		if province == "" {
			province = bf.Properties["description"]
		}
		if province == "" {
			continue
		}

		if winner.Properties == nil {
			winner.Properties = map[string]string{}
		}
		winner.Properties["provincia"] = province
	}
}

// provinceOf returns the province-like property of a feature, if any.
func provinceOf(f *GeoFeature) string {
	for _, key := range []string{"provincia", "province"} {
		if v := f.Properties[key]; v != "" {
			return v
		}
	}
	return ""
}
