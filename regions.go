package main

import (
	"log/slog"
	"sort"
	"strings"
)

// regionRule maps a canonical park-name key to its region. Rules are
// kept in a slice, not a map, because substring fallback uses the
// first match in table order and that order must be deterministic.
type regionRule struct {
	key    string
	region RegionID
}

// The curated park-to-region table. Keys are normalized at startup so
// editorial variants ("pn baritu", "Baritú") land on the same rule.
var manualRules = buildManualRules(map[RegionID][]string{
	RegionNOA: {
		"pn baritu", "el rey", "los cardones", "aconquija", "calilegua", "copo",
	},
	RegionNEA: {
		"iguazu", "chaco", "el impenetrable", "laguna el palmar", "ibera",
		"mburucuya", "rio pilcomayo",
	},
	RegionCentro: {
		"quebrada del condorito", "traslasierra", "ansenuza", "el leoncito",
		"san guillermo", "sierra de las quijadas", "talampaya",
		"islas santa de fe", "pre-delta", "el palmar",
		"ciervo de los pantanos", "campos del tuyu",
	},
	RegionPatagonia: {
		"lanin", "laguna blanca", "los arrayanes", "nahuel huapi",
		"islote lobos", "lihue calel", "los alerces", "lago puelo",
	},
	RegionPatagoniaAustral: {
		"los glaciares", "perito moreno", "patagonia",
		"bosques petrificados del jaramillo", "monte leon", "tierra del fuego",
	},
	RegionMarArgentino: {},
})

func buildManualRules(table map[RegionID][]string) []regionRule {
	var rules []regionRule
	for _, id := range regionOrder {
		for _, name := range table[id] {
			key := NormalizeName(name)
			if key == "" {
				continue
			}
			rules = append(rules, regionRule{key: key, region: id})
		}
	}
	return rules
}

// provinceRegions backs the legacy geographic fallback: a province
// keyword found in the feature metadata picks the region directly.
var provinceRegions = []struct {
	keyword string
	region  RegionID
}{
	{"jujuy", RegionNOA},
	{"salta", RegionNOA},
	{"tucuman", RegionNOA},
	{"catamarca", RegionNOA},
	{"santiago del estero", RegionNOA},
	{"misiones", RegionNEA},
	{"corrientes", RegionNEA},
	{"chaco", RegionNEA},
	{"formosa", RegionNEA},
	{"cordoba", RegionCentro},
	{"san luis", RegionCentro},
	{"san juan", RegionCentro},
	{"la rioja", RegionCentro},
	{"entre rios", RegionCentro},
	{"santa fe", RegionCentro},
	{"buenos aires", RegionCentro},
	{"neuquen", RegionPatagonia},
	{"rio negro", RegionPatagonia},
	{"la pampa", RegionPatagonia},
	{"chubut", RegionPatagonia},
	{"santa cruz", RegionPatagoniaAustral},
	{"tierra del fuego", RegionPatagoniaAustral},
}

// Classifier assigns deduplicated features to the six canonical
// regions. The geographic fallback (province keyword, then latitude
// banding) predates the curated table and is kept behind a flag;
// default behavior drops features the table does not know.
type Classifier struct {
	geoFallback bool
}

// NewClassifier creates a classifier. geoFallback re-enables the
// legacy geographic heuristic for features with no manual-table match.
func NewClassifier(geoFallback bool) *Classifier {
	return &Classifier{geoFallback: geoFallback}
}

// Classify produces exactly six regions in fixed order. Features are
// visited in sorted-key order so repeated passes over the same input
// yield identical output. Unmatched features are dropped, not bucketed.
func (c *Classifier) Classify(dedup map[string]*GeoFeature) ([]Region, []TraceEntry) {
	regions := make([]Region, len(regionOrder))
	index := make(map[RegionID]int, len(regionOrder))
	for i, id := range regionOrder {
		regions[i] = Region{ID: id, Name: regionNames[id], Features: []GeoFeature{}}
		index[id] = i
	}

	keys := make([]string, 0, len(dedup))
	for k := range dedup {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	trace := make([]TraceEntry, 0, len(keys))
	for _, key := range keys {
		feature := dedup[key]

		region, origin, ok := c.classifyKey(key, feature)
		entry := TraceEntry{
			Key:        key,
			RawName:    feature.RawName,
			Provenance: feature.Provenance,
		}

		if !ok {
			entry.Outcome = "skipped"
			trace = append(trace, entry)
			slog.Debug("no region match, feature dropped", "key", key, "name", feature.RawName)
			continue
		}

		entry.Outcome = "assigned"
		entry.Region = region
		entry.MatchOrigin = origin
		trace = append(trace, entry)

		i := index[region]
		regions[i].Features = append(regions[i].Features, *feature)
	}

	return regions, trace
}

// classifyKey resolves a single key: exact table hit, then substring
// containment in either direction in table order, then (only when
// enabled) the geographic fallback.
func (c *Classifier) classifyKey(key string, feature *GeoFeature) (RegionID, string, bool) {
	for _, rule := range manualRules {
		if rule.key == key {
			return rule.region, "exact", true
		}
	}

	for _, rule := range manualRules {
		if strings.Contains(key, rule.key) || strings.Contains(rule.key, key) {
			return rule.region, "substring", true
		}
	}

	if c.geoFallback {
		if region, ok := classifyGeographic(feature); ok {
			return region, "geographic", true
		}
	}

	return "", "", false
}

// classifyGeographic is the legacy heuristic: match a province keyword
// in the feature metadata, else band by latitude of the geometry.
func classifyGeographic(f *GeoFeature) (RegionID, bool) {
	meta := NormalizeName(provinceOf(f) + " " + f.Properties["description"])
	for _, p := range provinceRegions {
		if strings.Contains(meta, p.keyword) {
			return p.region, true
		}
	}

	if f.Geometry == nil {
		return "", false
	}
	center := boundCenter(f.Geometry.Bound())
	return regionForLatitude(center.Lat(), center.Lon()), true
}

// regionForLatitude bands Argentina north to south. The northeast is
// split off by longitude; the open sea east of the coast maps to the
// marine region.
func regionForLatitude(lat, lon float64) RegionID {
	if lon > -57.0 {
		return RegionMarArgentino
	}
	switch {
	case lat >= -29.0:
		if lon >= -61.0 {
			return RegionNEA
		}
		return RegionNOA
	case lat >= -36.0:
		return RegionCentro
	case lat >= -44.0:
		return RegionPatagonia
	default:
		return RegionPatagoniaAustral
	}
}
