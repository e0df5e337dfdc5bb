package main

import (
	"github.com/paulmach/orb"
)

// Provenance identifies which ingestion path produced a feature.
type Provenance string

const (
	ProvenanceGeoJSON Provenance = "geojson" // base catalog
	ProvenanceKML     Provenance = "kml"     // per-park boundary overlay
)

// GeoFeature is a single geographic record from any source.
// It is read-only after ingestion except for the narrow province
// backfill step in the deduplicator.
type GeoFeature struct {
	RawName    string            `json:"rawName"`
	Geometry   orb.Geometry      `json:"-"` // nil for malformed sources
	Properties map[string]string `json:"properties"`
	Provenance Provenance        `json:"provenance"`
}

// RegionID is one of the six canonical geographic regions.
type RegionID string

const (
	RegionNOA              RegionID = "noa"
	RegionNEA              RegionID = "nea"
	RegionCentro           RegionID = "centro"
	RegionPatagonia        RegionID = "patagonia"
	RegionPatagoniaAustral RegionID = "patagonia-austral"
	RegionMarArgentino     RegionID = "mar-argentino"
)

// regionOrder is the fixed output order of the six regions.
var regionOrder = [6]RegionID{
	RegionNOA,
	RegionNEA,
	RegionCentro,
	RegionPatagonia,
	RegionPatagoniaAustral,
	RegionMarArgentino,
}

var regionNames = map[RegionID]string{
	RegionNOA:              "NOA",
	RegionNEA:              "NEA",
	RegionCentro:           "Centro",
	RegionPatagonia:        "Patagonia",
	RegionPatagoniaAustral: "Patagonia Austral",
	RegionMarArgentino:     "Mar Argentino",
}

// Region owns the ordered list of deduplicated features assigned to it.
// Regions are recreated wholesale on every classification pass.
type Region struct {
	ID       RegionID     `json:"id"`
	Name     string       `json:"name"`
	Features []GeoFeature `json:"features"`
}

// TraceEntry records one classification decision for diagnostics.
type TraceEntry struct {
	Key         string     `json:"key"`
	RawName     string     `json:"rawName"`
	Region      RegionID   `json:"region,omitempty"`
	Outcome     string     `json:"outcome"` // "assigned" or "skipped"
	MatchOrigin string     `json:"matchOrigin,omitempty"`
	Provenance  Provenance `json:"provenance"`
}

// Bounds is a lat/lng bounding box in a JSON-friendly shape.
type Bounds struct {
	MinLon float64 `json:"minLon"`
	MinLat float64 `json:"minLat"`
	MaxLon float64 `json:"maxLon"`
	MaxLat float64 `json:"maxLat"`
}

func boundsFromOrb(b orb.Bound) Bounds {
	return Bounds{
		MinLon: b.Min.Lon(),
		MinLat: b.Min.Lat(),
		MaxLon: b.Max.Lon(),
		MaxLat: b.Max.Lat(),
	}
}

// Contains reports whether b fully contains other.
func (b Bounds) Contains(other Bounds) bool {
	return b.MinLon <= other.MinLon && b.MinLat <= other.MinLat &&
		b.MaxLon >= other.MaxLon && b.MaxLat >= other.MaxLat
}
