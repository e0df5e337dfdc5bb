package main

import (
	"fmt"
	"html"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// argentinaBound approximates national territory; the viewport is
// constrained to it and drag locking is evaluated against it.
var argentinaBound = orb.Bound{
	Min: orb.Point{-73.6, -55.2},
	Max: orb.Point{-53.6, -21.7},
}

const marineBlue = "#1e90ff"

func boundCenter(b orb.Bound) orb.Point {
	return orb.Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}
}

var regionColors = map[RegionID]string{
	RegionNOA:              "#e07a1f",
	RegionNEA:              "#2e8b57",
	RegionCentro:           "#c9a227",
	RegionPatagonia:        "#2f6f8f",
	RegionPatagoniaAustral: "#6a5acd",
	RegionMarArgentino:     marineBlue,
}

// marineMarkers are name fragments that force the marine-blue color
// regardless of region, matched against the normalized name.
var marineMarkers = []string{"marino", "marina", "pinguino", "costero", "mar argentino"}

// LayerKind distinguishes point markers from boundary polygons.
type LayerKind string

const (
	LayerMarker  LayerKind = "marker"
	LayerPolygon LayerKind = "polygon"
)

// TileLayer is the basemap configuration handed to the front end.
type TileLayer struct {
	URLTemplate string `json:"urlTemplate"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"maxZoom"`
}

// FeatureLayer is one renderable map layer: a clustered marker or a
// region-colored polygon with its popup content.
type FeatureLayer struct {
	Key       string            `json:"key"`
	Title     string            `json:"title"`
	Kind      LayerKind         `json:"kind"`
	Region    RegionID          `json:"region,omitempty"`
	Color     string            `json:"color"`
	Popup     string            `json:"popup"`
	Clustered bool              `json:"clustered"`
	Center    *[2]float64       `json:"center,omitempty"` // lon, lat
	Geometry  *geojson.Geometry `json:"geometry,omitempty"`
}

// MapComposition is the full serializable map model.
type MapComposition struct {
	Tiles        TileLayer       `json:"tiles"`
	Layers       []*FeatureLayer `json:"layers"`
	MaxBounds    Bounds          `json:"maxBounds"`
	FitToMarkers bool            `json:"fitToMarkers"`
	MarkerBounds *Bounds         `json:"markerBounds,omitempty"`
	DragLockZoom int             `json:"dragLockZoom"`
}

// Selection tells the front end how to focus a park chosen by name.
type Selection struct {
	Action    string      `json:"action"` // "fit-bounds", "pan-marker", "raw-coords", "reset"
	Key       string      `json:"key,omitempty"`
	Bounds    *Bounds     `json:"bounds,omitempty"`
	Center    *[2]float64 `json:"center,omitempty"` // lon, lat
	Zoom      int         `json:"zoom,omitempty"`
	OpenPopup bool        `json:"openPopup,omitempty"`
}

// Composer builds map compositions and owns the by-name layer indexes
// plus the one-shot zoom state. It is not safe for concurrent use; the
// catalog service serializes access.
type Composer struct {
	cfg          MapConfig
	markerByKey  map[string]*FeatureLayer
	polygonByKey map[string]*FeatureLayer
	fitIssued    bool
	zoomed       bool
}

// NewComposer creates a composer with empty indexes.
func NewComposer(cfg MapConfig) *Composer {
	return &Composer{
		cfg:          cfg,
		markerByKey:  map[string]*FeatureLayer{},
		polygonByKey: map[string]*FeatureLayer{},
	}
}

// Compose rebuilds the map model from the six classified regions. The
// layer indexes are replaced wholesale; the initial fit-to-markers
// instruction is issued exactly once per composer lifetime.
func (c *Composer) Compose(regions []Region) *MapComposition {
	var layers []*FeatureLayer
	for _, region := range regions {
		for i := range region.Features {
			if layer := c.buildLayer(&region.Features[i], region.ID); layer != nil {
				layers = append(layers, layer)
			}
		}
	}
	return c.finish(layers)
}

// ComposeFeatures builds the plain (un-regionalized) map view from the
// full deduplicated feature set.
func (c *Composer) ComposeFeatures(features []GeoFeature) *MapComposition {
	var layers []*FeatureLayer
	for i := range features {
		if layer := c.buildLayer(&features[i], ""); layer != nil {
			layers = append(layers, layer)
		}
	}
	return c.finish(layers)
}

func (c *Composer) finish(layers []*FeatureLayer) *MapComposition {
	c.markerByKey = map[string]*FeatureLayer{}
	c.polygonByKey = map[string]*FeatureLayer{}

	markerCount := 0
	for _, layer := range layers {
		if layer.Kind == LayerMarker {
			markerCount++
		}
	}
	clustered := markerCount > c.cfg.ClusterThreshold

	var markerBound orb.Bound
	haveMarkers := false
	for _, layer := range layers {
		switch layer.Kind {
		case LayerMarker:
			layer.Clustered = clustered
			if _, taken := c.markerByKey[layer.Key]; !taken {
				c.markerByKey[layer.Key] = layer
			}
			pt := orb.Point{layer.Center[0], layer.Center[1]}
			if !haveMarkers {
				markerBound = pt.Bound()
				haveMarkers = true
			} else {
				markerBound = markerBound.Union(pt.Bound())
			}
		case LayerPolygon:
			if _, taken := c.polygonByKey[layer.Key]; !taken {
				c.polygonByKey[layer.Key] = layer
			}
		}
	}

	comp := &MapComposition{
		Tiles: TileLayer{
			URLTemplate: c.cfg.TileURL,
			Attribution: c.cfg.TileAttribution,
			MaxZoom:     c.cfg.MaxZoom,
		},
		Layers:       layers,
		MaxBounds:    boundsFromOrb(argentinaBound),
		DragLockZoom: c.cfg.DragLockZoom,
	}

	if haveMarkers {
		b := boundsFromOrb(markerBound)
		comp.MarkerBounds = &b
	}
	if !c.fitIssued && len(layers) > 0 {
		comp.FitToMarkers = true
		c.fitIssued = true
	}

	return comp
}

// buildLayer turns one feature into a marker or polygon layer.
// Features without geometry are not renderable and yield nil.
func (c *Composer) buildLayer(f *GeoFeature, region RegionID) *FeatureLayer {
	if f.Geometry == nil {
		return nil
	}

	layer := &FeatureLayer{
		Key:    NormalizeName(f.RawName),
		Title:  f.RawName,
		Region: region,
		Color:  featureColor(f, region),
		Popup:  popupHTML(f),
	}

	switch g := f.Geometry.(type) {
	case orb.Point:
		layer.Kind = LayerMarker
		layer.Center = &[2]float64{g.Lon(), g.Lat()}
	case orb.Polygon, orb.MultiPolygon, orb.LineString, orb.MultiLineString:
		layer.Kind = LayerPolygon
		layer.Geometry = geojson.NewGeometry(f.Geometry)
		center := boundCenter(f.Geometry.Bound())
		layer.Center = &[2]float64{center.Lon(), center.Lat()}
	default:
		return nil
	}

	return layer
}

// featureColor picks the render color: the marine-blue override wins
// for coastal/marine park names, then an explicit category property,
// then the region palette.
func featureColor(f *GeoFeature, region RegionID) string {
	key := NormalizeName(f.RawName)
	for _, marker := range marineMarkers {
		if strings.Contains(key, marker) {
			return marineBlue
		}
	}

	if cat := f.Properties["category"]; cat != "" {
		if color, ok := regionColors[RegionID(cat)]; ok {
			return color
		}
	}

	if color, ok := regionColors[region]; ok {
		return color
	}
	return "#2e8b57"
}

// popupHTML renders the title/description popup. Source descriptions
// already contain markup sometimes, so everything is escaped.
func popupHTML(f *GeoFeature) string {
	title := html.EscapeString(f.RawName)
	desc := strings.TrimSpace(htmlTagRe.ReplaceAllString(f.Properties["description"], " "))
	if desc == "" {
		return fmt.Sprintf("<strong>%s</strong>", title)
	}
	return fmt.Sprintf("<strong>%s</strong><br>%s", title, html.EscapeString(desc))
}

// ShouldLockDragging implements the pan policy, re-evaluated on every
// zoom end: dragging is off while the view already shows the whole
// country or the zoom is at/below the lock threshold.
func (c *Composer) ShouldLockDragging(view Bounds, zoom int) bool {
	return view.Contains(boundsFromOrb(argentinaBound)) || zoom <= c.cfg.DragLockZoom
}

// Select resolves a park chosen by name: fit to its polygon when an
// overlay boundary exists, else de-cluster and pan to its marker at
// the minimum marker zoom. Returns false when the composer has no
// layer for the name; callers then fall back to raw catalog
// coordinates.
func (c *Composer) Select(name string) (*Selection, bool) {
	key := NormalizeName(name)
	if key == "" {
		return nil, false
	}

	if layer, ok := c.polygonByKey[key]; ok {
		bound := layer.Geometry.Geometry().Bound()
		b := boundsFromOrb(bound)
		c.zoomed = true
		return &Selection{
			Action:    "fit-bounds",
			Key:       key,
			Bounds:    &b,
			OpenPopup: true,
		}, true
	}

	if layer, ok := c.markerByKey[key]; ok {
		c.zoomed = true
		return &Selection{
			Action:    "pan-marker",
			Key:       key,
			Center:    layer.Center,
			Zoom:      c.cfg.MarkerZoom,
			OpenPopup: true,
		}, true
	}

	return nil, false
}

// MapClick handles a click on the map background: after a
// marker-triggered zoom the first click resets the view to national
// bounds. Returns nil when there is nothing to reset.
func (c *Composer) MapClick() *Selection {
	if !c.zoomed {
		return nil
	}
	c.zoomed = false
	b := boundsFromOrb(argentinaBound)
	return &Selection{Action: "reset", Bounds: &b}
}
