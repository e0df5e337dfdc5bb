package main

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CatalogService owns the shared pipeline state: raw features from
// both sources, the classified regions, and the composed map. Feature
// lists are append-only; the regions structure and map composition are
// replaced wholesale by every rebuild, which re-runs the full
// classification pass on the current feature set. Input volumes are
// tens of features, so no incremental diffing is attempted.
type CatalogService struct {
	cfg          *Config
	loader       *CatalogLoader
	s3           *S3Client // nil when no bucket configured
	classifier   *Classifier
	composer     *Composer
	flatComposer *Composer

	mu          sync.RWMutex
	base        []GeoFeature
	overlays    []GeoFeature
	regions     []Region
	trace       []TraceEntry
	composition *MapComposition
	flat        *MapComposition
	loadedAt    time.Time
}

// NewCatalogService wires the pipeline together. db and s3 may be nil.
func NewCatalogService(cfg *Config, db *Database, s3 *S3Client) *CatalogService {
	svc := &CatalogService{
		cfg:          cfg,
		loader:       NewCatalogLoader(cfg, db),
		s3:           s3,
		classifier:   NewClassifier(cfg.Map.GeoFallback),
		composer:     NewComposer(cfg.Map),
		flatComposer: NewComposer(cfg.Map),
	}
	svc.rebuildLocked()
	return svc
}

// LoadAll performs a full load: base catalog first, then every overlay
// concurrently. The classification pass re-runs after the base arrives
// and again after each overlay, so partial data is usable immediately
// and a slow overlay only delays its own polygon.
func (s *CatalogService) LoadAll(ctx context.Context) {
	base := s.loader.LoadBaseCatalog(ctx)

	s.mu.Lock()
	s.base = base
	s.loadedAt = time.Now()
	s.rebuildLocked()
	s.mu.Unlock()

	s.loadOverlays(ctx, s.appendOverlay)
}

// loadOverlays fans out over local KML files and the S3 overlay
// prefix, handing each successfully converted overlay to sink. Each
// overlay fails independently: logged and skipped. sink is called from
// multiple goroutines.
func (s *CatalogService) loadOverlays(ctx context.Context, sink func([]GeoFeature)) {
	var wg sync.WaitGroup

	for _, path := range s.loader.DiscoverLocalOverlays() {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			features, err := s.loader.LoadOverlayFile(path)
			if err != nil {
				slog.Warn("skipping broken overlay", "path", path, "error", err)
				return
			}
			sink(features)
		}(path)
	}

	if s.s3 != nil {
		keys, err := s.s3.ListOverlayKeys(ctx)
		if err != nil {
			slog.Warn("failed to list S3 overlays", "error", err)
		}
		for _, key := range keys {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				data, err := s.s3.FetchOverlay(ctx, key)
				if err != nil {
					slog.Warn("skipping unreachable overlay", "key", key, "error", err)
					return
				}
				features, err := ConvertKML(data, parkLabelFromKey(key))
				if err != nil {
					slog.Warn("skipping unconvertible overlay", "key", key, "error", err)
					return
				}
				sink(features)
			}(key)
		}
	}

	wg.Wait()
}

// appendOverlay adds overlay features and re-runs classification.
func (s *CatalogService) appendOverlay(features []GeoFeature) {
	if len(features) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlays = append(s.overlays, features...)
	s.rebuildLocked()
}

// rebuildLocked re-runs dedup, classification, and composition over
// the full current feature set. Caller holds the write lock (or has
// exclusive access during construction).
func (s *CatalogService) rebuildLocked() {
	dedup := Deduplicate(s.base, s.overlays)
	regions, trace := s.classifier.Classify(dedup)

	s.regions = regions
	s.trace = trace
	s.composition = s.composer.Compose(regions)

	keys := make([]string, 0, len(dedup))
	for k := range dedup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	flat := make([]GeoFeature, 0, len(keys))
	for _, k := range keys {
		flat = append(flat, *dedup[k])
	}
	s.flat = s.flatComposer.ComposeFeatures(flat)

	assigned := 0
	for _, r := range regions {
		assigned += len(r.Features)
	}
	slog.Info("catalog rebuilt",
		"base", len(s.base),
		"overlays", len(s.overlays),
		"unique", len(dedup),
		"assigned", assigned,
		"skipped", len(trace)-assigned)
}

// Refresh reloads everything from scratch in the background and
// returns a job id for log correlation. The reload runs on its own
// context: it must outlive the HTTP request that asked for it.
func (s *CatalogService) Refresh() string {
	jobID := uuid.New().String()
	logger := slog.With("job_id", jobID)
	logger.Info("catalog refresh requested")

	go func() {
		s.reload(context.Background())
		logger.Info("catalog refresh complete")
	}()

	return jobID
}

// reload fetches a fresh base catalog and overlay set into locals and
// swaps them in as one unit. A reload that yields no base catalog
// keeps the previous state; stale data beats an empty map.
func (s *CatalogService) reload(ctx context.Context) {
	base := s.loader.LoadBaseCatalog(ctx)
	if len(base) == 0 {
		slog.Warn("refresh yielded no base catalog, keeping previous state")
		return
	}

	var mu sync.Mutex
	var overlays []GeoFeature
	s.loadOverlays(ctx, func(features []GeoFeature) {
		mu.Lock()
		overlays = append(overlays, features...)
		mu.Unlock()
	})

	s.mu.Lock()
	s.base = base
	s.overlays = overlays
	s.loadedAt = time.Now()
	s.rebuildLocked()
	s.mu.Unlock()
}

// Regions returns the current six-region classification.
func (s *CatalogService) Regions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regions
}

// Trace returns the per-feature classification diagnostics.
func (s *CatalogService) Trace() []TraceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trace
}

// Composition returns the current map model.
func (s *CatalogService) Composition() *MapComposition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.composition
}

// FlatComposition returns the un-regionalized map model over the full
// deduplicated feature set, including features the region table does
// not know.
func (s *CatalogService) FlatComposition() *MapComposition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flat
}

// Select resolves a park by name for the map view. When neither a
// polygon nor a marker layer exists, it falls back to the raw
// coordinates of the base catalog feature.
func (s *CatalogService) Select(name string) (*Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel, ok := s.composer.Select(name); ok {
		return sel, true
	}

	key := NormalizeName(name)
	for i := range s.base {
		if NormalizeName(s.base[i].RawName) != key || s.base[i].Geometry == nil {
			continue
		}
		center := boundCenter(s.base[i].Geometry.Bound())
		return &Selection{
			Action: "raw-coords",
			Key:    key,
			Center: &[2]float64{center.Lon(), center.Lat()},
			Zoom:   s.cfg.Map.MarkerZoom,
		}, true
	}

	return nil, false
}

// DragLocked evaluates the dragging-lock policy for a client view.
func (s *CatalogService) DragLocked(view Bounds, zoom int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.composer.ShouldLockDragging(view, zoom)
}

// MapClick forwards the one-shot reset behavior.
func (s *CatalogService) MapClick() *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer.MapClick()
}

// LoadedAt reports when the base catalog was last loaded.
func (s *CatalogService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
