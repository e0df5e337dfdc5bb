package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
)

// CatalogLoader fetches the base GeoJSON catalog and discovers KML
// boundary overlays. All load failures are soft: they log and yield
// fewer features, never an aborted pipeline.
type CatalogLoader struct {
	cfg    *Config
	db     *Database
	client *http.Client
}

// NewCatalogLoader creates a loader. db may be nil when no catalog
// cache is configured.
func NewCatalogLoader(cfg *Config, db *Database) *CatalogLoader {
	return &CatalogLoader{
		cfg: cfg,
		db:  db,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LoadBaseCatalog loads the base park catalog. Priority: primary source
// (file path or HTTP URL), then the Postgres cache of the last good
// fetch. A total failure yields an empty list and a warning, not an
// error; downstream classification simply produces empty regions.
func (l *CatalogLoader) LoadBaseCatalog(ctx context.Context) []GeoFeature {
	logger := slog.With("source", l.cfg.Paths.CatalogSource)

	raw, err := l.fetchCatalog(ctx, l.cfg.Paths.CatalogSource)
	if err != nil {
		logger.Warn("failed to fetch base catalog, trying cache", "error", err)
		raw = l.loadCachedCatalog(ctx)
	} else if l.db != nil {
		if err := l.db.SaveCatalog(ctx, raw); err != nil {
			logger.Warn("failed to cache catalog", "error", err)
		}
	}

	if len(raw) == 0 {
		logger.Warn("no base catalog available, starting with empty feature set")
		return nil
	}

	features, err := ParseBaseCatalog(raw)
	if err != nil {
		logger.Warn("failed to parse base catalog", "error", err)
		return nil
	}

	logger.Info("base catalog loaded", "features", len(features))
	return features
}

// fetchCatalog reads the catalog from an HTTP URL or a local file path.
func (l *CatalogLoader) fetchCatalog(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("no catalog source configured")
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog request: %w", err)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch catalog: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog fetch returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog body: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return data, nil
}

func (l *CatalogLoader) loadCachedCatalog(ctx context.Context) []byte {
	if l.db == nil {
		return nil
	}
	raw, err := l.db.LoadCatalog(ctx)
	if err != nil {
		slog.Warn("no cached catalog available", "error", err)
		return nil
	}
	slog.Info("using cached catalog", "size_bytes", len(raw))
	return raw
}

// ParseBaseCatalog decodes a GeoJSON FeatureCollection into GeoFeatures
// tagged with base-catalog provenance.
func ParseBaseCatalog(raw []byte) ([]GeoFeature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal FeatureCollection: %w", err)
	}

	features := make([]GeoFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		props := make(map[string]string, len(f.Properties))
		for k, v := range f.Properties {
			switch val := v.(type) {
			case string:
				props[k] = val
			case float64:
				props[k] = fmt.Sprintf("%g", val)
			case bool:
				props[k] = fmt.Sprintf("%t", val)
			}
		}

		features = append(features, GeoFeature{
			RawName:    extractRawName(props),
			Geometry:   f.Geometry,
			Properties: props,
			Provenance: ProvenanceGeoJSON,
		})
	}

	return features, nil
}

// extractRawName pulls the best-effort label out of feature properties.
// The catalog has been through several hands: some features use "name",
// the provincial shapefile export uses "ROTULO", others capitalize
// "Name" or use the Spanish "nombre". Last resort is the first line of
// the free-text description.
func extractRawName(props map[string]string) string {
	for _, key := range []string{"name", "ROTULO", "Name", "nombre"} {
		if v := strings.TrimSpace(props[key]); v != "" {
			return v
		}
	}

	desc := htmlTagRe.ReplaceAllString(props["description"], " ")
	if line, _, found := strings.Cut(desc, "\n"); found {
		desc = line
	}
	return strings.TrimSpace(desc)
}

// DiscoverLocalOverlays lists per-park KML files in the overlays
// directory. A missing directory is tolerated: no overlays, no error.
func (l *CatalogLoader) DiscoverLocalOverlays() []string {
	dir := l.cfg.Paths.OverlaysDir
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("overlays directory not readable", "dir", dir, "error", err)
		return nil
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".kml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths
}

// LoadOverlayFile reads and converts one local KML overlay. The file
// basename (minus extension) is the park label used as fallback rawName.
func (l *CatalogLoader) LoadOverlayFile(path string) ([]GeoFeature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay: %w", err)
	}
	return ConvertKML(data, parkLabelFromKey(filepath.Base(path)))
}

// parkLabelFromKey derives a human-usable park label from a file or
// object key like "overlays/monte-leon.kml".
func parkLabelFromKey(key string) string {
	base := filepath.Base(key)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "-", " ")
}
