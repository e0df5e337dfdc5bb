package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// APIServer exposes the composed map and region breakdown over HTTP
// for the web front end.
type APIServer struct {
	service *CatalogService
	config  *Config
}

// NewAPIServer creates a new API server
func NewAPIServer(service *CatalogService, config *Config) *APIServer {
	return &APIServer{service: service, config: config}
}

// Start starts the API server
func (s *APIServer) Start(port int) error {
	http.HandleFunc("/api/map", s.handleMap)
	http.HandleFunc("/api/regions", s.handleRegions)
	http.HandleFunc("/api/parks", s.handleParks)
	http.HandleFunc("/api/parks/select", s.handleSelect)
	http.HandleFunc("/api/map/click", s.handleMapClick)
	http.HandleFunc("/api/map/draglock", s.handleDragLock)
	http.HandleFunc("/api/refresh", s.handleRefresh)
	http.HandleFunc("/api/trace", s.handleTrace)
	http.HandleFunc("/health", s.handleHealth)

	addr := fmt.Sprintf(":%d", port)
	slog.Info("starting API server", "port", port)
	return http.ListenAndServe(addr, nil)
}

// handleMap handles GET /api/map. The default model carries the
// regionalized layers; ?view=all serves every deduplicated feature,
// including parks the region table does not know.
func (s *APIServer) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Query().Get("view") == "all" {
		writeJSON(w, http.StatusOK, s.service.FlatComposition())
		return
	}
	writeJSON(w, http.StatusOK, s.service.Composition())
}

// handleRegions handles GET /api/regions
func (s *APIServer) handleRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions": s.service.Regions(),
	})
}

// handleParks handles GET /api/parks - the flat classified park list
func (s *APIServer) handleParks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type parkEntry struct {
		Name     string   `json:"name"`
		Region   RegionID `json:"region"`
		Province string   `json:"province,omitempty"`
	}

	var parks []parkEntry
	for _, region := range s.service.Regions() {
		for i := range region.Features {
			f := &region.Features[i]
			parks = append(parks, parkEntry{
				Name:     f.RawName,
				Region:   region.ID,
				Province: provinceOf(f),
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"parks": parks})
}

// handleSelect handles GET /api/parks/select?name=
func (s *APIServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name parameter is required", http.StatusBadRequest)
		return
	}

	selection, ok := s.service.Select(name)
	if !ok {
		http.Error(w, fmt.Sprintf("no park matches %q", name), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, selection)
}

// handleMapClick handles POST /api/map/click - the one-shot view reset
func (s *APIServer) handleMapClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if sel := s.service.MapClick(); sel != nil {
		writeJSON(w, http.StatusOK, sel)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"action": "none"})
}

// handleDragLock handles GET /api/map/draglock?minLon=&minLat=&maxLon=&maxLat=&zoom=
// Evaluated by the client on every zoom-end event.
func (s *APIServer) handleDragLock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	view := Bounds{}
	var err error
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"minLon", &view.MinLon}, {"minLat", &view.MinLat},
		{"maxLon", &view.MaxLon}, {"maxLat", &view.MaxLat},
	} {
		*p.dst, err = strconv.ParseFloat(q.Get(p.name), 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid %s", p.name), http.StatusBadRequest)
			return
		}
	}
	zoom, err := strconv.Atoi(q.Get("zoom"))
	if err != nil {
		http.Error(w, "invalid zoom", http.StatusBadRequest)
		return
	}

	locked := s.service.DragLocked(view, zoom)
	writeJSON(w, http.StatusOK, map[string]bool{"dragLocked": locked})
}

// handleRefresh handles POST /api/refresh
func (s *APIServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := s.service.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{
		"jobId":   jobID,
		"message": "catalog refresh started",
	})
}

// handleTrace handles GET /api/trace - classification diagnostics
func (s *APIServer) handleTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trace": s.service.Trace(),
	})
}

// handleHealth handles GET /health
func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"loadedAt": s.service.LoadedAt().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
