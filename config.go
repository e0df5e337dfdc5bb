package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config represents the service configuration
type Config struct {
	Database DatabaseConfig
	S3       S3Config
	Paths    PathsConfig
	Map      MapConfig
	Service  ServiceConfig
}

// DatabaseConfig represents catalog cache database settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// S3Config represents the optional S3/R2 overlay source
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	OverlayPrefix   string // e.g. "overlays/"
}

// PathsConfig represents data source locations
type PathsConfig struct {
	CatalogSource string // base GeoJSON catalog: local path or HTTP URL
	OverlaysDir   string // directory of per-park KML files
}

// MapConfig represents map composition settings
type MapConfig struct {
	TileURL          string
	TileAttribution  string
	MaxZoom          int
	ClusterThreshold int  // cluster markers above this count
	DragLockZoom     int  // dragging locked at or below this zoom
	MarkerZoom       int  // minimum zoom when panning to a marker
	GeoFallback      bool // re-enable legacy geographic classifier
}

// ServiceConfig represents service-level settings
type ServiceConfig struct {
	Port int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig(envPath string) (*Config, error) {
	// Prefer .env.local over .env so local development overrides
	// production config.
	localEnvPath := strings.TrimSuffix(envPath, ".env") + ".env.local"
	if _, err := os.Stat(localEnvPath); err == nil {
		if err := loadEnvFile(localEnvPath); err != nil {
			return nil, fmt.Errorf("failed to load local env file: %w", err)
		}
	} else if _, err := os.Stat(envPath); err == nil {
		if err := loadEnvFile(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "andesverdes"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Bucket:          getEnv("S3_BUCKET", ""),
			OverlayPrefix:   getEnv("S3_OVERLAY_PREFIX", "overlays/"),
		},
		Paths: PathsConfig{
			CatalogSource: getEnv("CATALOG_SOURCE", "./public/parques-argentina.geojson"),
			OverlaysDir:   getEnv("OVERLAYS_DIR", "./public/overlays"),
		},
		Map: MapConfig{
			TileURL:          getEnv("MAP_TILE_URL", "https://tile.openstreetmap.org/{z}/{x}/{y}.png"),
			TileAttribution:  getEnv("MAP_TILE_ATTRIBUTION", "&copy; OpenStreetMap contributors"),
			MaxZoom:          getEnvInt("MAP_MAX_ZOOM", 18),
			ClusterThreshold: getEnvInt("MAP_CLUSTER_THRESHOLD", 10),
			DragLockZoom:     getEnvInt("MAP_DRAG_LOCK_ZOOM", 5),
			MarkerZoom:       getEnvInt("MAP_MARKER_ZOOM", 10),
			GeoFallback:      getEnvBool("MAP_GEO_FALLBACK", false),
		},
		Service: ServiceConfig{
			Port: getEnvInt("PORT", 8080),
		},
	}

	// Note: database and S3 are both optional. Without a database there
	// is no catalog cache fallback; without S3 only local overlays load.
	return cfg, nil
}

// loadEnvFile loads environment variables from a .env file
func loadEnvFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Simple env file parsing - split by newlines and set env vars
	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			os.Setenv(key, value)
		}
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvInt gets an environment variable as integer with a default value
func getEnvInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvBool gets an environment variable as boolean with a default value
func getEnvBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
