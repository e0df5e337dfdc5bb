package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Parse flags
	configPath := flag.String("config", ".env", "Path to config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	help := flag.Bool("help", false, "Show help message")
	flag.Parse()

	args := flag.Args()
	if *help || len(args) == 0 {
		showHelp()
		os.Exit(0)
	}

	command := args[0]

	// Setup logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch command {
	case "serve":
		cmdServe(args[1:], configPath)
	case "classify":
		cmdClassify(args[1:], configPath)
	default:
		slog.Error("unknown command", "command", command)
		showHelp()
		os.Exit(1)
	}
}

// cmdServe loads the catalog and serves the map API.
func cmdServe(args []string, configPath *string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "HTTP port (overrides PORT)")
	fs.Parse(args)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Service.Port = *port
	}

	db, s3Client := initCollaborators(cfg)
	if db != nil {
		defer db.Close()
	}

	service := NewCatalogService(cfg, db, s3Client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
		os.Exit(0)
	}()

	// Sources load in the background; the API serves partial data
	// until every overlay has arrived.
	go service.LoadAll(ctx)

	server := NewAPIServer(service, cfg)
	if err := server.Start(cfg.Service.Port); err != nil {
		slog.Error("API server failed", "error", err)
		os.Exit(1)
	}
}

// cmdClassify runs the pipeline once and prints the classification
// trace, park by park.
func cmdClassify(args []string, configPath *string) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	fs.Parse(args)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, s3Client := initCollaborators(cfg)
	if db != nil {
		defer db.Close()
	}

	service := NewCatalogService(cfg, db, s3Client)
	service.LoadAll(context.Background())

	for _, entry := range service.Trace() {
		if entry.Outcome == "assigned" {
			fmt.Printf("%-40s -> %-18s (%s, %s)\n", entry.Key, entry.Region, entry.MatchOrigin, entry.Provenance)
		} else {
			fmt.Printf("%-40s -> skipped (%s)\n", entry.Key, entry.Provenance)
		}
	}

	for _, region := range service.Regions() {
		fmt.Printf("%s: %d parks\n", region.Name, len(region.Features))
	}
}

// initCollaborators opens the optional database cache and S3 overlay
// source; both degrade to nil when unconfigured or unreachable.
func initCollaborators(cfg *Config) (*Database, *S3Client) {
	var db *Database
	if cfg.Database.Host != "" {
		var err error
		db, err = NewDatabase(cfg.Database)
		if err != nil {
			slog.Warn("failed to connect to database (continuing without catalog cache)", "error", err)
			db = nil
		} else if err := db.EnsureSchema(context.Background()); err != nil {
			slog.Warn("failed to ensure cache schema (continuing without catalog cache)", "error", err)
			db.Close()
			db = nil
		}
	}

	var s3Client *S3Client
	if cfg.S3.Bucket != "" {
		var err error
		s3Client, err = NewS3Client(cfg.S3)
		if err != nil {
			slog.Warn("failed to initialize S3 client (continuing with local overlays only)", "error", err)
			s3Client = nil
		}
	}

	return db, s3Client
}

func showHelp() {
	fmt.Println(`Andes Verdes map service

Usage:
  map-service [flags] <command>

Commands:
  serve       Load the park catalog and serve the map API
  classify    Run the classification pipeline once and print the trace

Flags:
  -config     Path to config file (default ".env")
  -debug      Enable debug logging
  -help       Show this help message`)
}
