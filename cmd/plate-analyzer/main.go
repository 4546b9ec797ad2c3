package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ironsheep/plate-analyzer/internal/config"
	"github.com/ironsheep/plate-analyzer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("plate-analyzer %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("plate-analyzer - MCP server for 3D printer build plate analysis")
			fmt.Println()
			fmt.Println("Usage: plate-analyzer [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  PLATE_ANALYZER_CONFIG=<file>          JSON configuration file")
			fmt.Println("  PLATE_ANALYZER_LOG_LEVEL=debug        Enable debug logging")
			fmt.Println("  PLATE_ANALYZER_HTTP_ADDR=<host:port>  Serve plate images over HTTP")
			fmt.Println("  PLATE_ANALYZER_JPEG_QUALITY=<1-100>   JPEG quality (default 80)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.Debug() {
		log.Printf("Plate Analyzer v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(cfg)
	defer srv.Close()

	for _, p := range cfg.Plates {
		if err := srv.Plates().RegisterPickImage(p.Serial, p.PickImage); err != nil {
			log.Fatalf("Plate %s: %v", p.Serial, err)
		}
		if cfg.Debug() {
			log.Printf("Registered pick image for plate %s: %s", p.Serial, p.PickImage)
		}
	}

	if cfg.HTTPAddr != "" {
		httpSrv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.HTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("Serving plate images on %s", cfg.HTTPAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
	}

	if err := srv.Run(context.Background()); err != nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}
