//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/himanishpuri/FolkDNA/internal/storage"
	"github.com/himanishpuri/FolkDNA/pkg/folkdna"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

var (
	port           int
	indexPath      string
	tempDir        string
	logRequests    bool
	allowedOrigins string
)

func registerFlags() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&indexPath, "index", getEnvOrDefault("FOLKDNA_INDEX", storage.DefaultDBFile), "Tune index, JSON or SQLite")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("FOLKDNA_TEMP_DIR", os.TempDir()), "Directory for uploaded recordings")
	flag.BoolVar(&logRequests, "log-requests", false, "Log every HTTP request")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()
	registerFlags()
	flag.Parse()

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	// Load the tune index once; every request shares it
	service, err := folkdna.NewService(
		folkdna.WithIndexPath(indexPath),
		folkdna.WithTopN(0),
		folkdna.WithLogger(logger.GetLogger()),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		IndexPath:      indexPath,
		TempDir:        tempDir,
		LogRequests:    logRequests,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
