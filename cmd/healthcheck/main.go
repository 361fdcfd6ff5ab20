package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/wadtheplanet/wadtheplanet/internal/config"
	"github.com/wadtheplanet/wadtheplanet/internal/database"
	"github.com/wadtheplanet/wadtheplanet/internal/services"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Connect to blob storage
	blobs, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to blob storage: %v", err)
	}

	// Perform health check
	result := services.HealthCheck(cfg, db, blobs)

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
	os.Exit(0)
}
