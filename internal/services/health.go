package services

import (
	"context"
	"fmt"
	"log"

	"github.com/wadtheplanet/wadtheplanet/internal/config"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Storage      string            `json:"storage"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck performs a comprehensive health check of the service
func HealthCheck(cfg *config.Config, db *gorm.DB, blobs storage.BlobStore) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Status = "unhealthy"
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.ErrorMessage = fmt.Sprintf("Database connection error: %v", err)
		log.Printf("Health check failed - database connection: %v", err)
	} else {
		if err := sqlDB.Ping(); err != nil {
			result.Status = "unhealthy"
			result.Database = "unreachable"
			result.Details["database_ping_error"] = err.Error()
			result.ErrorMessage = fmt.Sprintf("Database ping failed: %v", err)
			log.Printf("Health check failed - database ping: %v", err)
		} else {
			result.Database = "ok"
			result.Details["database_type"] = cfg.DBType
			result.Details["database_name"] = cfg.DBDatabase
		}
	}

	// Check blob storage connectivity
	if err := blobs.Ping(context.Background()); err != nil {
		result.Status = "unhealthy"
		result.Storage = "unreachable"
		result.Details["storage_error"] = err.Error()
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("Storage ping failed: %v", err)
		} else {
			result.ErrorMessage += fmt.Sprintf("; Storage ping failed: %v", err)
		}
		log.Printf("Health check failed - storage ping: %v", err)
	} else {
		result.Storage = "ok"
		result.Details["storage_type"] = cfg.StorageType
	}

	return result
}
