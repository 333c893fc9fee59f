package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"geo_ingest/internal/models"
)

var (
	// DB is the globally accessible database handle, initialized once
	// at startup and shared by all concurrent requests.
	DB *gorm.DB
)

// InitDB initializes the database connection using environment
// variables, enables PostGIS, and prepares the geo_features table
// with its indexes.
func InitDB() {
	// Load .env (if present)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	// Load environment variables (with defaults)
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "")
	dbname := getEnv("DB_NAME", "geospatial")
	sslmode := getEnv("DB_SSLMODE", "prefer")
	timezone := getEnv("DB_TIMEZONE", "UTC")
	connectTimeout := getEnv("DB_CONNECT_TIMEOUT", "10")

	// Build Data Source Name; connect_timeout keeps startup and pool
	// growth bounded rather than hanging on an unreachable host.
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s connect_timeout=%s",
		host, user, password, dbname, port, sslmode, timezone, connectTimeout,
	)

	// Open GORM connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Pool sizing: many concurrent ingestion calls share this handle.
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// PostGIS must exist before the geometry column can be migrated
	db.Exec("CREATE EXTENSION IF NOT EXISTS postgis;")

	if err := db.AutoMigrate(&models.GeoFeature{}); err != nil {
		log.Fatalf("auto-migration failed: %v", err)
	}

	// Indexes gorm tags cannot express: GIST for spatial predicates,
	// GIN for properties containment queries, btree on name.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_geo_features_geom ON geo_features USING GIST (geom);")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_geo_features_properties ON geo_features USING GIN (properties);")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_geo_features_name ON geo_features (name);")

	// Assign to global
	DB = db
}

// CloseDB releases the connection pool at shutdown.
func CloseDB() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// GetDB returns the initialized DB handle
func GetDB() *gorm.DB {
	return DB
}
