package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"geo_ingest/internal/config"
	"geo_ingest/internal/logger"
	"geo_ingest/internal/middleware"
	"geo_ingest/internal/routes"
	"geo_ingest/internal/store"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database and prepare the geo_features table
	config.InitDB()
	defer config.CloseDB()

	// Spatial store gateway; every store operation is bounded
	gateway := store.NewGateway(config.DB, statementTimeout())

	// Setup Gin router
	r := routes.SetupRouter(gateway)

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	port := getEnv("PORT", "8000")
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: handler,
	}

	go func() {
		log.Printf("🚀 Server running at :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until shutdown signal, then drain in-flight requests.
	// Already-committed feature inserts stay committed.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}

// statementTimeout bounds each store operation so an unreachable
// database fails the call instead of hanging it.
func statementTimeout() time.Duration {
	ms, err := strconv.Atoi(getEnv("DB_STATEMENT_TIMEOUT_MS", "5000"))
	if err != nil || ms <= 0 {
		ms = 5000
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}
