// ============================================================================
// backend/cmd/server/main.go
// SchoolHub backend server entry point
// ============================================================================

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolhub/backend/internal/admin"
	"schoolhub/backend/internal/auth"
	"schoolhub/backend/internal/finance"
	"schoolhub/backend/internal/gateway"
	"schoolhub/backend/internal/grade"
	"schoolhub/backend/internal/shared"
)

func main() {
	log.Println("Starting SchoolHub Backend Server...")

	// Load environment variables
	shared.LoadEnv(".env")

	// Load configuration
	config, err := shared.LoadServerConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := shared.ValidateServerConfig(config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Print configuration in development mode
	if shared.IsDevelopment(config) {
		shared.PrintConfig(config)
	}

	// Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	// Create the indexes the grade lifecycle depends on
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer indexCancel()
	if err := shared.EnsureIndexes(indexCtx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Wire up shared infrastructure and domain services
	audit := shared.NewAuditLogger(db)
	limiter := shared.NewRateLimiter(config.RateLimit.MaxPerWindow, config.RateLimit.Window)
	gradeStore := grade.NewMongoStore(client, db)

	services := &gateway.Services{
		Auth:    auth.NewService(db, config, audit),
		Grades:  grade.NewService(gradeStore, gradeStore, limiter, audit),
		Admin:   admin.NewService(client, db, config, audit),
		Finance: finance.NewService(db, limiter, audit),
	}

	// Setup routes
	router := gateway.SetupRoutes(config, services)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on port %s", config.HTTPPort)
		log.Printf("Environment: %s", config.Environment)
		log.Printf("Health check: http://localhost:%s/health", config.HTTPPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
