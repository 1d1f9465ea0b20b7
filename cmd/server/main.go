/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the credential tracking server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Create tracker service and API handler
  4. Configure HTTP router with the rate limiter
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags win over environment variables; the environment (optionally via
  a .env file) provides defaults:

  -port / PORT            HTTP server port (default: 8080)
  -db   / DATABASE_PATH   SQLite database path (default: credtrack.db)
                          Use ":memory:" for in-memory database
  -rate-limit             Mutations allowed per user per minute
                          (default: 60; 0 disables throttling)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/credtrack.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/credtrack/cpd-engine/api"
	"github.com/credtrack/cpd-engine/ratelimit"
	"github.com/credtrack/cpd-engine/store/sqlite"
	"github.com/credtrack/cpd-engine/tracker"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "credtrack.db"), "SQLite database path")
	rateLimit := flag.Int("rate-limit", 60, "mutations allowed per user per minute (0 disables)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire service + limiter
	service := tracker.NewService(store)

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if *rateLimit > 0 {
		limiter = ratelimit.NewFixedWindow(*rateLimit, time.Minute)
	}

	// Create router
	router := api.NewRouter(api.NewHandler(service), limiter)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
