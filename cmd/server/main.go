/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the venue ledger server: configuration,
  dependency wiring, and graceful shutdown.

CONFIGURATION:
  Flags, with environment fallbacks loaded from an optional .env file:

  -port    HTTP server port           (VENUE_PORT, default 8080)
  -store   Backend: sqlite|pebble|memory  (VENUE_STORE, default sqlite)
  -data    Data path: sqlite file or pebble directory (VENUE_DATA)
  -log     Log level: debug|info|warn|error (VENUE_LOG_LEVEL)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/venue-ledger/api"
	"github.com/warp/venue-ledger/generic"
	memstore "github.com/warp/venue-ledger/generic/store"
	"github.com/warp/venue-ledger/logging"
	pebblestore "github.com/warp/venue-ledger/store/pebble"
	"github.com/warp/venue-ledger/store/sqlite"
	"github.com/warp/venue-ledger/venue"
)

func main() {
	// .env is optional; flags beat environment.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("VENUE_PORT", 8080), "HTTP server port")
	backend := flag.String("store", envStr("VENUE_STORE", "sqlite"), "storage backend: sqlite, pebble or memory")
	dataPath := flag.String("data", envStr("VENUE_DATA", "venue.db"), "sqlite file or pebble directory")
	logLevel := flag.String("log", envStr("VENUE_LOG_LEVEL", "info"), "log level")
	flag.Parse()

	log := logging.New(logging.ParseLevel(*logLevel), logging.ComponentApp)

	docs, closeStore, err := openStore(*backend, *dataPath)
	if err != nil {
		log.Error("failed to open store", logging.FieldError, err.Error())
		os.Exit(1)
	}
	defer closeStore()

	service := venue.NewService(docs, log)
	handler := api.NewHandler(service, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr, "store", *backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", logging.FieldError, err.Error())
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", logging.FieldError, err.Error())
	}
}

// openStore builds the configured document-store backend.
func openStore(backend, dataPath string) (generic.DocumentStore, func(), error) {
	switch backend {
	case "memory":
		return memstore.NewMemory(), func() {}, nil
	case "pebble":
		s, err := pebblestore.Open(dataPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "sqlite":
		s, err := sqlite.New(dataPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
