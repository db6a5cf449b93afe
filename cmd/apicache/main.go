package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apicache"
	"apicache/middleware"
)

// Demo server: a deliberately slow JSON endpoint wrapped by the cache
// middleware. First request per identity pays the latency; repeats within
// the TTL are served from memory with X-Cache: HIT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cache := apicache.New(apicache.Config{
		MaxEntries:      1000,
		MaxMemoryBytes:  100 << 20,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
		Logger:          logger,
	})
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("cache close", "err", err)
		}
	}()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond) // stand-in for an upstream call
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"city":        r.URL.Query().Get("city"),
			"generated":   time.Now().Format(time.RFC3339),
			"temperature": 21.5,
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/api/weather", middleware.Wrap(cache, 30*time.Second, slow))
	mux.HandleFunc("/api/cache/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cache.Stats())
	})
	mux.HandleFunc("/api/cache/invalidate", func(w http.ResponseWriter, r *http.Request) {
		deleted, err := cache.DeletePattern(r.URL.Query().Get("pattern"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"deleted": deleted})
	})

	srv := &http.Server{Addr: ":8080", Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}
