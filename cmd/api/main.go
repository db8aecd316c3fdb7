package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pefman/w40k-volley/internal/catalog"
	"github.com/pefman/w40k-volley/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cat, err := catalog.LoadDir(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info("catalog loaded",
		zap.String("dir", cfg.CatalogDir),
		zap.Int("units", cat.Len()),
		zap.Strings("factions", cat.Factions()))

	s := &server{cfg: cfg, log: log, cat: cat}
	if cfg.DataAPI != "" {
		s.remote = catalog.NewClient(cfg.DataAPI, cfg.DataAPITTL)
		log.Info("remote data API enabled", zap.String("base", cfg.DataAPI), zap.Duration("ttl", cfg.DataAPITTL))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withCORS(cfg.AllowedOrigin, s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("W40K volley API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type server struct {
	cfg    config.Server
	log    *zap.Logger
	cat    *catalog.Catalog
	remote *catalog.Client // nil unless SIM_DATA_API is set
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.withLogging)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api.HandleFunc("/factions", s.handleFactions).Methods(http.MethodGet)
	api.HandleFunc("/factions/{faction}/units", s.handleFactionUnits).Methods(http.MethodGet)
	api.HandleFunc("/units/{unit}", s.handleUnit).Methods(http.MethodGet)

	api.HandleFunc("/sim/run", s.handleRun).Methods(http.MethodPost)
	api.HandleFunc("/sim/matrix", s.handleMatrix).Methods(http.MethodPost)

	// Statistics endpoints
	api.HandleFunc("/stats/runs", GetRunsHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats/runs/{id}", GetRunHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats/max-volley/today", GetMaxVolleyTodayHandler).Methods(http.MethodGet)

	r.HandleFunc("/ws/sim", s.handleWS)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}

// simple CORS for GET/POST/OPTIONS
func withCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws/sim" {
			// the upgrade needs the raw writer
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
