package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/hindsight/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Portfolio analysis
	mux.HandleFunc("/api/portfolio/analyze", s.handlePortfolioAnalyze)
	mux.HandleFunc("/api/portfolio/chart", s.handlePortfolioChart)

	// Cache administration
	mux.HandleFunc("/api/cache", s.handleCachePurge)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleConfig reports the effective runtime configuration. Secrets are
// reduced to a presence flag.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	config := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":       config.Environment,
		"benchmark_symbol":  config.Analysis.BenchmarkSymbol,
		"history_years":     config.Analysis.HistoryYears,
		"cache_path":        config.Cache.Path,
		"cache_ttl":         config.Cache.GetTTL().String(),
		"currencylayer_key": config.Clients.CurrencyLayer.APIKey != "",
		"uptime":            time.Since(s.app.StartupTime).String(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// handleCachePurge handles DELETE /api/cache.
func (s *Server) handleCachePurge(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	count, err := s.app.Cache.Purge()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Purge failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"purged": count})
}
