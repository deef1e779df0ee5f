package server

import (
	"fmt"
	"net/http"

	"github.com/bobmcallan/hindsight/internal/models"
)

// handlePortfolioAnalyze handles POST /api/portfolio/analyze. The body is a
// PortfolioEvents document; the response is the full derived analysis.
func (s *Server) handlePortfolioAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var events models.PortfolioEvents
	if !DecodeJSON(w, r, &events) {
		return
	}

	analysis, err := s.app.Analyzer.Analyze(r.Context(), events)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis error: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, analysis)
}

// handlePortfolioChart handles POST /api/portfolio/chart. The body is a
// PortfolioEvents document; the response is a rendered PNG of the portfolio
// value timeline against the benchmark. The image is also written to the
// cache charts directory for later retrieval.
func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var events models.PortfolioEvents
	if !DecodeJSON(w, r, &events) {
		return
	}

	analysis, err := s.app.Analyzer.Analyze(r.Context(), events)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis error: %v", err))
		return
	}

	png, err := s.app.Analyzer.RenderTimelineChart(analysis)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Chart error: %v", err))
		return
	}

	if path, err := s.app.Cache.WriteChart(analysis.ID+".png", png); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist chart")
	} else {
		s.logger.Debug().Str("path", path).Msg("Chart written")
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
