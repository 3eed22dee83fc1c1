// Package chi exposes the caller-facing operations over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openpoi/poidex/internal/domain"
	"github.com/openpoi/poidex/internal/metrics"
	healthuc "github.com/openpoi/poidex/internal/usecase/health"
	ingestuc "github.com/openpoi/poidex/internal/usecase/ingest"
	renameuc "github.com/openpoi/poidex/internal/usecase/rename"
	searchuc "github.com/openpoi/poidex/internal/usecase/search"
)

// RowSource supplies the source dataset for the ingest endpoint.
type RowSource func() ([]ingestuc.SourceRow, error)

// Server holds the HTTP handlers over the use case services.
type Server struct {
	ingest *ingestuc.Service
	search *searchuc.Service
	rename *renameuc.Service
	health *healthuc.Service
	rows   RowSource
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	search *searchuc.Service,
	rename *renameuc.Service,
	health *healthuc.Service,
	rows RowSource,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest: ingest,
		search: search,
		rename: rename,
		health: health,
		rows:   rows,
		logger: logger,
	}
}

// Mount registers the API routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/v1/ingest", s.handleIngest)
	r.Post("/v1/search", s.handleSearch)
	r.Post("/v1/rename", s.handleRename)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type queryRequest struct {
	Question string   `json:"question"`
	Cities   []string `json:"cities,omitempty"`
	Types    []string `json:"types,omitempty"`
	Since    *int64   `json:"since,omitempty"`
	Until    *int64   `json:"until,omitempty"`
}

type matchItem struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Results []matchItem `json:"results"`
}

type renameRequest struct {
	queryRequest
	CurrentName string `json:"current_name"`
	NewName     string `json:"new_name"`
}

type renameResponse struct {
	UpdatedID string      `json:"updated_id,omitempty"`
	Found     bool        `json:"found"`
	Results   []matchItem `json:"results"`
}

type ingestResponse struct {
	Total         int  `json:"total"`
	Ingested      int  `json:"ingested"`
	Skipped       int  `json:"skipped"`
	AlreadyLoaded bool `json:"already_loaded"`
}

// handleIngest loads the configured source dataset into the store.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.rows()
	if err != nil {
		s.logger.Error("failed to read source dataset", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "source dataset unavailable")
		return
	}

	res, err := s.ingest.Ingest(r.Context(), rows)
	if err != nil {
		s.logDiagnostics("ingest aborted", err)
		writeError(w, http.StatusBadGateway, "ingest aborted")
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Total:         res.Total,
		Ingested:      res.Ingested,
		Skipped:       res.Skipped,
		AlreadyLoaded: res.AlreadyLoaded,
	})
}

// handleSearch answers a natural-language query. Downstream failures
// degrade to an empty result list with a logged diagnostic; the caller
// contract is "no answer", not an error page.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	q, err := domain.NewQuery(req.Question, req.Cities, req.Types, req.Since, req.Until)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := s.search.Search(r.Context(), &q)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "error").Inc()
		s.logDiagnostics("search failed", err)
		writeJSON(w, http.StatusOK, searchResponse{Results: []matchItem{}})
		return
	}

	metrics.SearchRequestsTotal.WithLabelValues("search", "success").Inc()
	writeJSON(w, http.StatusOK, searchResponse{Results: matchItems(matches)})
}

// handleRename applies a display-name rename, then re-runs the search so
// the response reflects the post-rename state.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.CurrentName == "" || req.NewName == "" {
		writeError(w, http.StatusBadRequest, "current_name and new_name are required")
		return
	}

	q, err := domain.NewQuery(req.Question, req.Cities, req.Types, req.Since, req.Until)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, found, err := s.rename.Rename(r.Context(), &q, req.CurrentName, req.NewName)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("rename", "error").Inc()
		s.logDiagnostics("rename failed", err)
		writeJSON(w, http.StatusOK, renameResponse{Results: []matchItem{}})
		return
	}

	matches, err := s.search.Search(r.Context(), &q)
	if err != nil {
		s.logDiagnostics("post-rename search failed", err)
		matches = nil
	}

	metrics.SearchRequestsTotal.WithLabelValues("rename", "success").Inc()
	writeJSON(w, http.StatusOK, renameResponse{
		UpdatedID: id,
		Found:     found,
		Results:   matchItems(matches),
	})
}

// handleHealth reports dependency readiness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Check(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// logDiagnostics records the full failure detail server-side, including
// provider status and body when the cause is an API error.
func (s *Server) logDiagnostics(msg string, err error) {
	fields := []zap.Field{zap.Error(err)}
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		fields = append(fields,
			zap.Int("provider_status", provErr.StatusCode),
			zap.String("provider_body", provErr.Body),
		)
	}
	s.logger.Error(msg, fields...)
}

func matchItems(matches []domain.Match) []matchItem {
	items := make([]matchItem, len(matches))
	for i, m := range matches {
		items[i] = matchItem{Name: m.DisplayName, Similarity: m.Similarity}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
