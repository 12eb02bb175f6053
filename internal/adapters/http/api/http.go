// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/comprank/internal/domain/model"
)

// maxBodyBytes bounds request payloads; lobbies and detect requests are small.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// BestComps parses a lobby payload and scores the composition pool against it.
	BestComps(ctx context.Context, lobbyJSON []byte) ([]model.ScoredComp, error)

	// UpdateMeta regenerates the composition pool.
	UpdateMeta(ctx context.Context) error

	// DetectUnits reports the units visible in a screenshot.
	DetectUnits(ctx context.Context, imagePath string) ([]model.UnitDetection, error)

	// DetectAndRank ranks the pool using detected units as the player's board.
	DetectAndRank(ctx context.Context, imagePath string) ([]model.ScoredComp, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	compsHandler  *CompsHandler
	metaHandler   *MetaHandler
	detectHandler *DetectHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		compsHandler:  NewCompsHandler(deps),
		metaHandler:   NewMetaHandler(deps),
		detectHandler: NewDetectHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/best-comps", MetricsMiddleware(s.compsHandler.HandleBestComps, "best_comps"))
	mux.HandleFunc("/update-meta", MetricsMiddleware(s.metaHandler.HandleUpdateMeta, "update_meta"))
	mux.HandleFunc("/detect-units", MetricsMiddleware(s.detectHandler.HandleDetectUnits, "detect_units"))
	mux.HandleFunc("/detect-and-rank", MetricsMiddleware(s.compsHandler.HandleDetectAndRank, "detect_and_rank"))
}

// detectRequest mirrors the OpenAPI schema for the detect endpoints.
type detectRequest struct {
	Path string `json:"path"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	noteErrorCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps an error kind from the service layer to a status.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
	case errors.Is(err, model.ErrExternalProcess):
		writeError(w, http.StatusBadGateway, codeExternalProcess, err)
	case errors.Is(err, model.ErrDataUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeDataUnavailable, err)
	case errors.Is(err, model.ErrParse):
		// Request payloads carry ErrInvalidInput, so this is the pool file.
		writeError(w, http.StatusInternalServerError, codeDataFormat, err)
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, err)
	}
}

// readBody reads a bounded request body.
func readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, model.WrapKind(op, ErrBadRequest, err)
	}
	return body, nil
}

// decodeDetectRequest reads and validates a detect request body.
func decodeDetectRequest(w http.ResponseWriter, r *http.Request, op string) (detectRequest, error) {
	var req detectRequest
	body, err := readBody(w, r, op)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, model.WrapKind(op, ErrBadRequest, err)
	}
	if req.Path == "" {
		return req, model.WrapKind(op, ErrBadRequest, ErrMissingPath)
	}
	return req, nil
}
