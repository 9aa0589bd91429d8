package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/co-takeoff/internal/report"
	"github.com/yegors/co-takeoff/internal/storage/sqlite"
	"github.com/yegors/co-takeoff/pkg/logger"
)

// ResultStore is the read side of the result storage
type ResultStore interface {
	GetResults(ctx context.Context, filter sqlite.ResultFilter) ([]*report.Record, error)
	GetResult(ctx context.Context, file string) (*report.Record, error)
}

// Handler contains the API handlers
type Handler struct {
	store  ResultStore
	logger *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(store ResultStore, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: log.Named("api-handler"),
	}
}

// ResultResponse is a stored record plus its report line
type ResultResponse struct {
	*report.Record
	Line string `json:"line"`
}

func newResultResponse(r *report.Record) ResultResponse {
	return ResultResponse{Record: r, Line: r.Line()}
}

// Health reports that the server is up
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// GetResults lists stored results.
// Query parameters: airport, detected (bool), limit, offset.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := sqlite.ResultFilter{AirportID: q.Get("airport")}

	if v := q.Get("detected"); v != "" {
		detected, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid detected parameter", http.StatusBadRequest)
			return
		}
		filter.DetectedOnly = detected
	}

	var ok bool
	if filter.Limit, ok = parseNonNegative(q.Get("limit")); !ok {
		http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
		return
	}
	if filter.Offset, ok = parseNonNegative(q.Get("offset")); !ok {
		http.Error(w, "Invalid offset parameter", http.StatusBadRequest)
		return
	}

	records, err := h.store.GetResults(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list results", logger.Error(err))
		http.Error(w, "Failed to list results", http.StatusInternalServerError)
		return
	}

	results := make([]ResultResponse, 0, len(records))
	for _, rec := range records {
		results = append(results, newResultResponse(rec))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"results": results,
	})
}

// GetResult returns the stored result of one flight log
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if file == "" {
		http.Error(w, "Missing file name", http.StatusBadRequest)
		return
	}

	record, err := h.store.GetResult(r.Context(), file)
	if errors.Is(err, sqlite.ErrNotFound) {
		http.Error(w, "Result not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to get result", logger.String("file", file), logger.Error(err))
		http.Error(w, "Failed to get result", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, newResultResponse(record))
}

func parseNonNegative(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
