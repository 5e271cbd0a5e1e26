package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"auto3d/internal/catalog"
	"auto3d/internal/history"
	"auto3d/internal/logging"
	"auto3d/internal/tracker"
)

// Version is reported by /health.
const Version = "0.1.0"

const maxHistoryLimit = 500

// StateReader is the read side of the tracker.
type StateReader interface {
	List() []tracker.Record
	Get(productID string) (tracker.Entry, bool)
	CountByStatus() map[tracker.Status]int
	Count() int
	Path() string
}

// HistoryReader is the read side of the attempt journal.
type HistoryReader interface {
	List(ctx context.Context, filter history.Filter) ([]history.Attempt, error)
	Path() string
}

// ServerConfig wires the router's collaborators. History and Metrics are
// optional.
type ServerConfig struct {
	State     StateReader
	History   HistoryReader
	Metrics   http.Handler
	Logger    *slog.Logger
	StartTime time.Time
}

// NewRouter builds the HTTP routes.
func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", listStateHandler(cfg))
		r.Get("/state/{id}", getStateHandler(cfg))
		r.Get("/history", historyHandler(cfg))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:        "ok",
			Version:       Version,
			UptimeSeconds: int64(time.Since(cfg.StartTime).Seconds()),
		}
		if cfg.State != nil {
			resp.Tracked = cfg.State.Count()
			resp.StateFile = cfg.State.Path()
		}
		if cfg.History != nil {
			resp.History = cfg.History.Path()
		}
		writeJSON(cfg.Logger, w, http.StatusOK, resp)
	}
}

func listStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.State == nil {
			writeJSON(cfg.Logger, w, http.StatusOK, StateListResponse{Products: []StateEntry{}, Counts: map[string]int{}})
			return
		}
		wanted := map[string]bool{}
		for _, value := range r.URL.Query()["status"] {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				wanted[trimmed] = true
			}
		}
		records := cfg.State.List()
		products := make([]StateEntry, 0, len(records))
		for _, record := range records {
			if len(wanted) > 0 && !wanted[string(record.Status)] {
				continue
			}
			products = append(products, FromRecord(record))
		}
		writeJSON(cfg.Logger, w, http.StatusOK, StateListResponse{
			Products: products,
			Counts:   StatusCounts(cfg.State.CountByStatus()),
		})
	}
}

func getStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := url.PathUnescape(chi.URLParam(r, "id"))
		if err != nil || strings.TrimSpace(id) == "" {
			writeError(cfg.Logger, w, http.StatusBadRequest, "invalid product id")
			return
		}
		id = catalog.ProductGID(id)
		if cfg.State == nil {
			writeError(cfg.Logger, w, http.StatusNotFound, "product not tracked")
			return
		}
		entry, ok := cfg.State.Get(id)
		if !ok {
			writeError(cfg.Logger, w, http.StatusNotFound, "product not tracked")
			return
		}
		writeJSON(cfg.Logger, w, http.StatusOK, FromRecord(tracker.Record{ProductID: id, Entry: entry}))
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			writeJSON(cfg.Logger, w, http.StatusOK, HistoryResponse{Attempts: []Attempt{}})
			return
		}
		query := r.URL.Query()
		filter := history.Filter{
			ProductID: catalog.ProductGID(query.Get("product")),
			Status:    strings.TrimSpace(query.Get("status")),
		}
		if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				writeError(cfg.Logger, w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			filter.Limit = min(limit, maxHistoryLimit)
		}
		attempts, err := cfg.History.List(r.Context(), filter)
		if err != nil {
			writeError(cfg.Logger, w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]Attempt, 0, len(attempts))
		for _, attempt := range attempts {
			out = append(out, FromAttempt(attempt))
		}
		writeJSON(cfg.Logger, w, http.StatusOK, HistoryResponse{Attempts: out})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("api request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.String(logging.FieldCorrelationID, middleware.GetReqID(r.Context())),
				logging.Duration("request_duration", time.Since(started)))
		})
	}
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, status int, message string) {
	writeJSON(logger, w, status, ErrorResponse{Error: message})
}
