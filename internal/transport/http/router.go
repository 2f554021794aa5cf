package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"driving-exam-service/internal/app"
)

// NewRouter mounts the health probe, the exam websocket and the JSON API.
func NewRouter(service *app.ExamService, ws *WSHandler, log zerolog.Logger) http.Handler {
	api := &apiHandler{service: service, log: log.With().Str("component", "api").Logger()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(requestLogger(api.log))
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/config", api.config)
		r.Get("/history", api.history)
	})
	return r
}

type apiHandler struct {
	service *app.ExamService
	log     zerolog.Logger
}

func (h *apiHandler) config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Config())
}

func (h *apiHandler) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	results, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list history")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "history unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
