// Package api serves persisted runs and their validation samples over HTTP so
// reviewers can label sampled matches and read accuracy as they go.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/store"
	"github.com/sells-group/firmlink/internal/validation"
)

// Options configures the HTTP handler.
type Options struct {
	// MinAccuracy is the acceptance target reported by the accuracy endpoint.
	MinAccuracy float64
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// Server exposes a Store over HTTP.
type Server struct {
	store store.Store
	opts  Options
	log   *zap.Logger
}

// New creates a Server.
func New(st store.Store, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		store: st,
		opts:  opts,
		log:   zap.L().With(zap.String("component", "api")),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Route("/{runID}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Get("/matches/{entityID}", s.getMatch)
			r.Get("/validation", s.listValidation)
			r.Put("/validation/{index}", s.updateLabel)
			r.Get("/accuracy", s.accuracy)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{Status: model.RunStatus(q.Get("status"))}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMatch(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "entityID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) listValidation(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListValidation(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if label := r.URL.Query().Get("label"); label != "" {
		want, ok := model.ParseLabel(label)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown label "+strconv.Quote(label))
			return
		}
		filtered := records[:0]
		for _, rec := range records {
			if rec.Label == want {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []model.ValidationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// labelRequest is the body of PUT /runs/{runID}/validation/{index}.
type labelRequest struct {
	Label string `json:"label"`
	Note  string `json:"note"`
}

func (s *Server) updateLabel(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "index must be a non-negative integer")
		return
	}

	var req labelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	label, ok := model.ParseLabel(req.Label)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown label "+strconv.Quote(req.Label))
		return
	}

	if err := s.store.UpdateLabel(r.Context(), runID, index, label, req.Note); err != nil {
		s.fail(w, err)
		return
	}
	s.log.Info("label recorded",
		zap.String("run_id", runID),
		zap.Int("index", index),
		zap.String("label", string(label)),
	)
	writeJSON(w, http.StatusOK, map[string]any{"index": index, "label": label, "note": req.Note})
}

// accuracyResponse is the body of GET /runs/{runID}/accuracy.
type accuracyResponse struct {
	Report      validation.AccuracyReport `json:"report"`
	Accuracy    float64                   `json:"accuracy"`
	CILow       float64                   `json:"ci_low"`
	CIHigh      float64                   `json:"ci_high"`
	MinAccuracy float64                   `json:"min_accuracy"`
	Acceptable  []model.Method            `json:"acceptable_methods"`
}

func (s *Server) accuracy(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListValidation(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	rep := validation.ComputeAccuracy(records)
	lo, hi := rep.Overall.Wilson()
	acceptable := rep.Acceptable(s.opts.MinAccuracy)
	if acceptable == nil {
		acceptable = []model.Method{}
	}
	writeJSON(w, http.StatusOK, accuracyResponse{
		Report:      rep,
		Accuracy:    rep.Overall.Accuracy(),
		CILow:       lo,
		CIHigh:      hi,
		MinAccuracy: s.opts.MinAccuracy,
		Acceptable:  acceptable,
	})
}

// fail maps store errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
