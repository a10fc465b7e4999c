package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ManasPatni/log-aggregator/internal/ingest"
	"github.com/ManasPatni/log-aggregator/internal/logger"
	"github.com/ManasPatni/log-aggregator/internal/logparse"
	"github.com/ManasPatni/log-aggregator/internal/metrics"
	"github.com/ManasPatni/log-aggregator/internal/store"
)

var tracer = otel.Tracer("api")

const maxUploadBytes = 32 << 20

type Deps struct {
	Log    *logger.Logger
	Store  store.Store
	Ingest *ingest.Ingest
}
type Config struct{ Addr string }
type Server struct {
	d Deps
	c Config
}

func NewServer(d Deps, c Config) *Server { return &Server{d: d, c: c} }

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.c.Addr, Handler: s.d.Log.HTTP(s.Router())}
	go func() { <-ctx.Done(); _ = srv.Shutdown(context.Background()) }()
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { metrics.Handler().ServeHTTP(w, r) })

	r.Post("/v1/uploads", s.handleUpload)
	r.Post("/v1/notes", s.handleNote)
	r.Get("/v1/logs", s.handleLogs)
	r.Get("/v1/anomalies", s.handleAnomalies)
	r.Get("/v1/histogram", s.handleHistogram)

	r.Get("/v1/projects", s.handleProjects)
	r.Post("/v1/projects", s.handleAddProject)
	r.Patch("/v1/projects/{id}", s.handleRenameProject)
	r.Delete("/v1/projects/{id}", s.handleDeleteProject)

	r.Get("/v1/history", s.handleHistory)
	r.Patch("/v1/history/{id}", s.handleRenameChat)
	r.Delete("/v1/history/{id}", s.handleDeleteChat)
	return r
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "POST /v1/uploads")
	defer span.End()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		http.Error(w, "body too large or unreadable", http.StatusBadRequest)
		return
	}
	rep, err := s.d.Ingest.Upload(ctx, raw)
	if errors.Is(err, logparse.ErrInvalidUTF8) {
		http.Error(w, "file is not valid UTF-8 text", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.d.Log.Error().Err(err).Msg("upload")
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(
		attribute.String("upload_id", rep.UploadID),
		attribute.Int("stored", rep.Stored),
		attribute.String("detection", string(rep.Detection)),
	)
	writeJSON(w, rep)
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "POST /v1/notes")
	defer span.End()

	var p struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Text == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	rep, err := s.d.Ingest.Note(ctx, p.Text)
	if err != nil {
		s.d.Log.Error().Err(err).Msg("note")
		http.Error(w, "note failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rep)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/logs")
	defer span.End()

	all, err := s.d.Store.FetchAll(ctx)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, all)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/anomalies")
	defer span.End()

	rep, err := s.d.Ingest.Analyze(ctx)
	if err != nil {
		http.Error(w, "analysis unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"detection": rep.Detection,
		"corpus":    rep.Corpus,
		"outliers":  rep.Outliers,
	})
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/histogram")
	defer span.End()

	rep, err := s.d.Ingest.Analyze(ctx)
	if err != nil {
		http.Error(w, "analysis unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rep.Histogram)
}

// -------- bookkeeping --------

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.d.Store.Projects(r.Context())
	if err != nil {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ps)
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Title == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	id, err := s.d.Store.AddProject(r.Context(), p.Title)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"id": id})
}

func (s *Server) handleRenameProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Title == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	s.finish(w, s.d.Store.RenameProject(r.Context(), id, p.Title))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.finish(w, s.d.Store.DeleteProject(r.Context(), id))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	tail, err := s.d.Store.ChatTail(r.Context(), limit)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tail)
}

func (s *Server) handleRenameChat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Message == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	s.finish(w, s.d.Store.RenameChat(r.Context(), id, p.Message))
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.finish(w, s.d.Store.DeleteChat(r.Context(), id))
}

func (s *Server) finish(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case err != nil:
		http.Error(w, "store unavailable", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
