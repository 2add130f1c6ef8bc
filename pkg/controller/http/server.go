// Package http exposes the review engine over a small JSON API, used by
// editor plugins and local dashboards.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/usecase"
	"github.com/notelab/recall/pkg/utils/safe"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

var _ http.Handler = &Server{}

func New(uc *usecase.UseCases) *Server {
	s := &Server{
		router: chi.NewRouter(),
		uc:     uc,
	}

	r := s.router
	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/plan", s.handleGetPlan)
		r.Get("/stats", s.handleGetStats)
		r.Get("/clusters", s.handleListClusters)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/{noteID}", s.handleGetNote)
			r.Post("/introduce", s.handleIntroduce)
		})

		r.Post("/reviews", s.handlePostReview)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/start", s.handleStartSession)
			r.Post("/pause", s.handlePauseSession)
			r.Post("/resume", s.handleResumeSession)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		errs.Handle(r.Context(), goerr.Wrap(err, "failed to encode response"))
	}
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.uc.PlanToday(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, plan)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.uc.GetStats(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.uc.ListClusters(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"clusters": clusters})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id := types.NoteID(chi.URLParam(r, "noteID"))
	n, err := s.uc.GetNote(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, n)
}

type introduceRequest struct {
	NoteIDs []types.NoteID `json:"note_ids"`
}

func (s *Server) handleIntroduce(w http.ResponseWriter, r *http.Request) {
	var req introduceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagValidation)))
		return
	}

	introduced, err := s.uc.Introduce(r.Context(), req.NoteIDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"introduced": introduced})
}

type reviewRequest struct {
	NoteID  types.NoteID     `json:"note_id"`
	Quality types.Quality    `json:"quality"`
	Mode    types.ReviewMode `json:"mode"`
	Score   *float64         `json:"score,omitempty"`
}

func (s *Server) handlePostReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagValidation)))
		return
	}
	if req.Mode == "" {
		req.Mode = types.ReviewModeFlashcard
	}

	n, err := s.uc.RecordReview(r.Context(), req.NoteID, req.Quality, req.Mode, req.Score)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, n)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.uc.CurrentSession(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if sess == nil {
		handleError(w, r, goerr.New("no current session", goerr.T(errs.TagNotFound)))
		return
	}
	respondJSON(w, r, http.StatusOK, sess)
}

type startSessionRequest struct {
	ClusterID types.ClusterID `json:"cluster_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, goerr.Wrap(err, "invalid request body", goerr.T(errs.TagValidation)))
		return
	}

	sess, err := s.uc.StartClusterSession(r.Context(), req.ClusterID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, sess)
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.uc.PauseSession(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sess)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.uc.ResumeSession(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sess)
}
