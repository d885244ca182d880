package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/models"
)

func (s *Server) handleWordNeighbors(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := models.NeighborsQuery{Word: chi.URLParam(r, "word"), TopN: n}
	s.logger.Debug("neighbors request", zap.String("word", q.Word), zap.Int("n", n))
	resp, err := s.engine.Neighbors(r.Context(), q)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVectorNeighbors(w http.ResponseWriter, r *http.Request) {
	var q models.VectorQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.engine.NeighborsOfVector(r.Context(), q)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalogy(w http.ResponseWriter, r *http.Request) {
	var q models.AnalogyQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("analogy request", zap.String("a", q.A), zap.String("b", q.B), zap.String("c", q.C))
	resp, err := s.engine.Analogy(r.Context(), q)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	n, err := queryInt(r, "n", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	suggestions, err := s.engine.Suggest(q, n)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": q, "suggestions": suggestions})
}

type projectionResponse struct {
	Has3D      bool                              `json:"has3d"`
	Words      []dataset.ProjectedWord           `json:"words"`
	Categories dataset.Ordered[dataset.Category] `json:"categories"`
	CaseFiles  []string                          `json:"case_files"`
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Projection()
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	words := p.Words
	if c := r.URL.Query().Get("category"); c != "" {
		if _, ok := p.Categories.Get(c); !ok {
			s.respondError(w, http.StatusNotFound, "unknown category: "+c)
			return
		}
		words = p.InCategory(c)
	}
	if words == nil {
		words = []dataset.ProjectedWord{}
	}
	caseFiles := p.CaseFiles()
	if caseFiles == nil {
		caseFiles = []string{}
	}
	s.respondJSON(w, http.StatusOK, projectionResponse{
		Has3D:      p.Has3D(),
		Words:      words,
		Categories: p.Categories,
		CaseFiles:  caseFiles,
	})
}
