package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type tokenizeRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.engine.Tokenizer().Tokenize(req.Text)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"categories": s.engine.Tokenizer().Categories()})
}

func (s *Server) handleCategoryExamples(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	examples, err := s.engine.Tokenizer().Examples(id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"category": id, "examples": examples})
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	res, err := s.engine.Tokenizer().Example(idx)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleOpener(w http.ResponseWriter, r *http.Request) {
	res, ok := s.engine.Tokenizer().Opener()
	if !ok {
		s.respondError(w, http.StatusNotFound, "no opener example")
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleOneHotStep(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "step must be an integer")
		return
	}
	step, err := s.engine.Tokenizer().OneHotStep(n)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, step)
}
