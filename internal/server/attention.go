package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hyperjump/tfexplorer/internal/attention"
)

func (s *Server) handleSentences(w http.ResponseWriter, r *http.Request) {
	attn, err := s.engine.Attention()
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"layers":    attn.Layers(),
		"heads":     attn.Heads(),
		"sentences": attn.Sentences(),
	})
}

// layerHead reads layer and head, defaulting to the sentence's best pair.
func (s *Server) layerHead(w http.ResponseWriter, r *http.Request, id string) (int, int, bool) {
	attn, err := s.engine.Attention()
	if err != nil {
		s.respondFailure(w, err)
		return 0, 0, false
	}
	best := attn.BestDefault(id)
	layer, err := queryInt(r, "layer", best.Layer)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	head, err := queryInt(r, "head", best.Head)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	return layer, head, true
}

func (s *Server) handleAttentionWeights(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	layer, head, ok := s.layerHead(w, r, id)
	if !ok {
		return
	}
	temperature, err := queryFloat(r, "temperature", 1)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	attn, err := s.engine.Attention()
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	hm, err := attn.Weights(id, layer, head, temperature)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, hm)
}

func (s *Server) handleTokenNeighbors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	layer, _, ok := s.layerHead(w, r, id)
	if !ok {
		return
	}
	attn, err := s.engine.Attention()
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	tn, err := attn.Neighbors(id, index, layer)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tn)
}

func (s *Server) handleQKV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	layer, head, ok := s.layerHead(w, r, id)
	if !ok {
		return
	}
	attn, err := s.engine.Attention()
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if r.URL.Query().Get("token") == "" {
		s.respondAllQKV(w, attn, id, layer, head)
		return
	}
	token, err := queryInt(r, "token", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	vecs, err := attn.QKV(id, layer, head, token)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, vecs)
}

// respondAllQKV returns the vectors of every token in one head with the layers
// that carry vectors.
func (s *Server) respondAllQKV(w http.ResponseWriter, attn *attention.Explorer, id string, layer, head int) {
	layers, err := attn.QKVLayers(id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	sentence, err := attn.Sentence(id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	tokens := make([]*attention.TokenVectors, 0, len(sentence.Tokens))
	for i := range sentence.Tokens {
		vecs, err := attn.QKV(id, layer, head, i)
		if err != nil {
			s.respondFailure(w, err)
			return
		}
		tokens = append(tokens, vecs)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sentence_id": id,
		"layer":       layer,
		"head":        head,
		"layers":      layers,
		"tokens":      tokens,
	})
}

func (s *Server) handleSentenceProjection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	layer, err := queryInt(r, "layer", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	attn, err := s.engine.Attention()
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	points, err := attn.Projection(id, layer)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sentence_id": id, "layer": layer, "tokens": points})
}
