package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/viewport"
)

type sanitizeRequest struct {
	Candidate camera.RawPose `json:"candidate"`
	Fallback  *camera.Pose   `json:"fallback,omitempty"`
}

func (s *Server) handleSanitize(w http.ResponseWriter, r *http.Request) {
	var req sanitizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fallback := s.config.Camera.Default
	if req.Fallback != nil {
		if err := s.sanitizer.CheckFallback(*req.Fallback); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		fallback = *req.Fallback
	}
	s.respondJSON(w, http.StatusOK, s.sanitizer.Sanitize(req.Candidate, fallback))
}

type createViewportRequest struct {
	Pose *camera.Pose `json:"pose,omitempty"`
}

type viewportResponse struct {
	ID    string         `json:"id"`
	State viewport.State `json:"state"`
}

func (s *Server) handleCreateViewport(w http.ResponseWriter, r *http.Request) {
	var req createViewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pose != nil {
		if res := s.sanitizer.Sanitize(req.Pose.Raw(), s.config.Camera.Default); !res.Valid || res.Changed {
			s.respondError(w, http.StatusBadRequest, "initial pose is degenerate")
			return
		}
	}
	id, guard := s.viewports.Create()
	if req.Pose != nil {
		guard.Remember(*req.Pose)
	}
	s.logger.Debug("viewport created", zap.String("id", id))
	s.respondJSON(w, http.StatusCreated, viewportResponse{ID: id, State: guard.State()})
}

func (s *Server) guard(w http.ResponseWriter, r *http.Request) (string, *viewport.Guard, bool) {
	id := chi.URLParam(r, "id")
	g, err := s.viewports.Get(id)
	if err != nil {
		s.respondFailure(w, err)
		return id, nil, false
	}
	return id, g, true
}

func (s *Server) handleGetViewport(w http.ResponseWriter, r *http.Request) {
	id, g, ok := s.guard(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, viewportResponse{ID: id, State: g.State()})
}

func (s *Server) handleObserveCamera(w http.ResponseWriter, r *http.Request) {
	id, g, ok := s.guard(w, r)
	if !ok {
		return
	}
	var candidate camera.RawPose
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	decision := g.Observe(candidate)
	s.logger.Debug("camera observed",
		zap.String("viewport", id),
		zap.String("action", string(decision.Action)),
		zap.String("reason", decision.Reason))
	s.respondJSON(w, http.StatusOK, decision)
}

func (s *Server) handleCompleteCorrection(w http.ResponseWriter, r *http.Request) {
	id, g, ok := s.guard(w, r)
	if !ok {
		return
	}
	if _, err := g.Complete(); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewportResponse{ID: id, State: g.State()})
}

func (s *Server) handleDeleteViewport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.viewports.Delete(id) {
		s.respondError(w, http.StatusNotFound, viewport.ErrNotFound.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
