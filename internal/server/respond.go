package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/attention"
	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/models"
	"github.com/hyperjump/tfexplorer/internal/storage"
	"github.com/hyperjump/tfexplorer/internal/tokenizer"
	"github.com/hyperjump/tfexplorer/internal/vector"
	"github.com/hyperjump/tfexplorer/internal/viewport"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// missingWordsBody is the 404 body for vocabulary misses.
type missingWordsBody struct {
	Error       string      `json:"error"`
	Missing     []string    `json:"missing"`
	Suggestions interface{} `json:"suggestions,omitempty"`
}

// respondFailure maps domain errors to status codes.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	var unknown *explorer.UnknownWordsError
	if errors.As(err, &unknown) {
		s.respondJSON(w, http.StatusNotFound, missingWordsBody{
			Error:       err.Error(),
			Missing:     unknown.Missing.Words,
			Suggestions: unknown.Suggestions,
		})
		return
	}
	var missing *vector.MissingWordsError
	if errors.As(err, &missing) {
		s.respondJSON(w, http.StatusNotFound, missingWordsBody{Error: err.Error(), Missing: missing.Words})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidQuery),
		errors.Is(err, vector.ErrDimensionMismatch),
		errors.Is(err, vector.ErrNonFinite),
		errors.Is(err, attention.ErrOutOfRange),
		errors.Is(err, attention.ErrBadTemperature),
		errors.Is(err, tokenizer.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, attention.ErrUnknownSentence),
		errors.Is(err, attention.ErrNoQKV),
		errors.Is(err, attention.ErrNoProjection),
		errors.Is(err, tokenizer.ErrUnknownCategory),
		errors.Is(err, tokenizer.ErrOutOfRange),
		errors.Is(err, tokenizer.ErrNoOneHotDemo),
		errors.Is(err, viewport.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tokenizer.ErrNoTokenization):
		return http.StatusUnprocessableEntity
	case errors.Is(err, viewport.ErrNoCorrection):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	return f, nil
}
