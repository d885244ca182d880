package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"dataset":   s.engine.Status(),
		"viewports": s.viewports.Len(),
	}
	configInfo := map[string]interface{}{
		"data_dir":       s.config.Data.Dir,
		"watch":          s.config.Data.Watch,
		"min_distance":   s.sanitizer.MinDistance(),
		"max_top_n":      s.config.Embedding.MaxTopN,
		"history_limit":  s.config.Storage.HistoryLimit,
		"database_path":  s.config.Storage.DatabasePath,
		"live_tokenizer": s.config.Tokenizer.Live,
	}
	if s.store != nil {
		if n, err := s.store.CountEmbeddings(r.Context()); err == nil {
			resp["stored_embeddings"] = n
		}
		paths := append(storage.DatabaseFiles(s.config.Storage.DatabasePath), s.config.Data.Dir)
		if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.store.ListHistory(r.Context(), limit)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	entry, err := s.store.GetHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	n, err := s.store.ClearHistory(r.Context())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.logger.Debug("history cleared", zap.Int64("deleted", n))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "cleared", "deleted": n})
}
