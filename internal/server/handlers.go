package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/hyperjump/petqa/internal/indexer"
	"github.com/hyperjump/petqa/internal/models"
	"github.com/hyperjump/petqa/internal/search"
	"github.com/hyperjump/petqa/internal/storage"
	"go.uber.org/zap"
)

type searchRequest struct {
	Query          string `json:"query"`
	Limit          int    `json:"limit,omitempty"`
	Category       string `json:"category,omitempty"`
	IncludeSnippet *bool  `json:"includeSnippet,omitempty"`
	Fuzzy          bool   `json:"fuzzy,omitempty"`
}

func (req searchRequest) options() models.SearchOptions {
	return models.SearchOptions{
		Limit:          req.Limit,
		Category:       req.Category,
		IncludeSnippet: req.IncludeSnippet,
		Fuzzy:          req.Fuzzy,
	}
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := searchRequest{Query: q.Get("q"), Category: q.Get("category")}
	var err error
	if req.Limit, err = intParam(q.Get("limit")); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if v := q.Get("snippet"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid snippet flag")
			return
		}
		req.IncludeSnippet = &b
	}
	if v := q.Get("fuzzy"); v != "" {
		if req.Fuzzy, err = strconv.ParseBool(v); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid fuzzy flag")
			return
		}
	}
	s.search(w, r, req)
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.search(w, r, req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req searchRequest) {
	if req.Limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("limit", req.Limit), zap.String("category", req.Category))
	resp, err := s.engine.Search(r.Context(), req.Query, req.options())
	if err != nil {
		s.unavailable(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp.View())
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	query := r.URL.Query().Get("q")
	titles, err := s.engine.Suggest(query, limit)
	if err != nil {
		s.unavailable(w, "suggest failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": query, "suggestions": titles})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	category := r.URL.Query().Get("category")
	titles, err := s.engine.Popular(category, limit)
	if err != nil {
		s.unavailable(w, "popular failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"category": category, "questions": titles})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "index": s.engine.State().String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"engine": s.engine.Stats(),
	}
	snapshot := map[string]interface{}{
		"backend": s.config.Snapshot.Backend,
	}
	if s.store != nil {
		snapshot["location"] = s.store.Location()
		if n, err := storage.SnapshotBytes(s.store); err == nil {
			snapshot["disk_usage_bytes"] = n
		} else {
			s.logger.Warn("status: snapshot size failed", zap.Error(err))
		}
	}
	resp["snapshot"] = snapshot

	watch := map[string]interface{}{"enabled": s.watch != nil}
	if s.watch != nil {
		watch["directories"] = s.watch.Directories()
	}
	resp["watch"] = watch
	resp["config"] = map[string]interface{}{
		"content_path": s.config.Corpus.ContentPath,
		"categories":   len(s.config.Corpus.Categories),
		"cache_size":   s.config.Search.CacheSize,
		"max_limit":    s.config.Search.MaxLimit,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	report, err := s.Rebuild(r.Context())
	if errors.Is(err, ErrReindexDisabled) {
		s.respondError(w, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		var be *indexer.BuildError
		if errors.As(err, &be) {
			s.respondError(w, http.StatusInternalServerError, be.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "reindex failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "reindexed",
		"build_id":    report.BuildID,
		"entries":     report.Entries,
		"skipped":     report.Skipped,
		"duration_ms": report.Duration.Milliseconds(),
	})
}

// handleSnapshot serves the index to client-side engines: the JSON snapshot file when
// there is one, otherwise the served index encoded on the fly.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if js, ok := s.store.(*storage.JSONSnapshotStore); ok {
		if info, err := os.Stat(js.Path()); err == nil && info.Mode().IsRegular() {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, js.Path())
			return
		}
	}
	idx := s.engine.Index()
	if idx == nil {
		s.respondError(w, http.StatusServiceUnavailable, search.ErrUnavailable.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, idx.Snapshot())
}

// unavailable logs err and answers with the user-facing message only.
func (s *Server) unavailable(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, search.ErrUnavailable) {
		s.logger.Debug(msg, zap.Error(err))
	} else {
		s.logger.Error(msg, zap.Error(err))
	}
	s.respondError(w, http.StatusServiceUnavailable, search.ErrUnavailable.Error())
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", v)
	}
	return n, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
