package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vidscope/vidscope/pkg/domain"
	"github.com/vidscope/vidscope/pkg/interest"
)

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.cfg.Version,
		"time":    time.Now().UTC(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// curateRequest is the ad-hoc curation payload: caller-supplied items scored
// against caller-supplied interests, bypassing the configured sources
type curateRequest struct {
	Items     []domain.Item  `json:"items"`
	Interests interest.Input `json:"interests"`
}

// curateHandler triggers a curation run. With a request body the posted
// items and interests are piped through directly; without one the run uses
// the configured sources and the stored interest model.
func (s *Server) curateHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RenderError(w, r, fmt.Errorf("read body: %w", err), http.StatusBadRequest)
		return
	}

	if len(body) > 0 {
		var req curateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			RenderError(w, r, fmt.Errorf("parse curate request: %w", err), http.StatusBadRequest)
			return
		}
		if len(req.Items) == 0 {
			RenderError(w, r, fmt.Errorf("curate request has no items"), http.StatusBadRequest)
			return
		}
		result := s.runner.Run(r.Context(), req.Items, req.Interests)
		RenderJSON(w, r, http.StatusOK, map[string]any{"result": result})
		return
	}

	runID, result, err := s.curator.CurateNow(r.Context())
	if err != nil {
		RenderError(w, r, fmt.Errorf("curation run failed: %w", err), http.StatusInternalServerError)
		return
	}
	if result == nil {
		RenderError(w, r, fmt.Errorf("nothing to curate: no interest model or no candidates"), http.StatusConflict)
		return
	}

	RenderJSON(w, r, http.StatusOK, map[string]any{
		"run_id": runID,
		"result": result,
	})
}

// runsHandler lists recent runs, newest first
func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			RenderError(w, r, fmt.Errorf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.db.GetRuns(r.Context(), limit)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}

// runHandler returns a single run with its stage metadata
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RenderError(w, r, fmt.Errorf("invalid run id"), http.StatusBadRequest)
		return
	}

	run, err := s.db.GetRun(r.Context(), id)
	if err != nil {
		RenderError(w, r, err, http.StatusNotFound)
		return
	}
	RenderJSON(w, r, http.StatusOK, run)
}

// runItemsHandler returns the ranked items of a run in their final order
func (s *Server) runItemsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RenderError(w, r, fmt.Errorf("invalid run id"), http.StatusBadRequest)
		return
	}

	if _, err := s.db.GetRun(r.Context(), id); err != nil {
		RenderError(w, r, err, http.StatusNotFound)
		return
	}

	items, err := s.db.GetRunItems(r.Context(), id)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]any{"run_id": id, "items": items})
}

// statsHandler aggregates persisted runs and LLM client usage
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	runStats, err := s.db.GetStats(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"runs": runStats}
	if s.scorer != nil {
		resp["llm"] = s.scorer.Stats()
	}
	RenderJSON(w, r, http.StatusOK, resp)
}

// getInterestsHandler returns the stored interest model
func (s *Server) getInterestsHandler(w http.ResponseWriter, r *http.Request) {
	model, err := s.db.GetInterests(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, model)
}

// putInterestsHandler replaces the stored interest model. Accepts both flat
// keyword lists and hierarchical category maps, normalized before storage.
func (s *Server) putInterestsHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RenderError(w, r, fmt.Errorf("read body: %w", err), http.StatusBadRequest)
		return
	}

	model, err := interest.Parse(body)
	if err != nil {
		RenderError(w, r, err, http.StatusBadRequest)
		return
	}
	if len(model) == 0 {
		RenderError(w, r, fmt.Errorf("interest model is empty"), http.StatusBadRequest)
		return
	}

	if err := s.db.SaveInterests(r.Context(), model); err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, model)
}
