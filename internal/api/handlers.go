package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mira-agent/mira/internal/domain"
)

// ─── State & Stats ──────────────────────────────────────────────────────────

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		domain.PipelineMetrics
		Judder domain.JudderMetrics `json:"judder"`
	}{
		PipelineMetrics: s.engine.Metrics(),
		Judder:          s.engine.Judder(),
	})
}

func (s *Server) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	s.engine.ResetMetrics()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ─── Pipeline Control ───────────────────────────────────────────────────────

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.engine.Pause()
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.engine.Resume()
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleGetLOD(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"level": s.engine.CurrentLOD().String(),
	})
}

func (s *Server) handleSetLOD(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	level, err := domain.ParseLOD(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.engine.RequestLOD(level)
	// The engine clamps to its configured floor; report what it settled on.
	writeJSON(w, http.StatusOK, map[string]string{
		"level": s.engine.CurrentLOD().String(),
	})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Visible == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"visible\": true|false}")
		return
	}
	v := domain.VisibilityHidden
	if *req.Visible {
		v = domain.VisibilityVisible
	}
	s.engine.SetVisibility(v)
	writeJSON(w, http.StatusOK, s.engine.State())
}

// ─── Render Work ────────────────────────────────────────────────────────────

// handleScheduleWork enqueues synthetic render work. It exists so the CLI
// and load tests can exercise admission without a real renderer attached.
func (s *Server) handleScheduleWork(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string  `json:"id"`
		Priority   int     `json:"priority"`
		CostMs     float64 `json:"cost_ms"`
		DurationMs float64 `json:"duration_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Priority < domain.PriorityCritical || req.Priority > domain.PriorityDeferred {
		writeError(w, http.StatusBadRequest, domain.ErrUnknownPriority.Error())
		return
	}

	busy := time.Duration(req.DurationMs * float64(time.Millisecond))
	id := s.engine.ScheduleRenderWork(req.ID, func() error {
		if busy > 0 {
			time.Sleep(busy)
		}
		return nil
	}, req.Priority, time.Duration(req.CostMs*float64(time.Millisecond)))

	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) handleCancelWork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.engine.CancelRenderWork(id) {
		writeError(w, http.StatusNotFound, "no pending work with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "cancelled"})
}

// ─── Occlusion Hints ────────────────────────────────────────────────────────

func (s *Server) handleOcclusion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ElementID      string  `json:"element_id"`
		Visible        bool    `json:"visible"`
		VisiblePercent float64 `json:"visible_percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ElementID == "" {
		writeError(w, http.StatusBadRequest, "body must include element_id")
		return
	}
	s.engine.AddOcclusionHint(req.ElementID, req.Visible, req.VisiblePercent)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"element_id":    req.ElementID,
		"should_render": s.engine.ShouldRender(req.ElementID),
	})
}

func (s *Server) handleRemoveOcclusion(w http.ResponseWriter, r *http.Request) {
	s.engine.RemoveOcclusionHint(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// ─── Session History ────────────────────────────────────────────────────────

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "session persistence is disabled")
		return
	}
	sessions, err := s.store.ListSessions(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "session persistence is disabled")
		return
	}
	session, err := s.store.GetSession(chi.URLParam(r, "id"))
	if err == domain.ErrSessionNotFound {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSessionSamples(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "session persistence is disabled")
		return
	}
	samples, err := s.store.SamplesForSession(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if samples == nil {
		samples = []domain.StatsSample{}
	}
	writeJSON(w, http.StatusOK, samples)
}
