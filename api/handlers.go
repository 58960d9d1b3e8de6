package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"vigil/core"
	"vigil/storage"

	"github.com/gorilla/mux"
)

const maxRequestBody = 1 << 20 // 1 MB

// recentAlertCount is how many alerts the stats endpoint includes inline.
const recentAlertCount = 5

type submitEventRequest struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data"`
	Source   string         `json:"source"`
	Priority string         `json:"priority"`
}

func (s *Server) submitEvent(w http.ResponseWriter, r *http.Request) {
	var req submitEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err, s.logger)
		return
	}

	event := core.NewEvent(req.Type, req.Data, req.Source, req.Priority)
	alerts, err := s.engine.SubmitEvent(r.Context(), event)
	if err != nil {
		if core.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error(), nil, s.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process event", err, s.logger)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"alerts":  alerts,
		"matched": len(alerts),
	})
}

func (s *Server) getAlerts(w http.ResponseWriter, r *http.Request) {
	filters := &core.AlertFilters{
		Severity: core.Severity(r.URL.Query().Get("severity")),
		Status:   core.AlertStatus(r.URL.Query().Get("status")),
	}
	if filters.Severity != "" && !filters.Severity.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid severity filter", nil, s.logger)
		return
	}
	if filters.Status != "" && !filters.Status.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid status filter", nil, s.logger)
		return
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", err, s.logger)
			return
		}
		filters.Limit = limit
	}

	alerts, err := s.alerts.List(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts", err, s.logger)
		return
	}
	if alerts == nil {
		alerts = []*core.Alert{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (s *Server) getAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	alert, err := s.alerts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "alert not found", nil, s.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get alert", err, s.logger)
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

type lifecycleRequest struct {
	AcknowledgedBy string `json:"acknowledged_by"`
	DismissedBy    string `json:"dismissed_by"`
}

func (s *Server) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req lifecycleRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err, s.logger)
			return
		}
	}

	alert, err := s.alerts.Acknowledge(r.Context(), id, req.AcknowledgedBy)
	if err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

func (s *Server) dismissAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req lifecycleRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err, s.logger)
			return
		}
	}

	alert, err := s.alerts.Dismiss(r.Context(), id, req.DismissedBy)
	if err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

// writeLifecycleError maps lifecycle failures: unknown or already-dismissed
// alerts are 404, disallowed transitions are 409.
func (s *Server) writeLifecycleError(w http.ResponseWriter, err error) {
	var transitionErr *core.TransitionError
	switch {
	case errors.Is(err, storage.ErrAlertNotFound):
		writeError(w, http.StatusNotFound, "alert not found", nil, s.logger)
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, err.Error(), nil, s.logger)
	default:
		writeError(w, http.StatusInternalServerError, "failed to update alert", err, s.logger)
	}
}

func (s *Server) getRules(w http.ResponseWriter, r *http.Request) {
	rules := s.engine.Rules()
	respondJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.alerts.Stats(r.Context(), recentAlertCount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats", err, s.logger)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

type testNotificationRequest struct {
	Channel string `json:"channel"`
	Target  string `json:"target"`
}

func (s *Server) testNotification(w http.ResponseWriter, r *http.Request) {
	var req testNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err, s.logger)
		return
	}
	if req.Channel == "" || req.Target == "" {
		writeError(w, http.StatusBadRequest, "channel and target are required", nil, s.logger)
		return
	}

	if err := s.tester.SendTest(r.Context(), req.Channel, req.Target); err != nil {
		writeError(w, http.StatusBadGateway, "test notification failed: "+err.Error(), err, s.logger)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "sent",
		"channel": req.Channel,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst)
}
