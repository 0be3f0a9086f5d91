package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tellerworks/tellerd/internal/scheduling/agents"
)

type registerAgentReq struct {
	Name          string `json:"name"`
	WorkloadLimit int    `json:"workload_limit"`
}

type registerAgentResp struct {
	AgentID string `json:"agent_id"`
}

type setAvailabilityReq struct {
	Status string `json:"status"`
}

// getAgents handles GET /agents
func (h *handlers) getAgents(w http.ResponseWriter, r *http.Request) {
	snap := h.core.Snapshot()
	out := make([]agentView, 0, len(snap.Agents))
	for _, a := range snap.Agents {
		out = append(out, viewAgent(a))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(out)
}

// registerAgent handles POST /agents
func (h *handlers) registerAgent(w http.ResponseWriter, r *http.Request) {
	var req registerAgentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	id, err := h.core.RegisterAgent(req.Name, req.WorkloadLimit)
	if err != nil {
		switch {
		case errors.Is(err, agents.ErrInvalidWorkloadLimit):
			http.Error(w, "workload_limit must be positive", http.StatusBadRequest)
		case errors.Is(err, agents.ErrDuplicateAgent):
			http.Error(w, "agent id already registered", http.StatusConflict)
		default:
			http.Error(w, fmt.Sprintf("failed to register agent: %v", err), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registerAgentResp{AgentID: id})
}

// setAvailability handles PUT /agents/{agentId}/availability
func (h *handlers) setAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agentId")
	if id == "" {
		http.Error(w, "agentId is required", http.StatusBadRequest)
		return
	}
	var req setAvailabilityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	status, err := agents.ParseAvailability(req.Status)
	if err != nil {
		http.Error(w, "status must be one of: available, busy, offline", http.StatusBadRequest)
		return
	}
	if err := h.core.SetAgentAvailability(id, status); err != nil {
		if errors.Is(err, agents.ErrUnknownAgent) {
			http.Error(w, "agent not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("failed to update agent: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
