package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tellerworks/tellerd/internal/scheduling/customers"
)

type submitCustomerReq struct {
	Priority           string  `json:"priority"`
	ServiceTimeSeconds float64 `json:"service_time_seconds"`
}

type submitCustomerResp struct {
	CustomerID string `json:"customer_id"`
}

// submitCustomer handles POST /customers
func (h *handlers) submitCustomer(w http.ResponseWriter, r *http.Request) {
	var req submitCustomerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	tier, err := customers.ParseTier(req.Priority)
	if err != nil {
		http.Error(w, "priority must be one of: VIP, Corporate, Normal", http.StatusBadRequest)
		return
	}
	serviceTime := time.Duration(req.ServiceTimeSeconds * float64(time.Second))
	id, err := h.core.SubmitCustomer(tier, serviceTime)
	if err != nil {
		if errors.Is(err, customers.ErrInvalidServiceTime) {
			http.Error(w, "service_time_seconds must be positive", http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("failed to submit customer: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(submitCustomerResp{CustomerID: id})
}

// getQueue handles GET /queue: waiting customers ordered per the
// active policy, as of the last completed tick.
func (h *handlers) getQueue(w http.ResponseWriter, r *http.Request) {
	snap := h.core.Snapshot()
	out := make([]customerView, 0, len(snap.WaitingQueue))
	for _, c := range snap.WaitingQueue {
		out = append(out, viewCustomer(c))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(out)
}

// getCustomers handles GET /customers: every customer the scheduler
// knows about — waiting, in service, then served.
func (h *handlers) getCustomers(w http.ResponseWriter, r *http.Request) {
	snap := h.core.Snapshot()
	served := h.core.History()
	out := make([]customerView, 0, len(snap.WaitingQueue)+len(snap.InService)+len(served))
	for _, c := range snap.WaitingQueue {
		out = append(out, viewCustomer(c))
	}
	for _, c := range snap.InService {
		out = append(out, viewCustomer(c))
	}
	for _, c := range served {
		out = append(out, viewCustomer(c))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(out)
}

// getHistory handles GET /history: served customers, newest first.
func (h *handlers) getHistory(w http.ResponseWriter, r *http.Request) {
	served := h.core.History()
	out := make([]customerView, 0, len(served))
	for i := len(served) - 1; i >= 0; i-- {
		out = append(out, viewCustomer(served[i]))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(out)
}

// getMetrics handles GET /metrics (the JSON view; the Prometheus
// exposition lives at the server root).
func (h *handlers) getMetrics(w http.ResponseWriter, r *http.Request) {
	snap := h.core.Snapshot()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(snap.Metrics)
}

// getSnapshot handles GET /snapshot: the combined read-only view.
func (h *handlers) getSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(viewSnapshot(h.core.Snapshot()))
}
