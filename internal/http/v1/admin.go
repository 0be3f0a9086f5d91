package v1

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tellerworks/tellerd/internal/scheduling/policy"
	"github.com/tellerworks/tellerd/internal/security/admintoken"
)

type adminTokenReq struct {
	TTL string `json:"ttl"` // Go duration, e.g. "15m"
}

type adminTokenResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type switchAlgorithmResp struct {
	Success   bool   `json:"success"`
	Algorithm string `json:"algorithm"`
}

// createAdminToken handles POST /admin/token. Minting requires the
// shared secret itself or a still-valid admin token as the bearer
// credential, so fresh tokens cannot be minted anonymously.
func (h *handlers) createAdminToken(w http.ResponseWriter, r *http.Request) {
	if len(h.adminSecret) == 0 {
		http.Error(w, "admin tokens disabled: TELLERD_ADMIN_JWT_SECRET not set", http.StatusForbidden)
		return
	}
	auth := r.Header.Get("Authorization")
	cred, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || cred == "" {
		http.Error(w, "bearer credential required", http.StatusUnauthorized)
		return
	}
	if subtle.ConstantTimeCompare([]byte(cred), h.adminSecret) != 1 {
		if _, err := admintoken.Verify(h.adminSecret, cred); err != nil {
			http.Error(w, "invalid credential", http.StatusUnauthorized)
			return
		}
	}
	var req adminTokenReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	ttl := 15 * time.Minute
	if req.TTL != "" {
		if d, err := time.ParseDuration(req.TTL); err == nil {
			ttl = d
		}
	}
	tok, err := admintoken.Issue(h.adminSecret, ttl)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to issue token: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(adminTokenResp{Token: tok, ExpiresAt: time.Now().Add(ttl)})
}

// requireAdmin gates mutating routes behind a bearer token when a
// secret is configured. With no secret the deployment is open, which
// matches the dashboard's development mode.
func (h *handlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.adminSecret) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "bearer token required", http.StatusUnauthorized)
			return
		}
		if _, err := admintoken.Verify(h.adminSecret, token); err != nil {
			http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// switchAlgorithm handles PUT /algorithm/{name}
func (h *handlers) switchAlgorithm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.core.SwitchPolicy(name); err != nil {
		if errors.Is(err, policy.ErrUnknownPolicy) {
			http.Error(w, fmt.Sprintf("unknown policy %q, supported: %s", name, strings.Join(policy.Names(), ", ")), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("failed to switch policy: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(switchAlgorithmResp{Success: true, Algorithm: name})
}
