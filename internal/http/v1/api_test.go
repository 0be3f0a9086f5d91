package v1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpserver "github.com/tellerworks/tellerd/internal/http"
	"github.com/tellerworks/tellerd/internal/scheduling/agents"
	"github.com/tellerworks/tellerd/internal/scheduling/dispatch"
)

type manualClock struct {
	now time.Time
}

func (m *manualClock) Now() time.Time { return m.now }

func newTestStack(t *testing.T, adminSecret []byte) (*httptest.Server, *dispatch.Dispatcher, *manualClock) {
	t.Helper()
	clock := &manualClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	reg := agents.NewRegistry()
	for _, name := range []string{"Alex", "Blake"} {
		if err := reg.Register(agents.New(name, 2)); err != nil {
			t.Fatalf("register agent: %v", err)
		}
	}
	core := dispatch.New(reg, dispatch.Config{Clock: clock})
	ts := httptest.NewServer(httpserver.NewServer(core, adminSecret))
	t.Cleanup(ts.Close)
	return ts, core, clock
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestSubmitCustomerAndSnapshot(t *testing.T) {
	ts, core, clock := newTestStack(t, nil)

	resp := postJSON(t, ts.URL+"/api/v1/customers", map[string]any{
		"priority":             "VIP",
		"service_time_seconds": 10,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var created struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.CustomerID == "" {
		t.Fatal("empty customer id")
	}

	core.Tick(clock.Now())

	resp2, err := http.Get(ts.URL + "/api/v1/snapshot")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp2.StatusCode)
	}
	var snap struct {
		Agents       []json.RawMessage `json:"agents"`
		WaitingQueue []json.RawMessage `json:"waiting_queue"`
		Metrics      struct {
			ActiveAlgorithm string `json:"active_algorithm"`
		} `json:"metrics"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(snap.Agents))
	}
	if len(snap.WaitingQueue) != 0 {
		t.Fatalf("expected customer assigned, %d still waiting", len(snap.WaitingQueue))
	}
	if snap.Metrics.ActiveAlgorithm != "round_robin" {
		t.Fatalf("unexpected active algorithm: %s", snap.Metrics.ActiveAlgorithm)
	}
}

func TestSubmitCustomerValidation(t *testing.T) {
	ts, _, _ := newTestStack(t, nil)

	cases := []map[string]any{
		{"priority": "Platinum", "service_time_seconds": 10},
		{"priority": "Normal", "service_time_seconds": 0},
		{"priority": "Normal", "service_time_seconds": -3},
	}
	for _, body := range cases {
		resp := postJSON(t, ts.URL+"/api/v1/customers", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", body, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestSwitchAlgorithm(t *testing.T) {
	ts, core, _ := newTestStack(t, nil)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/algorithm/priority", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := core.ActivePolicy(); got != "priority" {
		t.Fatalf("active policy not switched: %s", got)
	}

	req2, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/algorithm/fifo", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("switch unknown: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown policy, got %d", resp2.StatusCode)
	}
}

func TestAgentAdministration(t *testing.T) {
	ts, _, _ := newTestStack(t, nil)

	resp := postJSON(t, ts.URL+"/api/v1/agents", map[string]any{"name": "Casey", "workload_limit": 3})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"status": "offline"})
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/agents/"+created.AgentID+"/availability", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp2.StatusCode)
	}

	req3, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/agents/missing/availability", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp3, err := http.DefaultClient.Do(req3)
	if err != nil {
		t.Fatalf("availability missing: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown agent, got %d", resp3.StatusCode)
	}
}

func TestAdminTokenGatesMutations(t *testing.T) {
	secret := []byte("test-secret")
	ts, _, _ := newTestStack(t, secret)

	// Mutating route without a token is rejected.
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/algorithm/priority", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	// Issue a token with the shared secret as the bootstrap
	// credential, then retry.
	body, _ := json.Marshal(map[string]string{"ttl": "2m"})
	req2, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/admin/token", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req2.Header.Set("Authorization", "Bearer "+string(secret))
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for token, got %d", resp2.StatusCode)
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}

	req3, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/algorithm/priority", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req3.Header.Set("Authorization", "Bearer "+tok.Token)
	resp3, err := http.DefaultClient.Do(req3)
	if err != nil {
		t.Fatalf("switch with token: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp3.StatusCode)
	}

	// Read-only routes stay open.
	resp4, err := http.Get(ts.URL + "/api/v1/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp4.Body.Close()
	if resp4.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for metrics, got %d", resp4.StatusCode)
	}
}

func TestAdminTokenMintRequiresCredential(t *testing.T) {
	secret := []byte("test-secret")
	ts, _, _ := newTestStack(t, secret)

	// Anonymous mint is rejected.
	resp := postJSON(t, ts.URL+"/api/v1/admin/token", map[string]string{"ttl": "2m"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous mint, got %d", resp.StatusCode)
	}

	// A bogus credential is rejected too.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/admin/token", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer not-the-secret")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credential, got %d", resp2.StatusCode)
	}

	// The shared secret itself works as the bootstrap credential.
	req3, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/admin/token", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req3.Header.Set("Authorization", "Bearer "+string(secret))
	resp3, err := http.DefaultClient.Do(req3)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", resp3.StatusCode)
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp3.Body).Decode(&tok); err != nil {
		t.Fatalf("decode token: %v", err)
	}

	// A minted token can mint further tokens.
	req4, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/admin/token", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req4.Header.Set("Authorization", "Bearer "+tok.Token)
	resp4, err := http.DefaultClient.Do(req4)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	resp4.Body.Close()
	if resp4.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with minted token, got %d", resp4.StatusCode)
	}
}

func TestCustomersListIncludesInService(t *testing.T) {
	ts, core, clock := newTestStack(t, nil)

	resp := postJSON(t, ts.URL+"/api/v1/customers", map[string]any{
		"priority":             "Normal",
		"service_time_seconds": 30,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	core.Tick(clock.Now())

	resp2, err := http.Get(ts.URL + "/api/v1/customers")
	if err != nil {
		t.Fatalf("customers: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp2.StatusCode)
	}
	var all []struct {
		Status        string `json:"status"`
		AssignedAgent string `json:"assigned_agent"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(all))
	}
	if all[0].Status != "in_service" {
		t.Fatalf("expected in_service status, got %s", all[0].Status)
	}
	if all[0].AssignedAgent == "" {
		t.Fatal("in-service customer missing assigned agent")
	}

	resp3, err := http.Get(ts.URL + "/api/v1/snapshot")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	defer resp3.Body.Close()
	var snap struct {
		InService []json.RawMessage `json:"in_service"`
	}
	if err := json.NewDecoder(resp3.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.InService) != 1 {
		t.Fatalf("expected 1 in-service customer in snapshot, got %d", len(snap.InService))
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	ts, core, clock := newTestStack(t, nil)

	first := postJSON(t, ts.URL+"/api/v1/customers", map[string]any{"priority": "Normal", "service_time_seconds": 1})
	first.Body.Close()
	core.Tick(clock.Now())
	clock.now = clock.now.Add(2 * time.Second)

	second := postJSON(t, ts.URL+"/api/v1/customers", map[string]any{"priority": "Normal", "service_time_seconds": 1})
	second.Body.Close()
	core.Tick(clock.Now())
	clock.now = clock.now.Add(2 * time.Second)
	core.Tick(clock.Now())

	resp, err := http.Get(ts.URL + "/api/v1/history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer resp.Body.Close()
	var served []struct {
		ID          string    `json:"customer_id"`
		ArrivalTime time.Time `json:"arrival_time"`
		Status      string    `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&served); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(served) != 2 {
		t.Fatalf("expected 2 served customers, got %d", len(served))
	}
	if !served[0].ArrivalTime.After(served[1].ArrivalTime) {
		t.Fatalf("history not newest first: %v then %v", served[0].ArrivalTime, served[1].ArrivalTime)
	}
	for _, c := range served {
		if c.Status != "served" {
			t.Fatalf("unexpected status in history: %s", c.Status)
		}
	}
}

func TestOpenAPIDocumentServed(t *testing.T) {
	ts, _, _ := newTestStack(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/openapi.yaml")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "tellerd API") {
		t.Fatal("openapi document missing title")
	}
}
