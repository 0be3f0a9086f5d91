package v1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	openapi "github.com/tellerworks/tellerd/api/openapi"
	"github.com/tellerworks/tellerd/internal/scheduling/dispatch"
)

type handlers struct {
	core        *dispatch.Dispatcher
	adminSecret []byte
}

// Router returns the chi.Router for REST API v1.
func Router(core *dispatch.Dispatcher, adminSecret []byte) chi.Router {
	h := &handlers{core: core, adminSecret: adminSecret}
	r := chi.NewRouter()

	// Docs (Swagger UI) and spec under the versioned prefix
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/api/v1/openapi.yaml"),
	))
	r.Get("/openapi.yaml", serveOpenAPIStaticAsset)

	// Customer intake and read-only scheduler views
	r.Post("/customers", h.submitCustomer)
	r.Get("/customers", h.getCustomers)
	r.Get("/queue", h.getQueue)
	r.Get("/agents", h.getAgents)
	r.Get("/history", h.getHistory)
	r.Get("/metrics", h.getMetrics)
	r.Get("/snapshot", h.getSnapshot)

	// Admin token issuance
	r.Post("/admin/token", h.createAdminToken)

	// Mutating operations, bearer-gated when a secret is configured
	r.Group(func(admin chi.Router) {
		admin.Use(h.requireAdmin)
		admin.Put("/algorithm/{name}", h.switchAlgorithm)
		admin.Post("/agents", h.registerAgent)
		admin.Put("/agents/{agentId}/availability", h.setAvailability)
	})

	return r
}

func serveOpenAPIStaticAsset(w http.ResponseWriter, r *http.Request) {
	data, err := openapi.FS.ReadFile("v1/tellerd.yaml")
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read spec: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(data)
}
