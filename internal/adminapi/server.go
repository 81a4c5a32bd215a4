package adminapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"payrouter/internal/policy"
	"payrouter/pkg/middleware"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	allowed := []string{"http://localhost:3001"}
	if v := strings.TrimSpace(os.Getenv("ADMIN_CORS_ORIGINS")); v != "" {
		parts := strings.Split(v, ",")
		tmp := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			allowed = tmp
		}
	}

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(cors(allowed))
		ar.Use(middleware.JWTAuth(a.cfg, a.deps.Keys))
		ar.Use(middleware.RequireScope(middleware.ScopeAdmin))

		ar.Get("/connectors", a.listConnectors)

		ar.Post("/merchants", a.createMerchant)
		ar.Get("/merchants/{merchant}", a.getMerchant)
		ar.Get("/merchants/{merchant}/connectors", a.listMerchantConnectors)
		ar.Put("/merchants/{merchant}/connectors/{connector}", a.putConnectorAccount)

		ar.Post("/users", a.createUser)
		ar.Get("/users", a.findUser)

		policy.RegisterHTTP(ar, a.deps.Policy)
	})
	return r
}
