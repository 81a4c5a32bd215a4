package policy

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payrouter/pkg/problems"
)

// RegisterHTTP mounts a dry-run endpoint evaluating an attempt against the
// loaded admission policy.
func RegisterHTTP(r chi.Router, eng *Engine) {
	r.Post("/admin/policy/evaluate", func(w http.ResponseWriter, req *http.Request) {
		var in Input
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			problems.Write(w, http.StatusBadRequest, "invalid-body", "Invalid body", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(eng.Evaluate(req.Context(), in))
	})
}
