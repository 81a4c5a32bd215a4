package adminapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"payrouter/pkg/problems"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads and validates a JSON body, writing the problem on failure.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		problems.Write(w, http.StatusBadRequest, "invalid-body", "Invalid body", err.Error())
		return false
	}
	if err := a.validate.Struct(v); err != nil {
		detail := err.Error()
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			parts := make([]string, 0, len(ve))
			for _, fe := range ve {
				parts = append(parts, fe.Field()+" "+fe.Tag())
			}
			detail = strings.Join(parts, "; ")
		}
		problems.Write(w, http.StatusUnprocessableEntity, "validation-failed", "Validation failed", detail)
		return false
	}
	return true
}
