package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"payrouter/pkg/merchants"
	"payrouter/pkg/problems"
	"payrouter/pkg/users"
)

// userView exposes the decrypted name; the password never leaves the store.
type userView struct {
	ID         int64     `json:"id"`
	MerchantID string    `json:"merchant_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

func viewOf(u users.User) userView {
	return userView{ID: u.ID, MerchantID: u.MerchantID, Name: u.Name.Expose(), Email: u.Email, CreatedAt: u.CreatedAt}
}

func (a *App) createUser(w http.ResponseWriter, r *http.Request) {
	var b users.NewUser
	if !a.decode(w, r, &b) {
		return
	}
	u, err := a.deps.Users.Insert(r.Context(), b)
	switch {
	case errors.Is(err, merchants.ErrNotFound):
		problems.Write(w, http.StatusNotFound, "unknown-merchant", "Unknown merchant", "")
	case errors.Is(err, users.ErrDuplicateUser):
		problems.Write(w, http.StatusConflict, "user-exists", "User already exists", "")
	case err != nil:
		a.log.Errorw("insert user", "merchant_id", b.MerchantID, "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "Create user failed", "")
	default:
		writeJSON(w, viewOf(u), http.StatusCreated)
	}
}

func (a *App) findUser(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		problems.Write(w, http.StatusUnprocessableEntity, "validation-failed", "Validation failed", "email query parameter is required")
		return
	}
	u, err := a.deps.Users.FindByEmail(r.Context(), email)
	if errors.Is(err, users.ErrNotFound) {
		problems.Write(w, http.StatusNotFound, "unknown-user", "Unknown user", "")
		return
	}
	if err != nil {
		a.log.Errorw("find user", "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "Find user failed", "")
		return
	}
	writeJSON(w, viewOf(u), http.StatusOK)
}
