package adminapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payrouter/pkg/connectors"
	"payrouter/pkg/merchants"
	"payrouter/pkg/problems"
)

type createMerchantBody struct {
	MerchantID string `json:"merchant_id" validate:"required,max=64"`
	Name       string `json:"name" validate:"max=255"`
}

func (a *App) createMerchant(w http.ResponseWriter, r *http.Request) {
	var b createMerchantBody
	if !a.decode(w, r, &b) {
		return
	}
	m, err := a.deps.Merchants.CreateMerchant(r.Context(), b.MerchantID, b.Name)
	if errors.Is(err, merchants.ErrDuplicate) {
		problems.Write(w, http.StatusConflict, "merchant-exists", "Merchant already exists", "")
		return
	}
	if err != nil {
		a.log.Errorw("create merchant", "merchant_id", b.MerchantID, "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "Create merchant failed", "")
		return
	}
	a.log.Infow("merchant created", "merchant_id", m.ID)
	writeJSON(w, m, http.StatusCreated)
}

func (a *App) getMerchant(w http.ResponseWriter, r *http.Request) {
	m, ok := a.merchant(w, r)
	if !ok {
		return
	}
	writeJSON(w, m, http.StatusOK)
}

// merchant resolves the {merchant} path parameter, writing 404 when absent.
func (a *App) merchant(w http.ResponseWriter, r *http.Request) (merchants.Merchant, bool) {
	m, err := a.deps.Merchants.Merchant(r.Context(), chi.URLParam(r, "merchant"))
	if errors.Is(err, merchants.ErrNotFound) {
		problems.Write(w, http.StatusNotFound, "unknown-merchant", "Unknown merchant", "")
		return merchants.Merchant{}, false
	}
	if err != nil {
		a.log.Errorw("merchant lookup", "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "Merchant lookup failed", "")
		return merchants.Merchant{}, false
	}
	return m, true
}

type accountView struct {
	MerchantID string              `json:"merchant_id"`
	Connector  string              `json:"connector"`
	AuthType   connectors.AuthKind `json:"auth_type"`
	Metadata   json.RawMessage     `json:"metadata,omitempty"`
	Disabled   bool                `json:"disabled"`
}

func (a *App) listMerchantConnectors(w http.ResponseWriter, r *http.Request) {
	m, ok := a.merchant(w, r)
	if !ok {
		return
	}
	ids, err := a.deps.Merchants.ListConnectors(r.Context(), m.ID)
	if err != nil {
		a.log.Errorw("list connectors", "merchant_id", m.ID, "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "List connectors failed", "")
		return
	}
	out := make([]accountView, 0, len(ids))
	for _, id := range ids {
		acct, err := a.deps.Merchants.ConnectorAccount(r.Context(), m.ID, id)
		if err != nil {
			a.log.Errorw("open connector account", "merchant_id", m.ID, "connector", id, "err", err)
			problems.Write(w, http.StatusInternalServerError, "internal", "Open connector account failed", "")
			return
		}
		out = append(out, accountView{MerchantID: m.ID, Connector: id, AuthType: acct.Auth.Kind, Metadata: acct.Metadata, Disabled: acct.Disabled})
	}
	writeJSON(w, map[string]any{"connectors": out}, http.StatusOK)
}

type connectorAccountBody struct {
	Auth     connectors.ConnectorAuthType `json:"auth"`
	Metadata json.RawMessage              `json:"metadata"`
	Disabled bool                         `json:"disabled"`
}

// putConnectorAccount stores credentials sealed with the merchant key. The
// response never echoes them.
func (a *App) putConnectorAccount(w http.ResponseWriter, r *http.Request) {
	m, ok := a.merchant(w, r)
	if !ok {
		return
	}
	connector := chi.URLParam(r, "connector")
	if _, err := a.deps.Registry.Adapter(connector); err != nil {
		problems.WriteProblem(w, problems.FromConnectorError(err))
		return
	}
	var b connectorAccountBody
	if !a.decode(w, r, &b) {
		return
	}
	if b.Auth.Kind == "" {
		problems.Write(w, http.StatusUnprocessableEntity, "validation-failed", "Validation failed", "auth.auth_type is required")
		return
	}
	acct := merchants.ConnectorAccount{MerchantID: m.ID, Connector: connector, Auth: b.Auth, Metadata: b.Metadata, Disabled: b.Disabled}
	if err := a.deps.Merchants.UpsertConnectorAccount(r.Context(), acct); err != nil {
		a.log.Errorw("upsert connector account", "merchant_id", m.ID, "connector", connector, "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "Store connector account failed", "")
		return
	}
	a.log.Infow("connector account stored", "merchant_id", m.ID, "connector", connector, "auth_type", b.Auth.Kind, "disabled", b.Disabled)
	writeJSON(w, accountView{MerchantID: m.ID, Connector: connector, AuthType: b.Auth.Kind, Metadata: b.Metadata, Disabled: b.Disabled}, http.StatusOK)
}
