package connector

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payrouter/pkg/connectors"
	"payrouter/pkg/problems"
)

// WebhookResult is the resolved form of an inbound connector notification.
type WebhookResult struct {
	Connector string                       `json:"connector"`
	Event     connectors.WebhookEvent      `json:"event"`
	Reference connectors.ObjectReferenceID `json:"reference"`
	Resource  json.RawMessage              `json:"resource"`
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	connector := chi.URLParam(r, "connector")
	hooks, err := h.exec.Registry().Webhooks(connector)
	if err != nil {
		problems.WriteProblem(w, problems.FromConnectorError(err))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		problems.Write(w, http.StatusBadRequest, "invalid-body", "Invalid body", err.Error())
		return
	}
	req := &connectors.IncomingWebhookRequest{
		Method:      r.Method,
		Headers:     r.Header,
		Body:        body,
		QueryParams: r.URL.RawQuery,
	}
	ref, err := hooks.ObjectReferenceID(req)
	if err != nil {
		h.webhookFailed(w, connector, err)
		return
	}
	event, err := hooks.EventType(req)
	if err != nil {
		h.webhookFailed(w, connector, err)
		return
	}
	resource, err := hooks.ResourceObject(req)
	if err != nil {
		h.webhookFailed(w, connector, err)
		return
	}
	h.log.Infow("webhook received", "connector", connector, "event", event, "reference_kind", ref.Kind)
	writeJSON(w, http.StatusOK, WebhookResult{Connector: connector, Event: event, Reference: ref, Resource: resource})
}

func (h *Handler) webhookFailed(w http.ResponseWriter, connector string, err error) {
	h.log.Warnw("webhook rejected", "connector", connector, "err", err)
	p := problems.FromConnectorError(err)
	// an unreadable notification is the sender's fault, not an upstream one
	if errors.Is(err, connectors.ErrResponseDeserializationFailed) {
		p.Status = http.StatusBadRequest
		p.Title = http.StatusText(http.StatusBadRequest)
	}
	problems.WriteProblem(w, p)
}
