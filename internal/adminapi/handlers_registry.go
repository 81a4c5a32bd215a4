package adminapi

import (
	"net/http"

	"payrouter/pkg/connectors"
)

type connectorInfo struct {
	ID       string                `json:"id"`
	Flows    []connectors.FlowKind `json:"flows"`
	Webhooks bool                  `json:"webhooks"`
}

// listConnectors reports the capability matrix: which flows each registered
// connector binds.
func (a *App) listConnectors(w http.ResponseWriter, r *http.Request) {
	reg := a.deps.Registry
	out := []connectorInfo{}
	for _, id := range reg.Connectors() {
		info := connectorInfo{ID: id, Flows: []connectors.FlowKind{}, Webhooks: reg.Supports(id, connectors.FlowWebhook)}
		for _, f := range connectors.ExecutableFlows {
			if reg.Supports(id, f) {
				info.Flows = append(info.Flows, f)
			}
		}
		out = append(out, info)
	}
	writeJSON(w, map[string]any{"connectors": out}, http.StatusOK)
}
