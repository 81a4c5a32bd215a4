package connector

import (
	"net/http"
	"strings"

	"payrouter/pkg/connectors"
	"payrouter/pkg/middleware"
	"payrouter/pkg/openapi"
)

// route is one router-service operation backed by a connector flow.
type route struct {
	Flow    connectors.FlowKind
	Method  string
	Path    string
	Summary string
	Scopes  []string // any-of
	handle  func(h *Handler, w http.ResponseWriter, r *http.Request)
}

var routes = []route{
	{connectors.FlowSession, http.MethodPost, "/v1/payments/{connector}/session", "Create a connector payment session", []string{middleware.ScopePaymentsWrite}, (*Handler).session},
	{connectors.FlowAuthorize, http.MethodPost, "/v1/payments/{connector}/authorize", "Authorize a payment", []string{middleware.ScopePaymentsWrite}, (*Handler).authorize},
	{connectors.FlowCapture, http.MethodPost, "/v1/payments/{connector}/capture", "Capture an authorized payment", []string{middleware.ScopePaymentsWrite}, (*Handler).capture},
	{connectors.FlowVoid, http.MethodPost, "/v1/payments/{connector}/void", "Void an authorized payment", []string{middleware.ScopePaymentsWrite}, (*Handler).void},
	{connectors.FlowSetupMandate, http.MethodPost, "/v1/payments/{connector}/setup_mandate", "Set up a mandate", []string{middleware.ScopePaymentsWrite}, (*Handler).setupMandate},
	{connectors.FlowPaymentMethodToken, http.MethodPost, "/v1/payments/{connector}/tokenize", "Tokenize a payment method", []string{middleware.ScopePaymentsWrite}, (*Handler).tokenize},
	{connectors.FlowPSync, http.MethodGet, "/v1/payments/{connector}/{connector_transaction_id}", "Sync payment status", []string{middleware.ScopePaymentsRead, middleware.ScopePaymentsWrite}, (*Handler).psync},
	{connectors.FlowRefundExecute, http.MethodPost, "/v1/refunds/{connector}", "Refund a payment", []string{middleware.ScopeRefundsWrite}, (*Handler).refund},
	{connectors.FlowRefundSync, http.MethodGet, "/v1/refunds/{connector}/{refund_id}", "Sync refund status", []string{middleware.ScopePaymentsRead, middleware.ScopeRefundsWrite}, (*Handler).refundSync},
}

const webhookPath = "/v1/webhooks/{connector}"

// Scopes documents the scopes accepted by the router service.
var Scopes = map[string]string{
	middleware.ScopePaymentsWrite: "Create and modify payments",
	middleware.ScopePaymentsRead:  "Read payment and refund status",
	middleware.ScopeRefundsWrite:  "Issue refunds",
}

// Describe lists one operation per connector binding. Unbound flows are left
// out even though their routes answer with 501.
func Describe(reg *connectors.Registry) *openapi.Registry {
	doc := openapi.NewRegistry()
	okResp := map[string]any{
		"200": map[string]any{"description": "Attempt result"},
		"4XX": map[string]any{"description": "Problem", "content": map[string]any{"application/problem+json": map[string]any{}}},
	}
	for _, id := range reg.Connectors() {
		for _, rt := range routes {
			if !reg.Supports(id, rt.Flow) {
				continue
			}
			op := openapi.Operation{
				Method:      rt.Method,
				Path:        strings.ReplaceAll(rt.Path, "{connector}", id),
				OperationID: id + "." + string(rt.Flow),
				Summary:     rt.Summary,
				Tags:        []string{id},
				Scopes:      rt.Scopes,
				Responses:   okResp,
			}
			if rt.Method == http.MethodPost {
				op.RequestBody = map[string]any{"required": true, "content": map[string]any{"application/json": map[string]any{}}}
			}
			doc.Register(op)
		}
		if reg.Supports(id, connectors.FlowWebhook) {
			doc.Register(openapi.Operation{
				Method:      http.MethodPost,
				Path:        strings.ReplaceAll(webhookPath, "{connector}", id),
				OperationID: id + ".webhook",
				Summary:     "Inbound connector notification",
				Tags:        []string{id},
				Responses:   map[string]any{"200": map[string]any{"description": "Resolved event"}},
			})
		}
	}
	return doc
}
