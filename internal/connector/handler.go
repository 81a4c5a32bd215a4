// internal/connector/handler.go
package connector

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"payrouter/internal/pipeline"
	"payrouter/internal/policy"
	"payrouter/pkg/config"
	"payrouter/pkg/connectors"
	"payrouter/pkg/merchants"
	"payrouter/pkg/middleware"
	"payrouter/pkg/problems"
)

const maxBody = 1 << 20

// Handler serves the router-service API: one route per connector flow.
type Handler struct {
	exec      *pipeline.Executor
	merchants merchants.Store
	policy    *policy.Engine
	log       *zap.SugaredLogger
	validate  *validator.Validate
	newID     func() string
}

func NewHandler(exec *pipeline.Executor, store merchants.Store, eng *policy.Engine, log *zap.SugaredLogger) *Handler {
	return &Handler{
		exec:      exec,
		merchants: store,
		policy:    eng,
		log:       log,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		newID:     uuid.NewString,
	}
}

// Router mounts the public endpoints and the authenticated flow routes.
func Router(r chi.Router, cfg config.Config, keys middleware.KeySource, h *Handler) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Options("/.well-known/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusNoContent)
	})
	doc := Describe(h.exec.Registry())
	r.Get("/.well-known/openapi.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		doc.ServeHandler(cfg.ServiceName, "v1", Scopes)(w, req)
	})
	// connectors cannot present our tokens
	r.Post(webhookPath, h.webhook)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.JWTAuth(cfg, keys))
		pr.Use(middleware.WithMerchant(h.merchants))
		for _, rt := range routes {
			rt := rt
			pr.With(middleware.RequireScope(rt.Scopes...)).Method(rt.Method, rt.Path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				rt.handle(h, w, req)
			}))
		}
	})
}

// AttemptResult is the body returned for every processed attempt. Exactly one
// of Response and Error is set.
type AttemptResult[Resp any] struct {
	AttemptID string                    `json:"attempt_id"`
	PaymentID string                    `json:"payment_id,omitempty"`
	Flow      connectors.FlowKind       `json:"flow"`
	Connector string                    `json:"connector"`
	Status    connectors.AttemptStatus  `json:"status,omitempty"`
	Response  *Resp                     `json:"response,omitempty"`
	Error     *connectors.ErrorResponse `json:"error,omitempty"`
}

// attempt carries the per-request inputs that are not part of the flow
// payload.
type attempt struct {
	PaymentID    string
	Metadata     json.RawMessage
	Shipping     *connectors.Address
	SessionToken *string
	Admission    policy.Input
}

func execute[Req, Resp any](h *Handler, w http.ResponseWriter, r *http.Request, flow connectors.Flow[Req, Resp], req Req, a attempt) {
	ctx := r.Context()
	merchant := middleware.MerchantFrom(ctx)
	connector := chi.URLParam(r, "connector")
	log := h.log.With("merchant_id", merchant.ID, "connector", connector, "flow", flow.Kind)

	if _, err := h.exec.Registry().Adapter(connector); err != nil {
		problems.WriteProblem(w, problems.FromConnectorError(err))
		return
	}
	acct, err := h.merchants.ConnectorAccount(ctx, merchant.ID, connector)
	switch {
	case errors.Is(err, merchants.ErrNoAccount):
		problems.Write(w, http.StatusNotFound, "connector-account-missing", "Connector account missing", "No "+connector+" account is configured for this merchant")
		return
	case err != nil:
		log.Errorw("connector account lookup", "err", err)
		problems.Write(w, http.StatusInternalServerError, "connector-account-lookup", "Connector account lookup failed", "")
		return
	case acct.Disabled:
		problems.Write(w, http.StatusConflict, "connector-disabled", "Connector disabled", "")
		return
	}

	a.Admission.MerchantID = merchant.ID
	a.Admission.Connector = connector
	a.Admission.Flow = string(flow.Kind)
	if dec := h.policy.Evaluate(ctx, a.Admission); !dec.Allowed() {
		log.Infow("attempt blocked by policy", "reasons", dec.Reasons, "policy_version", dec.PolicyVersion)
		problems.WriteProblem(w, problems.Problem{
			Type:   problems.Type("payment-blocked"),
			Title:  "Payment blocked",
			Status: http.StatusForbidden,
			Extra:  map[string]any{"reasons": dec.Reasons},
		})
		return
	}

	paymentID := a.PaymentID
	if paymentID == "" {
		paymentID = "pay_" + strings.ReplaceAll(h.newID(), "-", "")
	}
	metadata := acct.Metadata
	if len(a.Metadata) > 0 {
		metadata = a.Metadata
	}
	data := &connectors.RouterData[Req, Resp]{
		MerchantID:        merchant.ID,
		Connector:         connector,
		PaymentID:         paymentID,
		AttemptID:         h.newID(),
		Status:            connectors.StatusStarted,
		AuthType:          acct.Auth,
		ConnectorMetadata: metadata,
		Shipping:          a.Shipping,
		Request:           req,
		SessionToken:      a.SessionToken,
	}
	out, err := pipeline.Execute(ctx, h.exec, flow, data)
	if err != nil {
		p := problems.FromConnectorError(err)
		p.Extra["attempt_id"] = data.AttemptID
		problems.WriteProblem(w, p)
		return
	}
	writeJSON(w, http.StatusOK, AttemptResult[Resp]{
		AttemptID: out.AttemptID,
		PaymentID: out.PaymentID,
		Flow:      out.Flow,
		Connector: out.Connector,
		Status:    out.Status,
		Response:  out.Response.Value,
		Error:     out.Response.Err,
	})
}

// decode reads a JSON body into v and validates it. It writes the problem
// and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		problems.Write(w, http.StatusBadRequest, "invalid-body", "Invalid body", err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		problems.Write(w, http.StatusUnprocessableEntity, "validation-failed", "Validation failed", validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Namespace()+" "+fe.Tag())
	}
	return strings.Join(fields, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
