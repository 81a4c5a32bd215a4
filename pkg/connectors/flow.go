package connectors

import "net/http"

// FlowKind identifies one internal payment operation.
type FlowKind string

const (
	FlowAccessTokenAuth    FlowKind = "access_token_auth"
	FlowSession            FlowKind = "session"
	FlowSetupMandate       FlowKind = "setup_mandate"
	FlowAuthorize          FlowKind = "authorize"
	FlowPSync              FlowKind = "psync"
	FlowCapture            FlowKind = "capture"
	FlowVoid               FlowKind = "void"
	FlowRefundExecute      FlowKind = "refund_execute"
	FlowRefundSync         FlowKind = "refund_sync"
	FlowWebhook            FlowKind = "webhook"
	FlowPaymentMethodToken FlowKind = "payment_method_token"
)

// Flow binds a flow kind to its request/response payload types and the HTTP
// verb every connector uses for it.
type Flow[Req, Resp any] struct {
	Kind   FlowKind
	Method string
}

var (
	AccessTokenAuth    = Flow[AccessTokenRequestData, AccessToken]{FlowAccessTokenAuth, http.MethodPost}
	Session            = Flow[PaymentsSessionData, PaymentsResponseData]{FlowSession, http.MethodPost}
	SetupMandate       = Flow[SetupMandateData, PaymentsResponseData]{FlowSetupMandate, http.MethodPost}
	Authorize          = Flow[PaymentsAuthorizeData, PaymentsResponseData]{FlowAuthorize, http.MethodPost}
	PSync              = Flow[PaymentsSyncData, PaymentsResponseData]{FlowPSync, http.MethodGet}
	Capture            = Flow[PaymentsCaptureData, PaymentsResponseData]{FlowCapture, http.MethodPost}
	Void               = Flow[PaymentsCancelData, PaymentsResponseData]{FlowVoid, http.MethodPost}
	RefundExecute      = Flow[RefundsData, RefundsResponseData]{FlowRefundExecute, http.MethodPost}
	RefundSync         = Flow[RefundsData, RefundsResponseData]{FlowRefundSync, http.MethodGet}
	PaymentMethodToken = Flow[PaymentMethodTokenizationData, PaymentsResponseData]{FlowPaymentMethodToken, http.MethodPost}
)

// ExecutableFlows lists the flows driven through the request pipeline.
// Webhooks arrive inbound and are served by IncomingWebhook instead.
var ExecutableFlows = []FlowKind{
	FlowAccessTokenAuth, FlowSession, FlowSetupMandate, FlowAuthorize, FlowPSync,
	FlowCapture, FlowVoid, FlowRefundExecute, FlowRefundSync, FlowPaymentMethodToken,
}
