package connectors

import (
	"encoding/json"
	"time"

	"payrouter/pkg/masking"
)

// RouterData is the envelope carried through one flow attempt. It is owned by
// a single pipeline invocation and never shared between attempts.
type RouterData[Req, Resp any] struct {
	Flow       FlowKind
	MerchantID string
	Connector  string
	PaymentID  string
	AttemptID  string
	Status     AttemptStatus

	AuthType          ConnectorAuthType
	ConnectorMetadata json.RawMessage
	Shipping          *Address

	Request  Req
	Response Outcome[Resp]

	AccessToken  *AccessToken
	SessionToken *string
}

// Outcome holds exactly one of a parsed response or a normalized error.
type Outcome[Resp any] struct {
	Value *Resp
	Err   *ErrorResponse
}

func (o Outcome[Resp]) Ok() bool  { return o.Value != nil && o.Err == nil }
func (o Outcome[Resp]) Set() bool { return o.Value != nil || o.Err != nil }

func Success[Resp any](v Resp) Outcome[Resp] { return Outcome[Resp]{Value: &v} }

func Failure[Resp any](e ErrorResponse) Outcome[Resp] { return Outcome[Resp]{Err: &e} }

// AccessToken lives for the current attempt only.
type AccessToken struct {
	Token     masking.Secret[string]
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ErrorResponse is the normalized connector failure.
type ErrorResponse struct {
	StatusCode             int     `json:"status_code"`
	Code                   string  `json:"code"`
	Message                string  `json:"message"`
	Reason                 *string `json:"reason,omitempty"`
	ConnectorTransactionID *string `json:"connector_transaction_id,omitempty"`
}

const (
	NoErrorCode    = "NO_ERROR_CODE"
	NoErrorMessage = "NO_ERROR_MESSAGE"
)

// Derive copies the identity and credentials of parent into a fresh envelope
// for another flow. Request, outcome and tokens start empty.
func Derive[Req, Resp, PReq, PResp any](parent *RouterData[PReq, PResp], flow FlowKind, req Req) *RouterData[Req, Resp] {
	return &RouterData[Req, Resp]{
		Flow:              flow,
		MerchantID:        parent.MerchantID,
		Connector:         parent.Connector,
		PaymentID:         parent.PaymentID,
		AttemptID:         parent.AttemptID,
		Status:            parent.Status,
		AuthType:          parent.AuthType,
		ConnectorMetadata: parent.ConnectorMetadata,
		Shipping:          parent.Shipping,
		Request:           req,
	}
}
