package connectors

import (
	"encoding/json"
	"net/http"
)

type IncomingWebhookRequest struct {
	Method      string
	Headers     http.Header
	Body        []byte
	QueryParams string
}

type WebhookEvent string

const (
	EventPaymentSuccess    WebhookEvent = "payment_intent_success"
	EventPaymentFailure    WebhookEvent = "payment_intent_failure"
	EventPaymentProcessing WebhookEvent = "payment_intent_processing"
	EventRefundSuccess     WebhookEvent = "refund_success"
	EventRefundFailure     WebhookEvent = "refund_failure"
	EventNotSupported      WebhookEvent = "event_not_supported"
)

type ObjectReferenceKind string

const (
	ReferencePayment ObjectReferenceKind = "payment"
	ReferenceRefund  ObjectReferenceKind = "refund"
)

// ObjectReferenceID names the payment or refund a webhook refers to.
type ObjectReferenceID struct {
	Kind                   ObjectReferenceKind `json:"kind"`
	ConnectorTransactionID string              `json:"connector_transaction_id,omitempty"`
	ConnectorRefundID      string              `json:"connector_refund_id,omitempty"`
}

// IncomingWebhook resolves inbound connector notifications.
type IncomingWebhook interface {
	ObjectReferenceID(req *IncomingWebhookRequest) (ObjectReferenceID, error)
	EventType(req *IncomingWebhookRequest) (WebhookEvent, error)
	ResourceObject(req *IncomingWebhookRequest) (json.RawMessage, error)
}

// NoWebhooks is bound for connectors without webhook support.
type NoWebhooks struct{}

func (NoWebhooks) ObjectReferenceID(*IncomingWebhookRequest) (ObjectReferenceID, error) {
	return ObjectReferenceID{}, WebhooksNotImplemented()
}

func (NoWebhooks) EventType(*IncomingWebhookRequest) (WebhookEvent, error) {
	return "", WebhooksNotImplemented()
}

func (NoWebhooks) ResourceObject(*IncomingWebhookRequest) (json.RawMessage, error) {
	return nil, WebhooksNotImplemented()
}
