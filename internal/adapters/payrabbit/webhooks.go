package payrabbit

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"payrouter/pkg/connectors"
)

// webhooks reads notifications shaped as
// {"event": "payment.approved", "data": {"ticket_number": "...", ...}}.
type webhooks struct{}

var _ connectors.IncomingWebhook = webhooks{}

var webhookEvents = map[string]connectors.WebhookEvent{
	"payment.approved": connectors.EventPaymentSuccess,
	"payment.rejected": connectors.EventPaymentFailure,
	"payment.pending":  connectors.EventPaymentProcessing,
	"refund.approved":  connectors.EventRefundSuccess,
	"refund.rejected":  connectors.EventRefundFailure,
}

func parseWebhook(req *connectors.IncomingWebhookRequest) (gjson.Result, error) {
	if !gjson.ValidBytes(req.Body) {
		return gjson.Result{}, connectors.ResponseDeserializationFailed(errors.New("webhook body is not JSON"))
	}
	return gjson.ParseBytes(req.Body), nil
}

func (webhooks) EventType(req *connectors.IncomingWebhookRequest) (connectors.WebhookEvent, error) {
	doc, err := parseWebhook(req)
	if err != nil {
		return "", err
	}
	if ev, ok := webhookEvents[doc.Get("event").String()]; ok {
		return ev, nil
	}
	return connectors.EventNotSupported, nil
}

func (webhooks) ObjectReferenceID(req *connectors.IncomingWebhookRequest) (connectors.ObjectReferenceID, error) {
	doc, err := parseWebhook(req)
	if err != nil {
		return connectors.ObjectReferenceID{}, err
	}
	if refund := doc.Get("data.refund_id"); refund.Exists() {
		return connectors.ObjectReferenceID{
			Kind:                   connectors.ReferenceRefund,
			ConnectorRefundID:      refund.String(),
			ConnectorTransactionID: doc.Get("data.ticket_number").String(),
		}, nil
	}
	ticket := doc.Get("data.ticket_number")
	if !ticket.Exists() || ticket.String() == "" {
		return connectors.ObjectReferenceID{}, connectors.MissingRequiredField("data.ticket_number")
	}
	return connectors.ObjectReferenceID{Kind: connectors.ReferencePayment, ConnectorTransactionID: ticket.String()}, nil
}

func (webhooks) ResourceObject(req *connectors.IncomingWebhookRequest) (json.RawMessage, error) {
	doc, err := parseWebhook(req)
	if err != nil {
		return nil, err
	}
	data := doc.Get("data")
	if !data.IsObject() {
		return nil, connectors.MissingRequiredField("data")
	}
	return json.RawMessage(data.Raw), nil
}
