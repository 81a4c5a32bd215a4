package connector

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payrouter/internal/policy"
	"payrouter/pkg/connectors"
	"payrouter/pkg/problems"
)

type paymentBody struct {
	PaymentID         string                         `json:"payment_id" validate:"omitempty,max=64"`
	Amount            int64                          `json:"amount" validate:"gt=0"`
	Currency          connectors.Currency            `json:"currency" validate:"required"`
	PaymentMethod     connectors.PaymentMethodData   `json:"payment_method"`
	Email             *string                        `json:"email" validate:"omitempty,email"`
	BrowserInfo       *connectors.BrowserInformation `json:"browser_info"`
	Description       *string                        `json:"description" validate:"omitempty,max=255"`
	Shipping          *connectors.Address            `json:"shipping"`
	ConnectorMetadata json.RawMessage                `json:"connector_metadata"`
	SessionToken      *string                        `json:"session_token"`
}

func (b paymentBody) attempt() attempt {
	return attempt{
		PaymentID:    b.PaymentID,
		Metadata:     b.ConnectorMetadata,
		Shipping:     b.Shipping,
		SessionToken: b.SessionToken,
		Admission: policy.Input{
			Amount:        b.Amount,
			Currency:      string(b.Currency),
			PaymentMethod: string(b.PaymentMethod.Type),
		},
	}
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) {
	var b paymentBody
	if !h.decode(w, r, &b) {
		return
	}
	execute(h, w, r, connectors.Authorize, connectors.PaymentsAuthorizeData{
		Amount:        b.Amount,
		Currency:      b.Currency,
		PaymentMethod: b.PaymentMethod,
		Email:         b.Email,
		BrowserInfo:   b.BrowserInfo,
		Description:   b.Description,
	}, b.attempt())
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	var b paymentBody
	if !h.decode(w, r, &b) {
		return
	}
	execute(h, w, r, connectors.Session, connectors.PaymentsSessionData{
		Amount:        b.Amount,
		Currency:      b.Currency,
		PaymentMethod: b.PaymentMethod,
		Description:   b.Description,
	}, b.attempt())
}

func (h *Handler) tokenize(w http.ResponseWriter, r *http.Request) {
	var b paymentBody
	if !h.decode(w, r, &b) {
		return
	}
	execute(h, w, r, connectors.PaymentMethodToken, connectors.PaymentMethodTokenizationData{
		Amount:        b.Amount,
		Currency:      b.Currency,
		PaymentMethod: b.PaymentMethod,
	}, b.attempt())
}

type mandateBody struct {
	PaymentID     string                       `json:"payment_id" validate:"omitempty,max=64"`
	Currency      connectors.Currency          `json:"currency" validate:"required"`
	PaymentMethod connectors.PaymentMethodData `json:"payment_method"`
}

func (h *Handler) setupMandate(w http.ResponseWriter, r *http.Request) {
	var b mandateBody
	if !h.decode(w, r, &b) {
		return
	}
	execute(h, w, r, connectors.SetupMandate, connectors.SetupMandateData{
		Currency:      b.Currency,
		PaymentMethod: b.PaymentMethod,
	}, attempt{
		PaymentID: b.PaymentID,
		Admission: policy.Input{Currency: string(b.Currency), PaymentMethod: string(b.PaymentMethod.Type)},
	})
}

type captureBody struct {
	PaymentID              string              `json:"payment_id" validate:"omitempty,max=64"`
	AmountToCapture        int64               `json:"amount_to_capture" validate:"gt=0"`
	Currency               connectors.Currency `json:"currency" validate:"required"`
	ConnectorTransactionID string              `json:"connector_transaction_id" validate:"required"`
}

func (h *Handler) capture(w http.ResponseWriter, r *http.Request) {
	var b captureBody
	if !h.decode(w, r, &b) {
		return
	}
	execute(h, w, r, connectors.Capture, connectors.PaymentsCaptureData{
		AmountToCapture:        b.AmountToCapture,
		Currency:               b.Currency,
		ConnectorTransactionID: b.ConnectorTransactionID,
	}, attempt{
		PaymentID: b.PaymentID,
		Admission: policy.Input{Amount: b.AmountToCapture, Currency: string(b.Currency)},
	})
}

type voidBody struct {
	PaymentID              string  `json:"payment_id" validate:"omitempty,max=64"`
	ConnectorTransactionID string  `json:"connector_transaction_id" validate:"required"`
	CancellationReason     *string `json:"cancellation_reason" validate:"omitempty,max=255"`
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	var b voidBody
	if !h.decode(w, r, &b) {
		return
	}
	execute(h, w, r, connectors.Void, connectors.PaymentsCancelData{
		ConnectorTransactionID: b.ConnectorTransactionID,
		CancellationReason:     b.CancellationReason,
	}, attempt{PaymentID: b.PaymentID})
}

func (h *Handler) psync(w http.ResponseWriter, r *http.Request) {
	execute(h, w, r, connectors.PSync, connectors.PaymentsSyncData{
		ConnectorTransactionID: chi.URLParam(r, "connector_transaction_id"),
	}, attempt{PaymentID: r.URL.Query().Get("payment_id")})
}

type refundBody struct {
	PaymentID              string              `json:"payment_id" validate:"omitempty,max=64"`
	RefundID               string              `json:"refund_id" validate:"required,max=64"`
	ConnectorTransactionID string              `json:"connector_transaction_id" validate:"required"`
	RefundAmount           int64               `json:"refund_amount" validate:"gt=0"`
	Currency               connectors.Currency `json:"currency" validate:"required"`
	Reason                 *string             `json:"reason" validate:"omitempty,max=255"`
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var b refundBody
	if !h.decode(w, r, &b) {
		return
	}
	execute(h, w, r, connectors.RefundExecute, connectors.RefundsData{
		RefundID:               b.RefundID,
		ConnectorTransactionID: b.ConnectorTransactionID,
		RefundAmount:           b.RefundAmount,
		Currency:               b.Currency,
		Reason:                 b.Reason,
	}, attempt{
		PaymentID: b.PaymentID,
		Admission: policy.Input{Amount: b.RefundAmount, Currency: string(b.Currency)},
	})
}

func (h *Handler) refundSync(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txn := q.Get("connector_transaction_id")
	if txn == "" {
		h.writeMissingQuery(w, "connector_transaction_id")
		return
	}
	data := connectors.RefundsData{
		RefundID:               chi.URLParam(r, "refund_id"),
		ConnectorTransactionID: txn,
	}
	if id := q.Get("connector_refund_id"); id != "" {
		data.ConnectorRefundID = &id
	}
	execute(h, w, r, connectors.RefundSync, data, attempt{PaymentID: q.Get("payment_id")})
}

func (h *Handler) writeMissingQuery(w http.ResponseWriter, name string) {
	problems.Write(w, http.StatusUnprocessableEntity, "validation-failed", "Validation failed", name+" query parameter is required")
}
