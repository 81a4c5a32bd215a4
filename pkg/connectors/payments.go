package connectors

import (
	"encoding/json"

	"payrouter/pkg/masking"
)

type PaymentMethodType string

const (
	PaymentMethodCard         PaymentMethodType = "card"
	PaymentMethodWallet       PaymentMethodType = "wallet"
	PaymentMethodBankTransfer PaymentMethodType = "bank_transfer"
)

// PaymentMethodData is a tagged variant; only the field matching Type is set.
type PaymentMethodData struct {
	Type PaymentMethodType `json:"type" validate:"required,oneof=card wallet bank_transfer"`
	Card *Card             `json:"card,omitempty" validate:"required_if=Type card,omitempty"`
}

type Card struct {
	Number     masking.Secret[string]  `json:"number"`
	ExpMonth   masking.Secret[string]  `json:"exp_month"`
	ExpYear    masking.Secret[string]  `json:"exp_year"`
	CVC        masking.Secret[string]  `json:"cvc"`
	HolderName *masking.Secret[string] `json:"holder_name,omitempty"`
	Issuer     *string                 `json:"issuer,omitempty"`
}

type BrowserInformation struct {
	IPAddress    *string `json:"ip_address,omitempty"`
	UserAgent    *string `json:"user_agent,omitempty"`
	Language     *string `json:"language,omitempty"`
	ColorDepth   *int    `json:"color_depth,omitempty"`
	TimeZone     *int    `json:"time_zone,omitempty"`
	JavaEnabled  *bool   `json:"java_enabled,omitempty"`
	ScreenWidth  *int    `json:"screen_width,omitempty"`
	ScreenHeight *int    `json:"screen_height,omitempty"`
}

type Address struct {
	Phone *Phone `json:"phone,omitempty"`
}

type Phone struct {
	CountryCode *string                 `json:"country_code,omitempty"`
	Number      *masking.Secret[string] `json:"number,omitempty"`
}

type PaymentsAuthorizeData struct {
	Amount        int64               `json:"amount"`
	Currency      Currency            `json:"currency"`
	PaymentMethod PaymentMethodData   `json:"payment_method"`
	Email         *string             `json:"email,omitempty"`
	BrowserInfo   *BrowserInformation `json:"browser_info,omitempty"`
	Description   *string             `json:"description,omitempty"`
}

type PaymentsSessionData struct {
	Amount        int64             `json:"amount"`
	Currency      Currency          `json:"currency"`
	PaymentMethod PaymentMethodData `json:"payment_method"`
	Description   *string           `json:"description,omitempty"`
}

type PaymentsSyncData struct {
	ConnectorTransactionID string `json:"connector_transaction_id"`
}

type PaymentsCaptureData struct {
	AmountToCapture        int64    `json:"amount_to_capture"`
	Currency               Currency `json:"currency"`
	ConnectorTransactionID string   `json:"connector_transaction_id"`
}

type PaymentsCancelData struct {
	ConnectorTransactionID string  `json:"connector_transaction_id"`
	CancellationReason     *string `json:"cancellation_reason,omitempty"`
}

type RefundsData struct {
	RefundID               string   `json:"refund_id"`
	ConnectorTransactionID string   `json:"connector_transaction_id"`
	RefundAmount           int64    `json:"refund_amount"`
	Currency               Currency `json:"currency"`
	ConnectorRefundID      *string  `json:"connector_refund_id,omitempty"`
	Reason                 *string  `json:"reason,omitempty"`
}

type SetupMandateData struct {
	Currency      Currency          `json:"currency"`
	PaymentMethod PaymentMethodData `json:"payment_method"`
}

type PaymentMethodTokenizationData struct {
	Amount        int64             `json:"amount"`
	Currency      Currency          `json:"currency"`
	PaymentMethod PaymentMethodData `json:"payment_method"`
}

type ResponseKind string

const (
	TransactionResponse   ResponseKind = "transaction"
	PreProcessingResponse ResponseKind = "pre_processing"
	TokenizationResponse  ResponseKind = "token"
)

type PaymentsResponseData struct {
	Kind                         ResponseKind    `json:"kind"`
	ResourceID                   string          `json:"resource_id,omitempty"`
	ConnectorMetadata            json.RawMessage `json:"connector_metadata,omitempty"`
	ConnectorResponseReferenceID *string         `json:"connector_response_reference_id,omitempty"`
	RedirectURL                  *string         `json:"redirect_url,omitempty"`
	Token                        *string         `json:"token,omitempty"`
}

type RefundsResponseData struct {
	ConnectorRefundID string       `json:"connector_refund_id"`
	RefundStatus      RefundStatus `json:"refund_status"`
}
