package payrabbit

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
)

const codeOK = 200

type authRequest struct {
	DIdentity masking.Secret[string] `json:"didentity"`
}

func newAuthRequest(auth connectors.ConnectorAuthType) (*authRequest, error) {
	if auth.Kind != connectors.HeaderKey {
		return nil, connectors.FailedToObtainAuthType()
	}
	identity, err := json.Marshal(map[string]string{"apikey": auth.APIKey.Expose()})
	if err != nil {
		return nil, connectors.RequestEncodingFailed(err)
	}
	return &authRequest{DIdentity: masking.New(base64.StdEncoding.EncodeToString(identity))}, nil
}

func (r authRequest) EncodeJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"didentity": r.DIdentity.Expose()})
}

type authResponse struct {
	Code      int                    `json:"code"`
	JWTAccess masking.Secret[string] `json:"jwt_access"`
	Message   string                 `json:"message"`
}

// accessToken uses the JWT exp claim when the token carries one.
func (r authResponse) accessToken(now time.Time) connectors.AccessToken {
	expires := now.Add(tokenLifetime)
	if tok, err := jwt.ParseInsecure([]byte(r.JWTAccess.Expose())); err == nil && !tok.Expiration().IsZero() {
		expires = tok.Expiration()
	}
	return connectors.AccessToken{Token: r.JWTAccess, ExpiresAt: expires}
}

func (r authResponse) errorResponse(status int) connectors.ErrorResponse {
	msg := r.Message
	if msg == "" {
		msg = connectors.NoErrorMessage
	}
	return connectors.ErrorResponse{StatusCode: status, Code: strconv.Itoa(r.Code), Message: msg}
}

type fingerprint struct {
	Lat            string `json:"lat"`
	Lon            string `json:"lon"`
	Device         string `json:"device"`
	IP             string `json:"ip"`
	OS             string `json:"os"`
	BrowserName    string `json:"browser_name"`
	BrowserVersion string `json:"browser_version"`
	IsBot          string `json:"is_bot"`
	UserAgent      string `json:"user_agent"`
	ScreenW        int    `json:"screen-w"`
	ScreenH        int    `json:"screen-h"`
	Timezone       string `json:"timezone"`
	Language       string `json:"language"`
	UserIP         string `json:"user_ip"`
}

func newFingerprint(b connectors.BrowserInformation) fingerprint {
	fp := fingerprint{IP: "0.0.0.0", UserIP: "0.0.0.0", Timezone: "0"}
	if b.IPAddress != nil {
		fp.IP, fp.UserIP = *b.IPAddress, *b.IPAddress
	}
	if b.UserAgent != nil {
		fp.UserAgent = *b.UserAgent
	}
	if b.Language != nil {
		fp.Language = *b.Language
	}
	if b.TimeZone != nil {
		fp.Timezone = strconv.Itoa(*b.TimeZone)
	}
	if b.ScreenWidth != nil {
		fp.ScreenW = *b.ScreenWidth
	}
	if b.ScreenHeight != nil {
		fp.ScreenH = *b.ScreenHeight
	}
	return fp
}

type paymentIntentRequest struct {
	Amount      json.Number       `json:"amount"`
	CostBuyer   uint8             `json:"cost_buyer"`
	VatID       uint8             `json:"vat_id"`
	Fingerprint *fingerprint      `json:"fingerprint"`
	Source      uint64            `json:"source"`
	Description string            `json:"description"`
	References  map[string]string `json:"references"`
}

func newPaymentIntentRequest(p *Payrabbit, req connectors.PaymentsSessionData) (*paymentIntentRequest, error) {
	if req.PaymentMethod.Type != connectors.PaymentMethodCard {
		return nil, connectors.NotImplemented("Payment methods")
	}
	out := &paymentIntentRequest{
		Amount:      connectors.ConvertAmount(p, req.Amount, req.Currency),
		CostBuyer:   1,
		VatID:       1,
		Fingerprint: &fingerprint{},
		Source:      4,
		References:  map[string]string{},
	}
	if req.Description != nil {
		out.Description = *req.Description
	}
	return out, nil
}

type paymentIntentData struct {
	AmountDue    float64 `json:"amount_due"`
	TicketNumber string  `json:"ticket_number"`
	URLCheckout  string  `json:"url_checkout"`
	PKey         string  `json:"pkey"`
}

type paymentIntentResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    paymentIntentData `json:"data"`
}

var intentStatuses = connectors.StatusMap[int, connectors.AttemptStatus]{
	Known: map[int]connectors.AttemptStatus{
		200: connectors.StatusAuthorized,
		205: connectors.StatusFailure,
		400: connectors.StatusFailure,
	},
	Fallback: connectors.StatusPending,
}

type paymentsRequest struct {
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone"`
	Name         masking.Secret[string] `json:"name"`
	Token        string                 `json:"token"`
	B64          string                 `json:"b64"`
	B64H         string                 `json:"b64h"`
	DNIType      string                 `json:"dni_type"`
	DNI          string                 `json:"dni"`
	Installments uint8                  `json:"installments"`
	AccountType  string                 `json:"account_type"`
	Fingerprint  fingerprint            `json:"fingerprint"`
}

func newPaymentsRequest(random io.Reader, data *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData]) (*paymentsRequest, error) {
	req := data.Request
	if req.BrowserInfo == nil {
		return nil, connectors.MissingRequiredField("browser_info")
	}
	if len(data.ConnectorMetadata) == 0 {
		return nil, connectors.ProcessingStepFailed("Payment Not Initialized")
	}
	var intent paymentIntentResponse
	if err := json.Unmarshal(data.ConnectorMetadata, &intent); err != nil {
		return nil, connectors.MissingRequiredField("connector_meta_data")
	}
	if req.PaymentMethod.Type != connectors.PaymentMethodCard || req.PaymentMethod.Card == nil {
		return nil, connectors.NotImplemented("Payment methods")
	}
	card := req.PaymentMethod.Card
	if req.Email == nil {
		return nil, connectors.MissingRequiredField("email")
	}
	if card.HolderName == nil {
		return nil, connectors.MissingRequiredField("card_holder_name")
	}
	if card.Issuer == nil {
		return nil, connectors.MissingRequiredField("card issuer")
	}

	out := &paymentsRequest{
		Email:        *req.Email,
		Name:         *card.HolderName,
		Token:        intent.Data.TicketNumber,
		Installments: 1,
		AccountType:  "C",
		Fingerprint:  newFingerprint(*req.BrowserInfo),
	}
	if data.Shipping != nil && data.Shipping.Phone != nil {
		ph := data.Shipping.Phone
		if ph.CountryCode != nil {
			out.Phone = *ph.CountryCode
		}
		if ph.Number != nil {
			out.Phone += ph.Number.Expose()
		}
	}

	key, err := parsePublicKey(intent.Data.PKey)
	if err != nil {
		return nil, connectors.RequestEncodingFailed(err)
	}
	plain := fmt.Sprintf("%s|%s|%s/%s", *card.Issuer, card.Number.Expose(), card.ExpMonth.Expose(), card.ExpYear.Expose())
	full := plain + "|" + card.CVC.Expose()
	if out.B64H, err = encrypt(random, key, plain); err != nil {
		return nil, connectors.RequestEncodingFailed(err)
	}
	if out.B64, err = encrypt(random, key, full); err != nil {
		return nil, connectors.RequestEncodingFailed(err)
	}
	return out, nil
}

// EncodeJSON is the wire form, with the holder name in the clear.
func (r paymentsRequest) EncodeJSON() ([]byte, error) {
	type wire paymentsRequest
	return json.Marshal(struct {
		wire
		Name string `json:"name"`
	}{wire(r), r.Name.Expose()})
}

// parsePublicKey decodes the intent's pkey: a base64 encoded PEM holding a
// PKIX RSA public key.
func parsePublicKey(pkey string) (*rsa.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(pkey)
	if err != nil {
		return nil, fmt.Errorf("decode pkey: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("pkey is not PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkey: %w", err)
	}
	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("pkey is %T, want RSA", pub)
	}
	return key, nil
}

func encrypt(random io.Reader, key *rsa.PublicKey, msg string) (string, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), random, key, []byte(msg), nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

type paymentsResponse struct {
	Code         int     `json:"code"`
	Message      string  `json:"message"`
	TicketNumber *string `json:"ticket_number"`
}

var paymentStatuses = connectors.StatusMap[int, connectors.AttemptStatus]{
	Known: map[int]connectors.AttemptStatus{
		200: connectors.StatusCharged,
		205: connectors.StatusFailure,
		400: connectors.StatusFailure,
		404: connectors.StatusFailure,
	},
	Fallback: connectors.StatusPending,
}

func applyPaymentsResponse[Req any](data *connectors.RouterData[Req, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[Req, connectors.PaymentsResponseData], error) {
	body, err := connectors.DecodeJSON[paymentsResponse](res)
	if err != nil {
		return nil, err
	}
	data.Status = paymentStatuses.Map(body.Code)
	out := connectors.PaymentsResponseData{Kind: connectors.TransactionResponse, ConnectorMetadata: res.Body}
	if body.TicketNumber != nil {
		out.ResourceID = *body.TicketNumber
	}
	data.Response = connectors.Success(out)
	return data, nil
}
