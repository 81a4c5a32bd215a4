// Package payrabbit integrates the PayRabbit gateway: a JWT obtained from the
// merchant API key, a payment intent that returns the ticket and an RSA
// public key, then the card payment encrypted with that key.
package payrabbit

import (
	"crypto/rand"
	"io"
	"net/url"
	"strings"
	"time"

	"payrouter/pkg/connectors"
)

const ID = "payrabbit"

const (
	authPath     = "v1/auth"
	intentPath   = "v1/payments/intent"
	payPath      = "v1/payments/pay"
	paymentsPath = "v1/payments/"
)

// tokenLifetime applies when the issued token carries no exp claim.
const tokenLifetime = 5 * time.Minute

type Payrabbit struct {
	now  func() time.Time
	rand io.Reader
}

var _ connectors.Adapter = (*Payrabbit)(nil)

type Option func(*Payrabbit)

func WithClock(now func() time.Time) Option { return func(p *Payrabbit) { p.now = now } }

// WithRand sets the entropy source for card encryption.
func WithRand(r io.Reader) Option { return func(p *Payrabbit) { p.rand = r } }

func New(opts ...Option) *Payrabbit {
	p := &Payrabbit{now: time.Now, rand: rand.Reader}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (*Payrabbit) ID() string                            { return ID }
func (*Payrabbit) CurrencyUnit() connectors.CurrencyUnit { return connectors.CurrencyUnitMinor }
func (*Payrabbit) ContentType() connectors.ContentType   { return connectors.ContentTypeJSON }

func (*Payrabbit) BaseURL(ep connectors.Endpoints) string { return ep.BaseURL }

func (*Payrabbit) AuthHeader(connectors.ConnectorAuthType) ([]connectors.Header, error) {
	return nil, nil
}

var errorShape = connectors.ErrorShape{Code: "code", Message: "message", Reason: "reason"}

func (*Payrabbit) BuildErrorResponse(res *connectors.Response) (*connectors.ErrorResponse, error) {
	return errorShape.Normalize(res)
}

func (p *Payrabbit) Register(reg *connectors.Registry) {
	connectors.Bind(reg, ID, connectors.AccessTokenAuth, tokenAuth{base[connectors.AccessTokenRequestData, connectors.AccessToken]{p: p}})
	connectors.Bind(reg, ID, connectors.Session, session{base[connectors.PaymentsSessionData, connectors.PaymentsResponseData]{p: p}})
	connectors.Bind(reg, ID, connectors.Authorize, authorize{base[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData]{p: p}})
	connectors.Bind(reg, ID, connectors.PSync, psync{base[connectors.PaymentsSyncData, connectors.PaymentsResponseData]{p: p}})
	reg.SetWebhooks(ID, webhooks{})
}

func (p *Payrabbit) url(ep connectors.Endpoints, path string) (string, error) {
	u := p.BaseURL(ep)
	if u == "" {
		return "", connectors.FailedToObtainIntegrationURL(ID)
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u + path, nil
}

type base[Req, Resp any] struct {
	connectors.Unsupported[Req, Resp]
	p *Payrabbit
}

func (b base[Req, Resp]) Headers(data *connectors.RouterData[Req, Resp], _ connectors.Endpoints) ([]connectors.Header, error) {
	return connectors.AdapterHeaders(b.p, data)
}

func (b base[Req, Resp]) ErrorResponse(res *connectors.Response) (*connectors.ErrorResponse, error) {
	return b.p.BuildErrorResponse(res)
}

// RequiresAccessToken is true for every flow but the token exchange itself,
// which the pipeline never pretasks.
func (base[Req, Resp]) RequiresAccessToken() bool { return true }

type tokenAuth struct {
	base[connectors.AccessTokenRequestData, connectors.AccessToken]
}

func (t tokenAuth) Headers(*connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], connectors.Endpoints) ([]connectors.Header, error) {
	return connectors.BuildHeaders(t.p.ContentType(), nil, nil), nil
}

func (t tokenAuth) URL(_ *connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], ep connectors.Endpoints) (string, error) {
	return t.p.url(ep, authPath)
}

func (tokenAuth) RequestBody(data *connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], _ connectors.Endpoints) (any, error) {
	return newAuthRequest(data.AuthType)
}

func (t tokenAuth) HandleResponse(data *connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], res *connectors.Response) (*connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], error) {
	body, err := connectors.DecodeJSON[authResponse](res)
	if err != nil {
		return nil, err
	}
	if body.Code != codeOK {
		data.Response = connectors.Failure[connectors.AccessToken](body.errorResponse(res.StatusCode))
		return data, nil
	}
	data.Response = connectors.Success(body.accessToken(t.p.now()))
	return data, nil
}

type session struct {
	base[connectors.PaymentsSessionData, connectors.PaymentsResponseData]
}

func (s session) URL(_ *connectors.RouterData[connectors.PaymentsSessionData, connectors.PaymentsResponseData], ep connectors.Endpoints) (string, error) {
	return s.p.url(ep, intentPath)
}

func (s session) RequestBody(data *connectors.RouterData[connectors.PaymentsSessionData, connectors.PaymentsResponseData], _ connectors.Endpoints) (any, error) {
	return newPaymentIntentRequest(s.p, data.Request)
}

func (session) HandleResponse(data *connectors.RouterData[connectors.PaymentsSessionData, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.PaymentsSessionData, connectors.PaymentsResponseData], error) {
	body, err := connectors.DecodeJSON[paymentIntentResponse](res)
	if err != nil {
		return nil, err
	}
	data.Status = intentStatuses.Map(body.Code)
	checkout := body.Data.URLCheckout
	data.Response = connectors.Success(connectors.PaymentsResponseData{
		Kind:              connectors.PreProcessingResponse,
		ResourceID:        body.Data.TicketNumber,
		ConnectorMetadata: res.Body,
		RedirectURL:       &checkout,
	})
	return data, nil
}

type authorize struct {
	base[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData]
}

func (a authorize) URL(_ *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], ep connectors.Endpoints) (string, error) {
	return a.p.url(ep, payPath)
}

func (a authorize) RequestBody(data *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], _ connectors.Endpoints) (any, error) {
	return newPaymentsRequest(a.p.rand, data)
}

func (authorize) HandleResponse(data *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], error) {
	return applyPaymentsResponse(data, res)
}

type psync struct {
	base[connectors.PaymentsSyncData, connectors.PaymentsResponseData]
}

func (s psync) URL(data *connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData], ep connectors.Endpoints) (string, error) {
	if data.Request.ConnectorTransactionID == "" {
		return "", connectors.MissingRequiredField("connector_transaction_id")
	}
	return s.p.url(ep, paymentsPath+url.PathEscape(data.Request.ConnectorTransactionID))
}

func (psync) HandleResponse(data *connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData], error) {
	return applyPaymentsResponse(data, res)
}
