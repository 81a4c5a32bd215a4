// Package creditbanco integrates the Creditbanco payment gateway. Payments
// require an OAuth password-grant token obtained from the gateway's identity
// realm before the card request is sent.
package creditbanco

import (
	"strings"
	"time"

	"payrouter/pkg/connectors"
)

const ID = "creditbanco"

const (
	tokenPath         = "auth/realms/pasarelas/protocol/openid-connect/token"
	purchaseOrderPath = "credibanco/api/pasarelas/v1/purchase-order"
)

type Creditbanco struct {
	now func() time.Time
}

var _ connectors.Adapter = (*Creditbanco)(nil)

type Option func(*Creditbanco)

// WithClock overrides the clock used for token expiry.
func WithClock(now func() time.Time) Option { return func(c *Creditbanco) { c.now = now } }

func New(opts ...Option) *Creditbanco {
	c := &Creditbanco{now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (*Creditbanco) ID() string                            { return ID }
func (*Creditbanco) CurrencyUnit() connectors.CurrencyUnit { return connectors.CurrencyUnitMinor }
func (*Creditbanco) ContentType() connectors.ContentType   { return connectors.ContentTypeJSON }

func (*Creditbanco) BaseURL(ep connectors.Endpoints) string { return ep.BaseURL }

// AuthHeader is empty: every authenticated call carries the OAuth bearer.
func (*Creditbanco) AuthHeader(connectors.ConnectorAuthType) ([]connectors.Header, error) {
	return nil, nil
}

var errorShape = connectors.ErrorShape{
	Message:        "message",
	Reason:         "reason || error",
	CodeFromStatus: true,
}

func (*Creditbanco) BuildErrorResponse(res *connectors.Response) (*connectors.ErrorResponse, error) {
	return errorShape.Normalize(res)
}

func (c *Creditbanco) Register(reg *connectors.Registry) {
	connectors.Bind(reg, ID, connectors.AccessTokenAuth, tokenAuth{base[connectors.AccessTokenRequestData, connectors.AccessToken]{c: c}})
	connectors.Bind(reg, ID, connectors.Authorize, authorize{base[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData]{c: c}})
	connectors.Bind(reg, ID, connectors.PSync, psync{base[connectors.PaymentsSyncData, connectors.PaymentsResponseData]{c: c}})
	connectors.Bind(reg, ID, connectors.Capture, capture{base[connectors.PaymentsCaptureData, connectors.PaymentsResponseData]{c: c}})
	connectors.Bind(reg, ID, connectors.RefundExecute, refundExecute{base[connectors.RefundsData, connectors.RefundsResponseData]{c: c}})
	connectors.Bind(reg, ID, connectors.RefundSync, refundSync{base[connectors.RefundsData, connectors.RefundsResponseData]{c: c}})
}

func (c *Creditbanco) baseURL(ep connectors.Endpoints) (string, error) {
	u := c.BaseURL(ep)
	if u == "" {
		return "", connectors.FailedToObtainIntegrationURL(ID)
	}
	return ensureSlash(u), nil
}

func ensureSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

// base carries the steps every Creditbanco flow shares.
type base[Req, Resp any] struct {
	connectors.Unsupported[Req, Resp]
	c *Creditbanco
}

func (b base[Req, Resp]) Headers(data *connectors.RouterData[Req, Resp], _ connectors.Endpoints) ([]connectors.Header, error) {
	return connectors.AdapterHeaders(b.c, data)
}

func (b base[Req, Resp]) ErrorResponse(res *connectors.Response) (*connectors.ErrorResponse, error) {
	return b.c.BuildErrorResponse(res)
}

type tokenAuth struct {
	base[connectors.AccessTokenRequestData, connectors.AccessToken]
}

func (tokenAuth) ContentType() connectors.ContentType { return connectors.ContentTypeForm }

func (t tokenAuth) Headers(*connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], connectors.Endpoints) ([]connectors.Header, error) {
	return connectors.BuildHeaders(t.ContentType(), nil, nil), nil
}

func (t tokenAuth) URL(_ *connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], ep connectors.Endpoints) (string, error) {
	u, err := t.c.baseURL(ep)
	if err != nil {
		return "", err
	}
	return u + tokenPath, nil
}

func (tokenAuth) RequestBody(data *connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], _ connectors.Endpoints) (any, error) {
	return newAuthRequest(data.Request)
}

func (t tokenAuth) HandleResponse(data *connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], res *connectors.Response) (*connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken], error) {
	body, err := connectors.DecodeJSON[authResponse](res)
	if err != nil {
		return nil, err
	}
	data.Response = connectors.Success(body.accessToken(t.c.now()))
	return data, nil
}

type authorize struct {
	base[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData]
}

func (authorize) RequiresAccessToken() bool { return true }

func (a authorize) URL(_ *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], ep connectors.Endpoints) (string, error) {
	if ep.SecondaryBaseURL == "" {
		return "", connectors.FailedToObtainIntegrationURL(ID)
	}
	return ensureSlash(ep.SecondaryBaseURL) + purchaseOrderPath, nil
}

func (a authorize) RequestBody(data *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], _ connectors.Endpoints) (any, error) {
	return newPaymentsRequest(a.c, data)
}

func (authorize) HandleResponse(data *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData], error) {
	return applyPaymentsResponse(data, res)
}

type psync struct {
	base[connectors.PaymentsSyncData, connectors.PaymentsResponseData]
}

func (psync) HandleResponse(data *connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData], error) {
	return applyPaymentsResponse(data, res)
}

type capture struct {
	base[connectors.PaymentsCaptureData, connectors.PaymentsResponseData]
}

func (capture) HandleResponse(data *connectors.RouterData[connectors.PaymentsCaptureData, connectors.PaymentsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.PaymentsCaptureData, connectors.PaymentsResponseData], error) {
	return applyPaymentsResponse(data, res)
}

// refundExecute has no gateway endpoint yet: URL stays NotImplemented and
// only responses delivered out of band are parsed.
type refundExecute struct {
	base[connectors.RefundsData, connectors.RefundsResponseData]
}

func (refundExecute) HandleResponse(data *connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData], error) {
	return applyRefundResponse(data, res)
}

type refundSync struct {
	base[connectors.RefundsData, connectors.RefundsResponseData]
}

func (refundSync) HandleResponse(data *connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData], res *connectors.Response) (*connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData], error) {
	return applyRefundResponse(data, res)
}
