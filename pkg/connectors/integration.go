package connectors

import (
	"payrouter/pkg/masking"
)

// Endpoints is the per-connector URL configuration.
type Endpoints struct {
	BaseURL          string `yaml:"base_url"`
	SecondaryBaseURL string `yaml:"secondary_base_url,omitempty"`
}

// Adapter is the connector-wide part of an integration: identity, default
// encoding, authentication and error shape.
type Adapter interface {
	ID() string
	CurrencyUnit() CurrencyUnit
	ContentType() ContentType
	BaseURL(ep Endpoints) string
	// AuthHeader returns credential headers sent on every flow call. Adapters
	// that authenticate only through a bearer token return none.
	AuthHeader(auth ConnectorAuthType) ([]Header, error)
	BuildErrorResponse(res *Response) (*ErrorResponse, error)
	Register(reg *Registry)
}

// Integration drives one flow for one connector.
type Integration[Req, Resp any] interface {
	ContentType() ContentType
	Headers(data *RouterData[Req, Resp], ep Endpoints) ([]Header, error)
	URL(data *RouterData[Req, Resp], ep Endpoints) (string, error)
	// RequestBody returns the payload to encode, or nil for no body.
	RequestBody(data *RouterData[Req, Resp], ep Endpoints) (any, error)
	HandleResponse(data *RouterData[Req, Resp], res *Response) (*RouterData[Req, Resp], error)
	ErrorResponse(res *Response) (*ErrorResponse, error)
}

// TokenDependent is implemented by integrations that need a bearer token
// obtained through AccessTokenAuth before their request is built.
type TokenDependent interface {
	RequiresAccessToken() bool
}

// Unsupported is the default for every step. Partial integrations embed it
// and override what they support.
type Unsupported[Req, Resp any] struct{}

func (Unsupported[Req, Resp]) ContentType() ContentType { return ContentTypeJSON }

func (Unsupported[Req, Resp]) Headers(*RouterData[Req, Resp], Endpoints) ([]Header, error) {
	return nil, nil
}

func (Unsupported[Req, Resp]) URL(*RouterData[Req, Resp], Endpoints) (string, error) {
	return "", NotImplemented("get_url method")
}

func (Unsupported[Req, Resp]) RequestBody(*RouterData[Req, Resp], Endpoints) (any, error) {
	return nil, NotImplemented("get_request_body method")
}

func (Unsupported[Req, Resp]) HandleResponse(*RouterData[Req, Resp], *Response) (*RouterData[Req, Resp], error) {
	return nil, NotImplemented("handle_response method")
}

func (Unsupported[Req, Resp]) ErrorResponse(*Response) (*ErrorResponse, error) {
	return nil, NotImplemented("get_error_response method")
}

// BuildHeaders is the shared header routine: Content-Type for the flow's
// encoding, then a bearer Authorization taken from the access token, or the
// session token when there is no access token. With neither, no
// Authorization header is sent.
func BuildHeaders(ct ContentType, access *AccessToken, session *string) []Header {
	headers := []Header{{Name: HeaderContentType, Value: masking.Normal(string(ct))}}
	switch {
	case access != nil:
		headers = append(headers, Header{Name: HeaderAuthorization, Value: masking.Masked("Bearer " + access.Token.Expose())})
	case session != nil:
		headers = append(headers, Header{Name: HeaderAuthorization, Value: masking.Masked("Bearer " + *session)})
	}
	return headers
}

// BuildEnvelopeHeaders applies BuildHeaders to an envelope.
func BuildEnvelopeHeaders[Req, Resp any](ct ContentType, data *RouterData[Req, Resp]) []Header {
	return BuildHeaders(ct, data.AccessToken, data.SessionToken)
}

// AdapterHeaders is the header set of a regular flow call: the shared
// headers followed by the adapter's own credential headers.
func AdapterHeaders[Req, Resp any](a Adapter, data *RouterData[Req, Resp]) ([]Header, error) {
	headers := BuildEnvelopeHeaders(a.ContentType(), data)
	auth, err := a.AuthHeader(data.AuthType)
	if err != nil {
		return nil, err
	}
	return append(headers, auth...), nil
}
