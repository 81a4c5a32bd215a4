package connectors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"payrouter/pkg/masking"
)

// ContentType is the single body encoding a flow declares.
type ContentType string

const (
	ContentTypeJSON ContentType = "application/json"
	ContentTypeForm ContentType = "application/x-www-form-urlencoded"
)

const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderAccept        = "Accept"
)

type Header struct {
	Name  string
	Value masking.Maskable
}

// FormEncoder is implemented by payloads of form-encoded flows.
type FormEncoder interface {
	EncodeForm() (url.Values, error)
}

// JSONEncoder is implemented by JSON payloads that carry secrets. Secrets
// marshal masked, so such payloads expose them in their own wire encoding.
type JSONEncoder interface {
	EncodeJSON() ([]byte, error)
}

// RequestBody is an encoded payload. The bytes stay masked until written to
// the wire.
type RequestBody struct {
	ContentType ContentType
	Bytes       masking.Secret[[]byte]
}

// EncodeBody encodes payload with exactly the declared content type.
func EncodeBody(ct ContentType, payload any) (*RequestBody, error) {
	switch ct {
	case ContentTypeJSON:
		var b []byte
		var err error
		if je, ok := payload.(JSONEncoder); ok {
			b, err = je.EncodeJSON()
		} else {
			b, err = json.Marshal(payload)
		}
		if err != nil {
			return nil, RequestEncodingFailed(err)
		}
		return &RequestBody{ContentType: ct, Bytes: masking.New(b)}, nil
	case ContentTypeForm:
		fe, ok := payload.(FormEncoder)
		if !ok {
			return nil, RequestEncodingFailed(fmt.Errorf("%T cannot be form encoded", payload))
		}
		vals, err := fe.EncodeForm()
		if err != nil {
			return nil, RequestEncodingFailed(err)
		}
		return &RequestBody{ContentType: ct, Bytes: masking.New([]byte(vals.Encode()))}, nil
	default:
		return nil, RequestEncodingFailed(fmt.Errorf("unsupported content type %q", ct))
	}
}

// Request is the fully built outbound call.
type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    *RequestBody
}

// MaskedHeaders renders headers for logging.
func (r *Request) MaskedHeaders() map[string]string {
	out := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		out[h.Name] = h.Value.String()
	}
	return out
}

// Header returns the first header value with the given name.
func (r *Request) Header(name string) (masking.Maskable, bool) {
	for _, h := range r.Headers {
		if http.CanonicalHeaderKey(h.Name) == http.CanonicalHeaderKey(name) {
			return h.Value, true
		}
	}
	return masking.Maskable{}, false
}

// Response is the raw transport result handed to response handlers.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (r *Response) Success() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// DecodeJSON parses the response body into T.
func DecodeJSON[T any](res *Response) (T, error) {
	var v T
	if err := json.Unmarshal(res.Body, &v); err != nil {
		return v, ResponseDeserializationFailed(err)
	}
	return v, nil
}
