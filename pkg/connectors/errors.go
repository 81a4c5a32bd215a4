package connectors

import "errors"

var (
	ErrNotImplemented                = errors.New("not implemented")
	ErrRequestEncodingFailed         = errors.New("request encoding failed")
	ErrResponseDeserializationFailed = errors.New("response deserialization failed")
	ErrMissingRequiredField          = errors.New("missing required field")
	ErrFailedToObtainAuthType        = errors.New("failed to obtain auth type")
	ErrFailedToObtainIntegrationURL  = errors.New("failed to obtain integration url")
	ErrProcessingStepFailed          = errors.New("processing step failed")
	ErrInvalidConnectorName          = errors.New("invalid connector name")
	ErrWebhooksNotImplemented        = errors.New("webhooks not implemented")
	ErrTransport                     = errors.New("transport error")
)

// ConnectorError is a failure raised while driving a connector flow. Kind is
// one of the Err* sentinels above, so errors.Is matches on kind.
type ConnectorError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *ConnectorError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectorError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code is the stable identifier stored in ErrorResponse.Code.
func (e *ConnectorError) Code() string {
	switch e.Kind {
	case ErrNotImplemented:
		return "NOT_IMPLEMENTED"
	case ErrRequestEncodingFailed:
		return "REQUEST_ENCODING_FAILED"
	case ErrResponseDeserializationFailed:
		return "RESPONSE_DESERIALIZATION_FAILED"
	case ErrMissingRequiredField:
		return "MISSING_REQUIRED_FIELD"
	case ErrFailedToObtainAuthType:
		return "FAILED_TO_OBTAIN_AUTH_TYPE"
	case ErrFailedToObtainIntegrationURL:
		return "FAILED_TO_OBTAIN_INTEGRATION_URL"
	case ErrProcessingStepFailed:
		return "PROCESSING_STEP_FAILED"
	case ErrInvalidConnectorName:
		return "INVALID_CONNECTOR_NAME"
	case ErrWebhooksNotImplemented:
		return "WEBHOOKS_NOT_IMPLEMENTED"
	case ErrTransport:
		return "TRANSPORT_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

func NotImplemented(op string) error {
	return &ConnectorError{Kind: ErrNotImplemented, Detail: op}
}

func RequestEncodingFailed(err error) error {
	return &ConnectorError{Kind: ErrRequestEncodingFailed, Err: err}
}

func ResponseDeserializationFailed(err error) error {
	return &ConnectorError{Kind: ErrResponseDeserializationFailed, Err: err}
}

func MissingRequiredField(name string) error {
	return &ConnectorError{Kind: ErrMissingRequiredField, Detail: name}
}

func FailedToObtainAuthType() error {
	return &ConnectorError{Kind: ErrFailedToObtainAuthType}
}

func FailedToObtainIntegrationURL(connector string) error {
	return &ConnectorError{Kind: ErrFailedToObtainIntegrationURL, Detail: connector}
}

func ProcessingStepFailed(reason string) error {
	return &ConnectorError{Kind: ErrProcessingStepFailed, Detail: reason}
}

func InvalidConnectorName(name string) error {
	return &ConnectorError{Kind: ErrInvalidConnectorName, Detail: name}
}

func WebhooksNotImplemented() error {
	return &ConnectorError{Kind: ErrWebhooksNotImplemented}
}

func TransportError(err error) error {
	return &ConnectorError{Kind: ErrTransport, Err: err}
}

// IsRetryable reports whether a caller may retry the attempt. Only transport
// failures qualify.
func IsRetryable(err error) bool { return errors.Is(err, ErrTransport) }

// AsConnectorError unwraps err to its ConnectorError, if any.
func AsConnectorError(err error) (*ConnectorError, bool) {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Detail returns the operation or field name carried by err, if any.
func Detail(err error) string {
	if ce, ok := AsConnectorError(err); ok {
		return ce.Detail
	}
	return ""
}

// AsErrorResponse turns a pipeline error into the outcome stored on the
// envelope.
func AsErrorResponse(err error) ErrorResponse {
	code := "INTERNAL_ERROR"
	if ce, ok := AsConnectorError(err); ok {
		code = ce.Code()
	}
	return ErrorResponse{Code: code, Message: err.Error()}
}
