package connectors

import (
	"bytes"
	"encoding/json"
	"strconv"

	jmes "github.com/jmespath/go-jmespath"
)

// ErrorShape declares where a connector keeps the fields of its error body,
// as JMESPath expressions over the decoded JSON. Empty expressions are
// skipped. Missing fields fall back to defaults instead of failing.
type ErrorShape struct {
	Code          string
	Message       string
	Reason        string
	TransactionID string
	// CodeFromStatus uses the HTTP status as the code when Code finds nothing.
	CodeFromStatus bool
}

// Normalize maps a raw error response to an ErrorResponse. Only a body that
// is not JSON fails.
func (s ErrorShape) Normalize(res *Response) (*ErrorResponse, error) {
	out := &ErrorResponse{StatusCode: res.StatusCode, Code: NoErrorCode, Message: NoErrorMessage}
	var doc any
	if body := bytes.TrimSpace(res.Body); len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, ResponseDeserializationFailed(err)
		}
	}
	if v, ok := search(s.Code, doc); ok {
		out.Code = v
	} else if s.CodeFromStatus {
		out.Code = strconv.Itoa(res.StatusCode)
	}
	if v, ok := search(s.Message, doc); ok {
		out.Message = v
	}
	if v, ok := search(s.Reason, doc); ok {
		out.Reason = &v
	}
	if v, ok := search(s.TransactionID, doc); ok {
		out.ConnectorTransactionID = &v
	}
	return out, nil
}

func search(expr string, doc any) (string, bool) {
	if expr == "" || doc == nil {
		return "", false
	}
	v, err := jmes.Search(expr, doc)
	if err != nil || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
