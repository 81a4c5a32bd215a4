package connectors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
)

func TestBuildHeadersPrefersAccessToken(t *testing.T) {
	session := "sess-1"
	tok := &connectors.AccessToken{Token: masking.New("tok123")}

	h := connectors.BuildHeaders(connectors.ContentTypeJSON, tok, &session)
	require.Len(t, h, 2)
	assert.Equal(t, "application/json", h[0].Value.Expose())
	assert.Equal(t, "Bearer tok123", h[1].Value.Expose())
	assert.True(t, h[1].Value.IsMasked())
}

func TestBuildHeadersFallsBackToSession(t *testing.T) {
	session := "sess-1"
	h := connectors.BuildHeaders(connectors.ContentTypeForm, nil, &session)
	require.Len(t, h, 2)
	assert.Equal(t, "application/x-www-form-urlencoded", h[0].Value.Expose())
	assert.Equal(t, "Bearer sess-1", h[1].Value.Expose())
}

func TestBuildHeadersWithoutTokens(t *testing.T) {
	h := connectors.BuildHeaders(connectors.ContentTypeJSON, nil, nil)
	require.Len(t, h, 1)
	assert.Equal(t, connectors.HeaderContentType, h[0].Name)
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("psync via creditbanco: %w", connectors.NotImplemented("get_url method"))

	assert.ErrorIs(t, err, connectors.ErrNotImplemented)
	assert.NotErrorIs(t, err, connectors.ErrTransport)
	assert.Equal(t, "get_url method", connectors.Detail(err))
	assert.False(t, connectors.IsRetryable(err))

	terr := connectors.TransportError(errors.New("connection reset"))
	assert.True(t, connectors.IsRetryable(terr))
	assert.Contains(t, terr.Error(), "connection reset")

	er := connectors.AsErrorResponse(connectors.MissingRequiredField("card_holder_name"))
	assert.Equal(t, "MISSING_REQUIRED_FIELD", er.Code)
	assert.Contains(t, er.Message, "card_holder_name")
}

func TestStatusMapIsTotal(t *testing.T) {
	m := connectors.StatusMap[string, connectors.AttemptStatus]{
		Known:    map[string]connectors.AttemptStatus{"succeeded": connectors.StatusCharged},
		Fallback: connectors.StatusPending,
	}
	assert.Equal(t, connectors.StatusCharged, m.Map("succeeded"))
	assert.Equal(t, connectors.StatusPending, m.Map("brand-new-status"))
	assert.Equal(t, m.Map("x"), m.Map("x"))
}

type formPayload struct{ user string }

func (f formPayload) EncodeForm() (url.Values, error) {
	return url.Values{"username": {f.user}, "grant_type": {"password"}}, nil
}

type cardPayload struct {
	Amount int64                  `json:"amount"`
	Number masking.Secret[string] `json:"number"`
}

func (c cardPayload) EncodeJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"amount": c.Amount, "number": c.Number.Expose()})
}

func TestEncodeBodyUsesWireEncoder(t *testing.T) {
	p := cardPayload{Amount: 1000, Number: masking.New("4111111111111111")}

	body, err := connectors.EncodeBody(connectors.ContentTypeJSON, p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":1000,"number":"4111111111111111"}`, string(body.Bytes.Expose()))

	logged, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(logged), "4111111111111111")
}

func TestAuthTypeEncodeJSON(t *testing.T) {
	auth := connectors.ConnectorAuthType{Kind: connectors.BodyKey, APIKey: masking.New("k-1"), Key1: masking.New("id-1")}

	b, err := auth.EncodeJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth_type":"BodyKey","api_key":"k-1","key1":"id-1"}`, string(b))

	var back connectors.ConnectorAuthType
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "k-1", back.APIKey.Expose())

	masked, err := json.Marshal(auth)
	require.NoError(t, err)
	assert.NotContains(t, string(masked), "k-1")
}

type keyAdapter struct{ stubAdapter }

func (keyAdapter) AuthHeader(auth connectors.ConnectorAuthType) ([]connectors.Header, error) {
	if auth.Kind != connectors.HeaderKey {
		return nil, connectors.FailedToObtainAuthType()
	}
	return []connectors.Header{{Name: "X-Api-Key", Value: masking.Masked(auth.APIKey.Expose())}}, nil
}

func TestAdapterHeaders(t *testing.T) {
	a := keyAdapter{stubAdapter{id: "keyed"}}
	data := &connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData]{
		AuthType: connectors.ConnectorAuthType{Kind: connectors.HeaderKey, APIKey: masking.New("api-1")},
	}

	h, err := connectors.AdapterHeaders(a, data)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, connectors.HeaderContentType, h[0].Name)
	assert.Equal(t, "X-Api-Key", h[1].Name)
	assert.Equal(t, "api-1", h[1].Value.Expose())
	assert.True(t, h[1].Value.IsMasked())

	data.AuthType = connectors.ConnectorAuthType{Kind: connectors.NoKey}
	_, err = connectors.AdapterHeaders(a, data)
	assert.ErrorIs(t, err, connectors.ErrFailedToObtainAuthType)

	h, err = connectors.AdapterHeaders(stubAdapter{id: "plain"}, data)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestEncodeBody(t *testing.T) {
	body, err := connectors.EncodeBody(connectors.ContentTypeForm, formPayload{user: "ana"})
	require.NoError(t, err)
	assert.Equal(t, "grant_type=password&username=ana", string(body.Bytes.Expose()))

	body, err = connectors.EncodeBody(connectors.ContentTypeJSON, map[string]int{"amount": 1000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":1000}`, string(body.Bytes.Expose()))

	// a JSON-only payload is not silently re-encoded for a form flow
	_, err = connectors.EncodeBody(connectors.ContentTypeForm, map[string]int{"amount": 1000})
	assert.ErrorIs(t, err, connectors.ErrRequestEncodingFailed)

	_, err = connectors.EncodeBody(connectors.ContentTypeJSON, func() {})
	assert.ErrorIs(t, err, connectors.ErrRequestEncodingFailed)
}

func TestErrorShapeNormalize(t *testing.T) {
	shape := connectors.ErrorShape{Message: "message", Reason: "error", CodeFromStatus: true}

	res := &connectors.Response{StatusCode: 401, Body: []byte(`{"message":"bad credentials","error":"invalid_grant"}`)}
	first, err := shape.Normalize(res)
	require.NoError(t, err)
	assert.Equal(t, 401, first.StatusCode)
	assert.Equal(t, "401", first.Code)
	assert.Equal(t, "bad credentials", first.Message)
	require.NotNil(t, first.Reason)
	assert.Equal(t, "invalid_grant", *first.Reason)
	assert.Nil(t, first.ConnectorTransactionID)

	second, err := shape.Normalize(res)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestErrorShapeDefaults(t *testing.T) {
	shape := connectors.ErrorShape{Code: "code", Message: "message", Reason: "error"}

	out, err := shape.Normalize(&connectors.Response{StatusCode: 500, Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, connectors.NoErrorCode, out.Code)
	assert.Equal(t, connectors.NoErrorMessage, out.Message)
	assert.Nil(t, out.Reason)

	out, err = shape.Normalize(&connectors.Response{StatusCode: 400, Body: []byte(`{"code":205,"message":"declined"}`)})
	require.NoError(t, err)
	assert.Equal(t, "205", out.Code)

	_, err = shape.Normalize(&connectors.Response{StatusCode: 502, Body: []byte(`<html>bad gateway</html>`)})
	assert.ErrorIs(t, err, connectors.ErrResponseDeserializationFailed)
}

func TestAccessTokenRequestFromAuth(t *testing.T) {
	auth := connectors.ConnectorAuthType{
		Kind:      connectors.MultiAuthKey,
		APIKey:    masking.New("client"),
		Key1:      masking.New("secret"),
		APISecret: masking.New("user"),
		Key2:      masking.New("pass"),
	}
	req, err := connectors.AccessTokenRequestFromAuth(auth)
	require.NoError(t, err)
	assert.Equal(t, "client", req.AppID.Expose())
	require.NotNil(t, req.Password)
	assert.Equal(t, "pass", req.Password.Expose())

	_, err = connectors.AccessTokenRequestFromAuth(connectors.ConnectorAuthType{Kind: connectors.NoKey})
	assert.ErrorIs(t, err, connectors.ErrFailedToObtainAuthType)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1000", connectors.FormatAmount(connectors.CurrencyUnitMinor, 1000, "USD"))
	assert.Equal(t, "10.00", connectors.FormatAmount(connectors.CurrencyUnitBase, 1000, "USD"))
	assert.Equal(t, "1000", connectors.FormatAmount(connectors.CurrencyUnitBase, 1000, "JPY"))
	assert.Equal(t, uint16(840), connectors.Currency("USD").NumericCode())
}

type baseUnitAdapter struct{ stubAdapter }

func (baseUnitAdapter) CurrencyUnit() connectors.CurrencyUnit { return connectors.CurrencyUnitBase }

func TestConvertAmount(t *testing.T) {
	assert.Equal(t, json.Number("1000"), connectors.ConvertAmount(stubAdapter{}, 1000, "USD"))
	assert.Equal(t, json.Number("10.00"), connectors.ConvertAmount(baseUnitAdapter{}, 1000, "USD"))

	b, err := json.Marshal(map[string]json.Number{"amount": connectors.ConvertAmount(baseUnitAdapter{}, 1050, "EUR")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":10.50}`, string(b))
}
