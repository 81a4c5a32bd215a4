package creditbanco_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrouter/internal/adapters/creditbanco"
	"payrouter/internal/pipeline"
	"payrouter/internal/pipeline/pipelinetest"
	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
)

const (
	baseURL      = "https://idp.creditbanco.test/"
	secondaryURL = "https://api.creditbanco.test/"
	tokenURL     = baseURL + "auth/realms/pasarelas/protocol/openid-connect/token"
	purchaseURL  = secondaryURL + "credibanco/api/pasarelas/v1/purchase-order"
)

var (
	endpoints = map[string]connectors.Endpoints{
		creditbanco.ID: {BaseURL: baseURL, SecondaryBaseURL: secondaryURL},
	}
	fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newExecutor(t *pipelinetest.Transport) *pipeline.Executor {
	reg := connectors.NewRegistry()
	reg.Register(creditbanco.New(creditbanco.WithClock(func() time.Time { return fixedNow })))
	return pipelinetest.NewExecutor(reg, t, endpoints, pipeline.WithClock(func() time.Time { return fixedNow }))
}

func multiAuth() connectors.ConnectorAuthType {
	return connectors.ConnectorAuthType{
		Kind:      connectors.MultiAuthKey,
		APIKey:    masking.New("client-id"),
		Key1:      masking.New("client-secret"),
		APISecret: masking.New("merchant-user"),
		Key2:      masking.New("merchant-pass"),
	}
}

func cardPayment() connectors.PaymentMethodData {
	return connectors.PaymentMethodData{
		Type: connectors.PaymentMethodCard,
		Card: &connectors.Card{
			Number:     masking.New("4111111111111111"),
			ExpMonth:   masking.New("12"),
			ExpYear:    masking.New("2030"),
			CVC:        masking.New("123"),
			HolderName: masking.Ptr("Ana Perez"),
		},
	}
}

func authorizeData() *connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData] {
	return &connectors.RouterData[connectors.PaymentsAuthorizeData, connectors.PaymentsResponseData]{
		MerchantID: "m1",
		Connector:  creditbanco.ID,
		PaymentID:  "pay_1",
		AttemptID:  "att_1",
		AuthType:   multiAuth(),
		Request: connectors.PaymentsAuthorizeData{
			Amount:        1000,
			Currency:      "USD",
			PaymentMethod: cardPayment(),
		},
	}
}

func header(t *testing.T, req *connectors.Request, name string) (string, bool) {
	t.Helper()
	v, ok := req.Header(name)
	return v.Expose(), ok
}

func TestAuthorizeFetchesTokenFirst(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		switch req.URL {
		case tokenURL:
			return pipelinetest.JSON(200, `{"access_token":"tok123","expires_in":300,"refresh_expires_in":1800,"refresh_token":"r","token_type":"Bearer"}`), nil
		case purchaseURL:
			return pipelinetest.JSON(200, `{"status":"succeeded","id":"cb-tx-1"}`), nil
		}
		return nil, errors.New("unexpected url " + req.URL)
	})

	out, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, authorizeData())
	require.NoError(t, err)

	reqs := tr.Requests()
	require.Len(t, reqs, 2)

	tokenReq := reqs[0]
	assert.Equal(t, "POST", tokenReq.Method)
	ct, _ := header(t, tokenReq, "Content-Type")
	assert.Equal(t, "application/x-www-form-urlencoded", ct)
	_, hasAuth := header(t, tokenReq, "Authorization")
	assert.False(t, hasAuth)
	form, err := url.ParseQuery(string(tokenReq.Body.Bytes.Expose()))
	require.NoError(t, err)
	assert.Equal(t, "password", form.Get("grant_type"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))
	assert.Equal(t, "merchant-user", form.Get("username"))
	assert.Equal(t, "merchant-pass", form.Get("password"))

	payReq := reqs[1]
	authz, ok := header(t, payReq, "Authorization")
	require.True(t, ok)
	assert.Equal(t, "Bearer tok123", authz)
	ct, _ = header(t, payReq, "Content-Type")
	assert.Equal(t, "application/json", ct)

	var body map[string]any
	require.NoError(t, json.Unmarshal(payReq.Body.Bytes.Expose(), &body))
	assert.EqualValues(t, 1000, body["amount"])
	assert.EqualValues(t, 840, body["currency_code"])
	assert.Equal(t, "pay_1", body["unique_code"])
	assert.Equal(t, []any{}, body["references"])
	cardData := body["card_data"].(map[string]any)
	assert.Equal(t, "Ana Perez", cardData["name"])
	assert.Equal(t, "4111111111111111", cardData["card_number"])

	require.True(t, out.Response.Ok())
	assert.Equal(t, "cb-tx-1", out.Response.Value.ResourceID)
	assert.Equal(t, connectors.StatusCharged, out.Status)
	require.NotNil(t, out.AccessToken)
	assert.Equal(t, "tok123", out.AccessToken.Token.Expose())
	assert.Equal(t, fixedNow.Add(300*time.Second), out.AccessToken.ExpiresAt)
}

func TestAuthorizeReusesTokenOnRetry(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		return pipelinetest.JSON(200, `{"status":"processing","id":"cb-tx-2"}`), nil
	})
	data := authorizeData()
	data.AccessToken = &connectors.AccessToken{Token: masking.New("earlier"), ExpiresAt: fixedNow.Add(time.Minute)}

	out, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, data)
	require.NoError(t, err)
	require.Len(t, tr.Requests(), 1)
	authz, _ := header(t, tr.Requests()[0], "Authorization")
	assert.Equal(t, "Bearer earlier", authz)
	assert.Equal(t, connectors.StatusAuthorizing, out.Status)
}

func TestTokenFailureFallsBackToSessionToken(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		if req.URL == tokenURL {
			return pipelinetest.JSON(401, `{"message":"invalid client","error":"unauthorized_client"}`), nil
		}
		return pipelinetest.JSON(200, `{"status":"succeeded","id":"cb-tx-3"}`), nil
	})
	data := authorizeData()
	session := "sess-9"
	data.SessionToken = &session

	out, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, data)
	require.NoError(t, err)
	assert.Nil(t, out.AccessToken)
	reqs := tr.Requests()
	require.Len(t, reqs, 2)
	authz, ok := header(t, reqs[1], "Authorization")
	require.True(t, ok)
	assert.Equal(t, "Bearer sess-9", authz)
}

func TestTokenFailureWithoutSessionOmitsAuthorization(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		if req.URL == tokenURL {
			return nil, connectors.TransportError(errors.New("dial tcp: timeout"))
		}
		return pipelinetest.JSON(401, `{"message":"missing token"}`), nil
	})

	out, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, authorizeData())
	require.NoError(t, err)
	reqs := tr.Requests()
	require.Len(t, reqs, 2)
	_, ok := header(t, reqs[1], "Authorization")
	assert.False(t, ok)

	require.NotNil(t, out.Response.Err)
	assert.Equal(t, 401, out.Response.Err.StatusCode)
	assert.Equal(t, "401", out.Response.Err.Code)
	assert.Equal(t, "missing token", out.Response.Err.Message)
}

func TestAccessTokenAuthRunsWithoutPretask(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		return pipelinetest.JSON(200, `{"access_token":"direct","expires_in":60}`), nil
	})
	req, err := connectors.AccessTokenRequestFromAuth(multiAuth())
	require.NoError(t, err)
	data := &connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken]{
		Connector: creditbanco.ID,
		AuthType:  multiAuth(),
		Request:   req,
	}

	out, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.AccessTokenAuth, data)
	require.NoError(t, err)
	require.Len(t, tr.Requests(), 1)
	assert.Equal(t, tokenURL, tr.Requests()[0].URL)
	require.True(t, out.Response.Ok())
	assert.Equal(t, "direct", out.Response.Value.Token.Expose())
}

func TestAccessTokenAuthRequiresClientSecret(t *testing.T) {
	tr := pipelinetest.NewTransport(func(*connectors.Request) (*connectors.Response, error) {
		return nil, errors.New("must not be called")
	})
	auth := connectors.ConnectorAuthType{Kind: connectors.HeaderKey, APIKey: masking.New("client-id")}
	req, err := connectors.AccessTokenRequestFromAuth(auth)
	require.NoError(t, err)

	_, err = pipeline.Execute(context.Background(), newExecutor(tr), connectors.AccessTokenAuth, &connectors.RouterData[connectors.AccessTokenRequestData, connectors.AccessToken]{
		Connector: creditbanco.ID,
		AuthType:  auth,
		Request:   req,
	})
	assert.ErrorIs(t, err, connectors.ErrMissingRequiredField)
	assert.Equal(t, "request.id", connectors.Detail(err))
	assert.Empty(t, tr.Requests())
}

func TestUnimplementedFlows(t *testing.T) {
	tr := pipelinetest.NewTransport(func(*connectors.Request) (*connectors.Response, error) {
		return nil, errors.New("must not be called")
	})
	exec := newExecutor(tr)
	ctx := context.Background()

	psync, err := pipeline.Execute(ctx, exec, connectors.PSync, &connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData]{
		Connector: creditbanco.ID,
		Request:   connectors.PaymentsSyncData{ConnectorTransactionID: "cb-tx-1"},
	})
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)
	assert.Equal(t, "get_url method", connectors.Detail(err))
	require.NotNil(t, psync.Response.Err)
	assert.Equal(t, "NOT_IMPLEMENTED", psync.Response.Err.Code)

	_, err = pipeline.Execute(ctx, exec, connectors.Capture, &connectors.RouterData[connectors.PaymentsCaptureData, connectors.PaymentsResponseData]{
		Connector: creditbanco.ID,
	})
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)

	_, err = pipeline.Execute(ctx, exec, connectors.Void, &connectors.RouterData[connectors.PaymentsCancelData, connectors.PaymentsResponseData]{
		Connector: creditbanco.ID,
	})
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)

	_, err = pipeline.Execute(ctx, exec, connectors.RefundExecute, &connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData]{
		Connector: creditbanco.ID,
		Request:   connectors.RefundsData{RefundAmount: 500, Currency: "USD"},
	})
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)

	_, err = pipeline.Execute(ctx, exec, connectors.RefundSync, &connectors.RouterData[connectors.RefundsData, connectors.RefundsResponseData]{
		Connector: creditbanco.ID,
	})
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)

	assert.Empty(t, tr.Requests())
}

func TestAuthorizeRequiresCardHolderName(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		return pipelinetest.JSON(200, `{"access_token":"tok","expires_in":300}`), nil
	})
	data := authorizeData()
	data.Request.PaymentMethod.Card.HolderName = nil

	_, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, data)
	assert.ErrorIs(t, err, connectors.ErrMissingRequiredField)
	assert.Equal(t, "card_holder_name", connectors.Detail(err))
	require.Len(t, tr.Requests(), 1, "only the token exchange reaches the wire")
}

func TestAuthorizeRejectsNonCard(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		return pipelinetest.JSON(200, `{"access_token":"tok","expires_in":300}`), nil
	})
	data := authorizeData()
	data.Request.PaymentMethod = connectors.PaymentMethodData{Type: connectors.PaymentMethodWallet}

	_, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, data)
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)
	assert.Equal(t, "Payment methods", connectors.Detail(err))
}

func TestAuthorizeConnectorError(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		if strings.HasSuffix(req.URL, "token") {
			return pipelinetest.JSON(200, `{"access_token":"tok","expires_in":300}`), nil
		}
		return pipelinetest.JSON(400, `{"message":"Invalid card","error":"card_declined"}`), nil
	})

	out, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, authorizeData())
	require.NoError(t, err)
	require.NotNil(t, out.Response.Err)
	assert.Nil(t, out.Response.Value)
	assert.Equal(t, 400, out.Response.Err.StatusCode)
	assert.Equal(t, "400", out.Response.Err.Code)
	assert.Equal(t, "Invalid card", out.Response.Err.Message)
	require.NotNil(t, out.Response.Err.Reason)
	assert.Equal(t, "card_declined", *out.Response.Err.Reason)
}

func TestAuthorizeMissingSecondaryURL(t *testing.T) {
	tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
		return pipelinetest.JSON(200, `{"access_token":"tok","expires_in":300}`), nil
	})
	reg := connectors.NewRegistry()
	reg.Register(creditbanco.New())
	exec := pipelinetest.NewExecutor(reg, tr, map[string]connectors.Endpoints{creditbanco.ID: {BaseURL: baseURL}})

	_, err := pipeline.Execute(context.Background(), exec, connectors.Authorize, authorizeData())
	assert.ErrorIs(t, err, connectors.ErrFailedToObtainIntegrationURL)
}

func TestStatusMappingIsTotal(t *testing.T) {
	for literal, want := range map[string]connectors.AttemptStatus{
		"succeeded":  connectors.StatusCharged,
		"failed":     connectors.StatusFailure,
		"processing": connectors.StatusAuthorizing,
		"on_hold":    connectors.StatusPending,
	} {
		tr := pipelinetest.NewTransport(func(req *connectors.Request) (*connectors.Response, error) {
			if req.URL == tokenURL {
				return pipelinetest.JSON(200, `{"access_token":"tok","expires_in":300}`), nil
			}
			return pipelinetest.JSON(200, `{"status":"`+literal+`","id":"x"}`), nil
		})
		out, err := pipeline.Execute(context.Background(), newExecutor(tr), connectors.Authorize, authorizeData())
		require.NoError(t, err)
		assert.Equal(t, want, out.Status, literal)
	}
}

func TestNoWebhooks(t *testing.T) {
	reg := connectors.NewRegistry()
	reg.Register(creditbanco.New())
	hooks, err := reg.Webhooks(creditbanco.ID)
	require.NoError(t, err)
	_, err = hooks.EventType(&connectors.IncomingWebhookRequest{Body: []byte(`{}`)})
	assert.ErrorIs(t, err, connectors.ErrWebhooksNotImplemented)
}
