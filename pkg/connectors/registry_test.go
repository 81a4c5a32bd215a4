package connectors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrouter/pkg/connectors"
)

type stubAdapter struct{ id string }

func (s stubAdapter) ID() string                           { return s.id }
func (stubAdapter) CurrencyUnit() connectors.CurrencyUnit  { return connectors.CurrencyUnitMinor }
func (stubAdapter) ContentType() connectors.ContentType    { return connectors.ContentTypeJSON }
func (stubAdapter) BaseURL(ep connectors.Endpoints) string { return ep.BaseURL }
func (stubAdapter) AuthHeader(connectors.ConnectorAuthType) ([]connectors.Header, error) {
	return nil, nil
}

func (stubAdapter) BuildErrorResponse(res *connectors.Response) (*connectors.ErrorResponse, error) {
	return connectors.ErrorShape{}.Normalize(res)
}

func (s stubAdapter) Register(reg *connectors.Registry) {
	connectors.Bind(reg, s.id, connectors.PSync, syncIntegration{})
}

type syncIntegration struct {
	connectors.Unsupported[connectors.PaymentsSyncData, connectors.PaymentsResponseData]
}

func (syncIntegration) URL(d *connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData], ep connectors.Endpoints) (string, error) {
	return ep.BaseURL + "payments/" + d.Request.ConnectorTransactionID, nil
}

func TestRegistryLookup(t *testing.T) {
	reg := connectors.NewRegistry()
	reg.Register(stubAdapter{id: "stub"})

	integ, err := connectors.Lookup(reg, "stub", connectors.PSync)
	require.NoError(t, err)
	url, err := integ.URL(&connectors.RouterData[connectors.PaymentsSyncData, connectors.PaymentsResponseData]{
		Request: connectors.PaymentsSyncData{ConnectorTransactionID: "tx1"},
	}, connectors.Endpoints{BaseURL: "https://stub.test/"})
	require.NoError(t, err)
	assert.Equal(t, "https://stub.test/payments/tx1", url)

	assert.True(t, reg.Supports("stub", connectors.FlowPSync))
	assert.False(t, reg.Supports("stub", connectors.FlowVoid))
	assert.Equal(t, []string{"stub"}, reg.Connectors())
}

func TestRegistryDefaultsToUnsupported(t *testing.T) {
	reg := connectors.NewRegistry()
	reg.Register(stubAdapter{id: "stub"})

	integ, err := connectors.Lookup(reg, "stub", connectors.Void)
	require.NoError(t, err)
	_, err = integ.URL(&connectors.RouterData[connectors.PaymentsCancelData, connectors.PaymentsResponseData]{}, connectors.Endpoints{})
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)
	assert.Equal(t, "get_url method", connectors.Detail(err))

	_, err = integ.RequestBody(nil, connectors.Endpoints{})
	assert.ErrorIs(t, err, connectors.ErrNotImplemented)
}

func TestRegistryUnknownConnector(t *testing.T) {
	reg := connectors.NewRegistry()
	_, err := connectors.Lookup(reg, "nope", connectors.Authorize)
	assert.ErrorIs(t, err, connectors.ErrInvalidConnectorName)

	_, err = reg.Webhooks("nope")
	assert.ErrorIs(t, err, connectors.ErrInvalidConnectorName)
}

func TestRegistryNoWebhooks(t *testing.T) {
	reg := connectors.NewRegistry()
	reg.Register(stubAdapter{id: "stub"})

	hooks, err := reg.Webhooks("stub")
	require.NoError(t, err)
	_, err = hooks.EventType(&connectors.IncomingWebhookRequest{})
	assert.ErrorIs(t, err, connectors.ErrWebhooksNotImplemented)
	_, err = hooks.ObjectReferenceID(&connectors.IncomingWebhookRequest{})
	assert.ErrorIs(t, err, connectors.ErrWebhooksNotImplemented)
	_, err = hooks.ResourceObject(&connectors.IncomingWebhookRequest{})
	assert.ErrorIs(t, err, connectors.ErrWebhooksNotImplemented)
}
