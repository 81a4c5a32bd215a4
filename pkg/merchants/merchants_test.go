package merchants_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
	"payrouter/pkg/merchants"
)

func newStore() merchants.Store {
	return merchants.NewMemoryStore([]byte("master"), zap.NewNop().Sugar())
}

func TestCreateMerchant(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	m, err := s.CreateMerchant(ctx, "m1", "Shop")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)

	_, err = s.CreateMerchant(ctx, "m1", "Again")
	assert.ErrorIs(t, err, merchants.ErrDuplicate)

	key, err := s.MerchantKey(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, key.Expose(), 32)

	_, err = s.MerchantKey(ctx, "ghost")
	assert.ErrorIs(t, err, merchants.ErrNotFound)
}

func TestConnectorAccounts(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	_, err := s.CreateMerchant(ctx, "m1", "Shop")
	require.NoError(t, err)

	auth := connectors.ConnectorAuthType{Kind: connectors.HeaderKey, APIKey: masking.New("pr-key")}
	require.NoError(t, s.UpsertConnectorAccount(ctx, merchants.ConnectorAccount{
		MerchantID: "m1", Connector: "payrabbit", Auth: auth,
		Metadata: json.RawMessage(`{"terminal_id":"T1"}`),
	}))

	acct, err := s.ConnectorAccount(ctx, "m1", "payrabbit")
	require.NoError(t, err)
	assert.Equal(t, connectors.HeaderKey, acct.Auth.Kind)
	assert.Equal(t, "pr-key", acct.Auth.APIKey.Expose())
	assert.JSONEq(t, `{"terminal_id":"T1"}`, string(acct.Metadata))

	_, err = s.ConnectorAccount(ctx, "m1", "creditbanco")
	assert.ErrorIs(t, err, merchants.ErrNoAccount)

	ids, err := s.ListConnectors(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"payrabbit"}, ids)
}

func TestSeed(t *testing.T) {
	s := newStore()
	seed := `[{"merchant_id":"m1","name":"Dev","connectors":{
		"creditbanco":{"auth":{"auth_type":"MultiAuthKey","api_key":"cid","key1":"csec","api_secret":"user","key2":"pass"},"metadata":{"terminal_id":"T9"}},
		"payrabbit":{"auth":{"auth_type":"HeaderKey","api_key":"pk"}}}}]`
	require.NoError(t, merchants.Seed(context.Background(), s, seed))
	require.NoError(t, merchants.Seed(context.Background(), s, seed), "seeding twice keeps the merchant")

	acct, err := s.ConnectorAccount(context.Background(), "m1", "creditbanco")
	require.NoError(t, err)
	assert.Equal(t, connectors.MultiAuthKey, acct.Auth.Kind)
	assert.Equal(t, "pass", acct.Auth.Key2.Expose())

	assert.Error(t, merchants.Seed(context.Background(), s, `[{"merchant_id":"m2","connectors":{"x":{"auth":{"auth_type":"Bogus"}}}}]`))
}

func TestOpenWithoutPoolSeedsMemory(t *testing.T) {
	ctx := context.Background()
	s, err := merchants.Open(ctx, nil, []byte("master"), `[{"merchant_id":"m1","name":"Dev","connectors":{"payrabbit":{"auth":{"auth_type":"HeaderKey","api_key":"pk"}}}}]`, zap.NewNop().Sugar())
	require.NoError(t, err)
	m, err := s.Merchant(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Dev", m.Name)

	_, err = merchants.Open(ctx, nil, []byte("master"), `not json`, zap.NewNop().Sugar())
	assert.Error(t, err)
}
