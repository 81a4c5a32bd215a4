package merchants

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
)

var (
	ErrNotFound  = errors.New("merchant not found")
	ErrDuplicate = errors.New("merchant already exists")
	ErrNoAccount = errors.New("connector account not found")
)

// Merchant is a logical account space owning connector accounts and users.
type Merchant struct {
	ID        string    `json:"merchant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ConnectorAccount is a merchant's credentials and settings for one connector.
type ConnectorAccount struct {
	MerchantID string                       `json:"merchant_id"`
	Connector  string                       `json:"connector"`
	Auth       connectors.ConnectorAuthType `json:"auth"`
	Metadata   json.RawMessage              `json:"metadata,omitempty"`
	Disabled   bool                         `json:"disabled"`
	UpdatedAt  time.Time                    `json:"updated_at"`
}

// Store resolves merchants, their data keys and connector accounts.
type Store interface {
	// CreateMerchant registers a merchant and generates its data key.
	CreateMerchant(ctx context.Context, id, name string) (Merchant, error)
	Merchant(ctx context.Context, id string) (Merchant, error)
	// MerchantKey returns the decrypted data key used to seal merchant records.
	MerchantKey(ctx context.Context, merchantID string) (masking.Secret[[]byte], error)
	UpsertConnectorAccount(ctx context.Context, acct ConnectorAccount) error
	ConnectorAccount(ctx context.Context, merchantID, connector string) (ConnectorAccount, error)
	ListConnectors(ctx context.Context, merchantID string) ([]string, error)
}
