// pkg/merchants/memory.go
package merchants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"payrouter/pkg/connectors"
	"payrouter/pkg/masking"
)

type memStore struct {
	log    *zap.SugaredLogger
	master []byte

	mu        sync.RWMutex
	merchants map[string]Merchant
	keys      map[string][]byte                   // sealed with master
	accounts  map[string]map[string]sealedAccount // merchant -> connector
	updated   map[string]time.Time
}

func NewMemoryStore(master []byte, log *zap.SugaredLogger) Store {
	return &memStore{
		log:       log,
		master:    master,
		merchants: map[string]Merchant{},
		keys:      map[string][]byte{},
		accounts:  map[string]map[string]sealedAccount{},
		updated:   map[string]time.Time{},
	}
}

// SeedEntry is one merchant of MERCHANT_SEED_JSON:
//
//	[{"merchant_id":"m1","name":"Dev","connectors":{
//	   "payrabbit":{"auth":{"auth_type":"HeaderKey","api_key":"..."}}}}]
type SeedEntry struct {
	MerchantID string `json:"merchant_id"`
	Name       string `json:"name"`
	Connectors map[string]struct {
		Auth     connectors.ConnectorAuthType `json:"auth"`
		Metadata json.RawMessage              `json:"metadata,omitempty"`
	} `json:"connectors"`
}

// Seed loads merchants and connector accounts from a JSON seed. Existing
// merchants are kept and their accounts overwritten.
func Seed(ctx context.Context, s Store, seed string) error {
	if seed == "" {
		return nil
	}
	var entries []SeedEntry
	if err := json.Unmarshal([]byte(seed), &entries); err != nil {
		return fmt.Errorf("parse merchant seed: %w", err)
	}
	for _, e := range entries {
		if _, err := s.CreateMerchant(ctx, e.MerchantID, e.Name); err != nil && !errors.Is(err, ErrDuplicate) {
			return err
		}
		for id, c := range e.Connectors {
			if err := s.UpsertConnectorAccount(ctx, ConnectorAccount{
				MerchantID: e.MerchantID, Connector: id, Auth: c.Auth, Metadata: c.Metadata,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *memStore) CreateMerchant(_ context.Context, id, name string) (Merchant, error) {
	key, err := newMerchantKey()
	if err != nil {
		return Merchant{}, err
	}
	sealed, err := sealKey(key, m.master)
	if err != nil {
		return Merchant{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.merchants[id]; ok {
		return Merchant{}, ErrDuplicate
	}
	mer := Merchant{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	m.merchants[id] = mer
	m.keys[id] = sealed
	m.accounts[id] = map[string]sealedAccount{}
	return mer, nil
}

func (m *memStore) Merchant(_ context.Context, id string) (Merchant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mer, ok := m.merchants[id]
	if !ok {
		return Merchant{}, ErrNotFound
	}
	return mer, nil
}

func (m *memStore) MerchantKey(_ context.Context, merchantID string) (masking.Secret[[]byte], error) {
	m.mu.RLock()
	sealed, ok := m.keys[merchantID]
	m.mu.RUnlock()
	if !ok {
		return masking.Secret[[]byte]{}, ErrNotFound
	}
	return openKey(sealed, m.master)
}

func (m *memStore) UpsertConnectorAccount(ctx context.Context, acct ConnectorAccount) error {
	key, err := m.MerchantKey(ctx, acct.MerchantID)
	if err != nil {
		return err
	}
	sealed, err := sealAccount(acct, key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acct.MerchantID][acct.Connector] = sealed
	m.updated[acct.MerchantID+":"+acct.Connector] = time.Now().UTC()
	return nil
}

func (m *memStore) ConnectorAccount(ctx context.Context, merchantID, connector string) (ConnectorAccount, error) {
	key, err := m.MerchantKey(ctx, merchantID)
	if err != nil {
		return ConnectorAccount{}, err
	}
	m.mu.RLock()
	sealed, ok := m.accounts[merchantID][connector]
	updated := m.updated[merchantID+":"+connector]
	m.mu.RUnlock()
	if !ok {
		return ConnectorAccount{}, ErrNoAccount
	}
	auth, err := openAuth(sealed.Auth, key)
	if err != nil {
		return ConnectorAccount{}, err
	}
	return ConnectorAccount{
		MerchantID: merchantID, Connector: connector, Auth: auth,
		Metadata: sealed.Metadata, Disabled: sealed.Disabled, UpdatedAt: updated,
	}, nil
}

func (m *memStore) ListConnectors(_ context.Context, merchantID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	accts, ok := m.accounts[merchantID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]string, 0, len(accts))
	for id := range accts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
