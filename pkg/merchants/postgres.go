// pkg/merchants/postgres.go
package merchants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"payrouter/pkg/db"
	"payrouter/pkg/masking"
)

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	pool   *pgxpool.Pool
	log    *zap.SugaredLogger
	master []byte
}

func NewPostgresStore(pool *pgxpool.Pool, master []byte, log *zap.SugaredLogger) Store {
	return &pgStore{pool: pool, master: master, log: log}
}

// EnsureSchema creates the merchant, key store, connector account and user
// tables. Safe to call repeatedly.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS merchants (
  merchant_id text PRIMARY KEY,
  name text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS merchant_key_store (
  merchant_id text PRIMARY KEY REFERENCES merchants(merchant_id) ON DELETE CASCADE,
  key bytea NOT NULL,
  created_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS merchant_connector_accounts (
  merchant_id text REFERENCES merchants(merchant_id) ON DELETE CASCADE,
  connector text NOT NULL,
  auth_encrypted bytea NOT NULL,
  metadata jsonb,
  disabled boolean NOT NULL DEFAULT false,
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (merchant_id, connector)
);
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  merchant_id text NOT NULL REFERENCES merchants(merchant_id) ON DELETE CASCADE,
  name bytea NOT NULL,
  email text NOT NULL UNIQUE,
  password bytea NOT NULL,
  created_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (p *pgStore) CreateMerchant(ctx context.Context, id, name string) (Merchant, error) {
	key, err := newMerchantKey()
	if err != nil {
		return Merchant{}, err
	}
	sealed, err := sealKey(key, p.master)
	if err != nil {
		return Merchant{}, err
	}
	var created time.Time
	err = db.InMerchantTx(ctx, p.pool, id, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO merchants(merchant_id,name) VALUES ($1,$2) RETURNING created_at`, id, name).Scan(&created)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("insert merchant: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO merchant_key_store(merchant_id,key) VALUES ($1,$2)`, id, sealed); err != nil {
			return fmt.Errorf("insert merchant key: %w", err)
		}
		return nil
	})
	if err != nil {
		return Merchant{}, err
	}
	return Merchant{ID: id, Name: name, CreatedAt: created}, nil
}

func (p *pgStore) Merchant(ctx context.Context, id string) (Merchant, error) {
	var m Merchant
	err := p.pool.QueryRow(ctx, `SELECT merchant_id,name,created_at FROM merchants WHERE merchant_id=$1`, id).
		Scan(&m.ID, &m.Name, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Merchant{}, ErrNotFound
	}
	return m, err
}

func (p *pgStore) MerchantKey(ctx context.Context, merchantID string) (masking.Secret[[]byte], error) {
	var sealed []byte
	err := p.pool.QueryRow(ctx, `SELECT key FROM merchant_key_store WHERE merchant_id=$1`, merchantID).Scan(&sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return masking.Secret[[]byte]{}, ErrNotFound
	}
	if err != nil {
		return masking.Secret[[]byte]{}, err
	}
	return openKey(sealed, p.master)
}

func (p *pgStore) UpsertConnectorAccount(ctx context.Context, acct ConnectorAccount) error {
	key, err := p.MerchantKey(ctx, acct.MerchantID)
	if err != nil {
		return err
	}
	sealed, err := sealAccount(acct, key)
	if err != nil {
		return err
	}
	var metadata any
	if len(sealed.Metadata) > 0 {
		metadata = sealed.Metadata
	}
	return db.InMerchantTx(ctx, p.pool, acct.MerchantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO merchant_connector_accounts(merchant_id,connector,auth_encrypted,metadata,disabled,updated_at)
	  VALUES ($1,$2,$3,$4,$5,NOW())
	  ON CONFLICT (merchant_id,connector) DO UPDATE SET auth_encrypted=EXCLUDED.auth_encrypted,metadata=EXCLUDED.metadata,disabled=EXCLUDED.disabled,updated_at=NOW()`,
			acct.MerchantID, acct.Connector, sealed.Auth, metadata, sealed.Disabled); err != nil {
			return fmt.Errorf("upsert connector account: %w", err)
		}
		return nil
	})
}

func (p *pgStore) ConnectorAccount(ctx context.Context, merchantID, connector string) (ConnectorAccount, error) {
	key, err := p.MerchantKey(ctx, merchantID)
	if err != nil {
		return ConnectorAccount{}, err
	}
	acct := ConnectorAccount{MerchantID: merchantID, Connector: connector}
	var sealed, metadata []byte
	err = p.pool.QueryRow(ctx, `SELECT auth_encrypted,metadata,disabled,updated_at FROM merchant_connector_accounts WHERE merchant_id=$1 AND connector=$2`, merchantID, connector).
		Scan(&sealed, &metadata, &acct.Disabled, &acct.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ConnectorAccount{}, ErrNoAccount
	}
	if err != nil {
		return ConnectorAccount{}, err
	}
	if acct.Auth, err = openAuth(sealed, key); err != nil {
		return ConnectorAccount{}, err
	}
	acct.Metadata = metadata
	return acct, nil
}

func (p *pgStore) ListConnectors(ctx context.Context, merchantID string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT connector FROM merchant_connector_accounts WHERE merchant_id=$1 ORDER BY connector`, merchantID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
