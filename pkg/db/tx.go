package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InMerchantTx runs fn in a transaction with app.merchant_id set for row
// level security. The transaction commits when fn returns nil and rolls back
// otherwise.
func InMerchantTx(ctx context.Context, pool *pgxpool.Pool, merchantID string, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT set_config('app.merchant_id', $1, true)", merchantID); err != nil {
			return err
		}
		return fn(tx)
	})
}
