package merchants

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Open returns the Postgres store when pool is set, creating its schema,
// and an in-memory store otherwise. The seed is applied to either.
func Open(ctx context.Context, pool *pgxpool.Pool, master []byte, seed string, log *zap.SugaredLogger) (Store, error) {
	var s Store
	if pool != nil {
		if err := EnsureSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("merchant schema: %w", err)
		}
		s = NewPostgresStore(pool, master, log)
	} else {
		s = NewMemoryStore(master, log)
	}
	if err := Seed(ctx, s, seed); err != nil {
		return nil, fmt.Errorf("merchant seed: %w", err)
	}
	return s, nil
}
