package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"payrouter/pkg/db"
)

// pgRepo reads and writes the users table created by merchants.EnsureSchema.
type pgRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

func (p *pgRepo) Insert(ctx context.Context, r Record) (Record, error) {
	err := db.InMerchantTx(ctx, p.pool, r.MerchantID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `INSERT INTO users(merchant_id,name,email,password) VALUES ($1,$2,$3,$4) RETURNING id,created_at`,
			r.MerchantID, r.Name, r.Email, r.Password).Scan(&r.ID, &r.CreatedAt)
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Record{}, ErrDuplicateUser
	}
	if err != nil {
		return Record{}, fmt.Errorf("insert user: %w", err)
	}
	return r, nil
}

func (p *pgRepo) FindByEmail(ctx context.Context, email string) (Record, error) {
	var r Record
	err := p.pool.QueryRow(ctx, `SELECT id,merchant_id,name,email,password,created_at FROM users WHERE email=$1`, email).
		Scan(&r.ID, &r.MerchantID, &r.Name, &r.Email, &r.Password, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find user: %w", err)
	}
	return r, nil
}
