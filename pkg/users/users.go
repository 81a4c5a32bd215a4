// Package users stores merchant users. Name and password are sealed with the
// merchant key; lookups by email go through the accounts cache, which only
// ever holds sealed records.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payrouter/pkg/cache"
	"payrouter/pkg/crypto"
	"payrouter/pkg/masking"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

type User struct {
	ID         int64                  `json:"id"`
	MerchantID string                 `json:"merchant_id"`
	Name       masking.Secret[string] `json:"-"`
	Email      string                 `json:"email"`
	Password   masking.Secret[string] `json:"-"`
	CreatedAt  time.Time              `json:"created_at"`
}

type NewUser struct {
	MerchantID string                 `json:"merchant_id" validate:"required"`
	Name       masking.Secret[string] `json:"name"`
	Email      string                 `json:"email" validate:"required,email"`
	Password   masking.Secret[string] `json:"password"`
}

// Record is the stored form of a user.
type Record struct {
	ID         int64     `json:"id"`
	MerchantID string    `json:"merchant_id"`
	Name       []byte    `json:"name"`
	Email      string    `json:"email"`
	Password   []byte    `json:"password"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository persists sealed records.
type Repository interface {
	Insert(ctx context.Context, r Record) (Record, error)
	FindByEmail(ctx context.Context, email string) (Record, error)
}

// KeyProvider resolves merchant data keys.
type KeyProvider interface {
	MerchantKey(ctx context.Context, merchantID string) (masking.Secret[[]byte], error)
}

type Store struct {
	repo  Repository
	keys  KeyProvider
	cache *cache.Cache
}

func NewStore(repo Repository, keys KeyProvider, c *cache.Cache) *Store {
	return &Store{repo: repo, keys: keys, cache: c}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (s *Store) Insert(ctx context.Context, u NewUser) (User, error) {
	key, err := s.keys.MerchantKey(ctx, u.MerchantID)
	if err != nil {
		return User{}, fmt.Errorf("merchant key: %w", err)
	}
	name, err := crypto.Encrypt([]byte(u.Name.Expose()), key.Expose())
	if err != nil {
		return User{}, fmt.Errorf("seal name: %w", err)
	}
	password, err := crypto.Encrypt([]byte(u.Password.Expose()), key.Expose())
	if err != nil {
		return User{}, fmt.Errorf("seal password: %w", err)
	}
	rec, err := s.repo.Insert(ctx, Record{
		MerchantID: u.MerchantID,
		Name:       name,
		Email:      normalizeEmail(u.Email),
		Password:   password,
	})
	if err != nil {
		return User{}, err
	}
	return open(rec, key)
}

// FindByEmail returns the user with email, decrypted with its merchant key.
func (s *Store) FindByEmail(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	load := func(ctx context.Context) (Record, error) { return s.repo.FindByEmail(ctx, email) }
	var (
		rec Record
		err error
	)
	if s.cache != nil {
		rec, err = cache.GetOrPopulate(ctx, s.cache, email, load)
	} else {
		rec, err = load(ctx)
	}
	if err != nil {
		return User{}, err
	}
	key, err := s.keys.MerchantKey(ctx, rec.MerchantID)
	if err != nil {
		return User{}, fmt.Errorf("merchant key: %w", err)
	}
	return open(rec, key)
}

func open(rec Record, key masking.Secret[[]byte]) (User, error) {
	name, err := crypto.Decrypt(rec.Name, key.Expose())
	if err != nil {
		return User{}, fmt.Errorf("open user name: %w", err)
	}
	password, err := crypto.Decrypt(rec.Password, key.Expose())
	if err != nil {
		return User{}, fmt.Errorf("open user password: %w", err)
	}
	return User{
		ID:         rec.ID,
		MerchantID: rec.MerchantID,
		Name:       masking.New(string(name)),
		Email:      rec.Email,
		Password:   masking.New(string(password)),
		CreatedAt:  rec.CreatedAt,
	}, nil
}
