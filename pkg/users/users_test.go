package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payrouter/pkg/cache"
	"payrouter/pkg/masking"
	"payrouter/pkg/merchants"
	"payrouter/pkg/users"
)

// countingRepo counts lookups that reach the repository.
type countingRepo struct {
	users.Repository
	finds int
}

func (c *countingRepo) FindByEmail(ctx context.Context, email string) (users.Record, error) {
	c.finds++
	return c.Repository.FindByEmail(ctx, email)
}

func setup(t *testing.T, backend cache.Backend) (*users.Store, *countingRepo) {
	t.Helper()
	keys := merchants.NewMemoryStore([]byte("master"), zap.NewNop().Sugar())
	_, err := keys.CreateMerchant(context.Background(), "m1", "Shop")
	require.NoError(t, err)
	repo := &countingRepo{Repository: users.NewMemoryRepository()}
	return users.NewStore(repo, keys, cache.New(backend, "accounts", nil)), repo
}

func newUser() users.NewUser {
	return users.NewUser{
		MerchantID: "m1",
		Name:       masking.New("Ana Perez"),
		Email:      "Ana@Example.com",
		Password:   masking.New("s3cret"),
	}
}

func TestInsertAndFind(t *testing.T) {
	store, repo := setup(t, cache.NewMemory(8, time.Minute))
	ctx := context.Background()

	u, err := store.Insert(ctx, newUser())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana Perez", u.Name.Expose())
	assert.NotZero(t, u.ID)

	found, err := store.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, "s3cret", found.Password.Expose())

	_, err = store.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.finds, "second lookup is served from cache")
}

func TestDuplicateAndNotFound(t *testing.T) {
	store, _ := setup(t, cache.NewMemory(8, time.Minute))
	ctx := context.Background()

	_, err := store.Insert(ctx, newUser())
	require.NoError(t, err)
	_, err = store.Insert(ctx, newUser())
	assert.ErrorIs(t, err, users.ErrDuplicateUser)

	_, err = store.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)

	bad := newUser()
	bad.MerchantID = "ghost"
	bad.Email = "x@example.com"
	_, err = store.Insert(ctx, bad)
	assert.ErrorIs(t, err, merchants.ErrNotFound)
}

func TestRedisCacheHoldsCiphertextOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store, _ := setup(t, cache.NewRedis(client, time.Minute))
	ctx := context.Background()

	_, err := store.Insert(ctx, newUser())
	require.NoError(t, err)
	_, err = store.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)

	raw, err := mr.Get("accounts:ana@example.com")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Ana Perez")
	assert.NotContains(t, raw, "s3cret")
}
