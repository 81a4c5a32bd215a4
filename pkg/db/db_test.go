package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payrouter/pkg/config"
)

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "db:5432/payrouter", redactDSN("postgres://user:pw@db:5432/payrouter"))
	assert.Equal(t, "***", redactDSN("host=db password=pw"))
}

func TestDisabledWithoutURL(t *testing.T) {
	log := zap.NewNop().Sugar()
	pool, err := Connect(context.Background(), config.Config{}, log)
	require.NoError(t, err)
	assert.Nil(t, pool)

	cli, err := ConnectRedis(context.Background(), config.Config{}, log)
	require.NoError(t, err)
	assert.Nil(t, cli)
}

func TestPoolConfigAppliesLimits(t *testing.T) {
	pc, err := PoolConfig(config.Config{
		ServiceName:   "payrouter-router",
		DatabaseURL:   "postgres://user:pw@db:5432/payrouter",
		DBMaxConns:    7,
		DBMinConns:    2,
		DBConnMaxLife: time.Minute,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 7, pc.MaxConns)
	assert.EqualValues(t, 2, pc.MinConns)
	assert.Equal(t, time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "payrouter-router", pc.ConnConfig.RuntimeParams["application_name"])

	_, err = PoolConfig(config.Config{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions(config.Config{RedisURL: "redis://cache:6379/2", RedisPoolSize: 32, ServiceName: "payrouter-admin"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 32, opts.PoolSize)
	assert.Equal(t, "payrouter-admin", opts.ClientName)

	_, err = RedisOptions(config.Config{RedisURL: "http://nope"})
	assert.Error(t, err)
}
