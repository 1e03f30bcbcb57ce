package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, PingRedis(context.Background(), client, discardLogger()))
}

func TestPingRedis_AuthFailureNotRetried(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")
	client := NewRedisClient(RedisConfig{Addr: mr.Addr(), Password: "wrong"})
	t.Cleanup(func() { client.Close() })

	err := PingRedis(context.Background(), client, discardLogger())
	assert.Error(t, err)
}
