package rediscache_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/gophersatwork/versioning"
	"github.com/gophersatwork/versioning/rediscache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ versioning.Cache = (*rediscache.Cache)(nil)

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_NilClient(t *testing.T) {
	ctx := context.Background()
	c := rediscache.New(nil)

	_, ok, err := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, err, rediscache.ErrNilClient)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", time.Minute), rediscache.ErrNilClient)
	assert.ErrorIs(t, c.Delete(ctx, "k"), rediscache.ErrNilClient)
	assert.ErrorIs(t, c.Ping(ctx), rediscache.ErrNilClient)
}

func TestCache_UnreachableServer(t *testing.T) {
	ctx := context.Background()
	c := rediscache.New(unreachableClient(t), rediscache.WithNamespace("test"))

	_, ok, err := c.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, ok)
	require.Error(t, c.Set(ctx, "k", "v", time.Minute))
	require.Error(t, c.Delete(ctx, "k"))
	require.Error(t, c.Ping(ctx))
}

func TestCache_ServiceSurvivesUnreachableServer(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	calls := 0
	resolver := versioning.ResolverFunc(func(_ context.Context, _ string, format versioning.Format) (versioning.ResolvedVersion, error) {
		calls++
		return versioning.ResolvedVersion{Raw: "v1.0.0", Format: format}, nil
	})

	svc, err := versioning.New(
		versioning.WithCache(rediscache.New(unreachableClient(t))),
		versioning.WithResolver(resolver),
		versioning.WithLogger(logger),
	)
	require.NoError(t, err)

	assert.Equal(t, "v1.0.0", svc.Tag(ctx))
	assert.Equal(t, "v1.0.0", svc.Tag(ctx))
	assert.Equal(t, 2, calls, "every call resolves while the cache is down")
	assert.Equal(t, int64(4), svc.Stats().CacheErrors)
	assert.Error(t, svc.ClearCache(ctx))
}
