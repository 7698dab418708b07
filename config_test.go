package versioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.CacheTTL = 0
	cfg.Timeout = 0
	require.NoError(t, cfg.Validate(), "zero ttl and timeout mean no expiry and default timeout")

	cfg = Config{Format: Format(7), CacheTTL: -time.Second, Timeout: -time.Second}
	err := cfg.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 5)
}

func TestWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fallback = "0.0.0-unknown"
	cfg.IncludePrefix = false
	cfg.CacheEnabled = false

	svc, err := New(WithConfig(cfg), WithKeyPrefix("override"))
	require.NoError(t, err)

	got := svc.Config()
	assert.Equal(t, "0.0.0-unknown", got.Fallback)
	assert.False(t, got.IncludePrefix)
	assert.Equal(t, "override", got.KeyPrefix, "later options win")
	assert.IsType(t, NopCache{}, svc.cache)
}
