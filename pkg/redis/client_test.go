package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyes-labs/storefront-backend/pkg/config"
)

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "sf:cart:u-1", c.CartKey("u-1"))
	assert.Equal(t, "sf:checkout_draft:tok", c.DraftKey("tok"))
	assert.Equal(t, "sf:sync_event:ev-9", c.SyncEventKey("ev-9"))
}

func TestOptionsFromConfigRequiresEndpoint(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}
