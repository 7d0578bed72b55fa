package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, 25, cfg.Sync.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Sync.Pacing())
	assert.Equal(t, 30*time.Second, cfg.Sync.Cooldown())
	assert.False(t, cfg.Search.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("SYNC_BATCH_SIZE", "10")
	t.Setenv("KAFKA_BROKERS", "b-1.msk.local:9098, b-2.msk.local:9098")
	t.Setenv("KAFKA_REGION", "us-east-1")
	t.Setenv("SEARCH_APP", "app")
	t.Setenv("SEARCH_KEY", "key")
	t.Setenv("SEARCH_INDEX", "catalog")

	cfg := Load()

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, ":9090", cfg.API.Addr)
	assert.Equal(t, 10, cfg.Sync.BatchSize)
	assert.Equal(t, []string{"b-1.msk.local:9098", "b-2.msk.local:9098"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.Search.Enabled())
}

func TestSearchEnabled(t *testing.T) {
	assert.False(t, Search{App: "a", Key: "k"}.Enabled())
	assert.True(t, Search{App: "a", Key: "k", Index: "i"}.Enabled())
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a"}, splitList("a"))
	assert.Equal(t, []string{"a", "b"}, splitList("a, ,b,"))
}
