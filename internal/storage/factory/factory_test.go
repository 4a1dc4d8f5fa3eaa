package factory

import (
	"context"
	"testing"

	"github.com/DjordjeVuckovic/modelcfg/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Run("missing type", func(t *testing.T) {
		t.Setenv("STORAGE_TYPE", "")
		_, err := LoadEnv()
		assert.ErrorContains(t, err, "STORAGE_TYPE")
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Setenv("STORAGE_TYPE", "redis")
		_, err := LoadEnv()
		assert.ErrorContains(t, err, "invalid STORAGE_TYPE")
	})

	t.Run("in memory", func(t *testing.T) {
		t.Setenv("STORAGE_TYPE", "in_mem")
		cfg, err := LoadEnv()
		require.NoError(t, err)
		assert.Equal(t, storage.InMem, cfg.Type)
		assert.Nil(t, cfg.Pg)
		assert.Nil(t, cfg.Es)
	})

	t.Run("postgres requires connection string", func(t *testing.T) {
		t.Setenv("STORAGE_TYPE", "pg")
		t.Setenv("PG_CONNECTION_STRING", "")
		_, err := LoadEnv()
		assert.Error(t, err)

		t.Setenv("PG_CONNECTION_STRING", "postgres://u:p@localhost:5432/db")
		cfg, err := LoadEnv()
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@localhost:5432/db", cfg.Pg.ConnStr)
	})

	t.Run("elasticsearch", func(t *testing.T) {
		t.Setenv("STORAGE_TYPE", "es")
		t.Setenv("ES_ADDRESSES", " ")
		_, err := LoadEnv()
		assert.ErrorContains(t, err, "ES_ADDRESSES")

		t.Setenv("ES_ADDRESSES", "http://a:9200, http://b:9200")
		t.Setenv("ES_INDEX_NAME", "")
		t.Setenv("ES_USERNAME", "elastic")
		t.Setenv("ES_PASSWORD", "secret")
		cfg, err := LoadEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, cfg.Es.Addresses)
		assert.Equal(t, "check_results", cfg.Es.IndexName)
		assert.Equal(t, "elastic", cfg.Es.Username)
	})
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(context.Background(), &StorageConfig{Type: storage.InMem})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))

	_, err = NewStore(context.Background(), &StorageConfig{Type: "redis"})
	assert.ErrorContains(t, err, "unsupported storer type: redis")

	_, err = NewStore(context.Background(), &StorageConfig{Type: storage.PG})
	assert.Error(t, err)
}
