package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trieidx.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Cache.TextFallback)
	assert.Equal(t, PrimarySQLite, cfg.Cache.Primary)
	assert.Equal(t, "zstd", cfg.Cache.Compression)
	assert.Equal(t, "go-json", cfg.Cache.Codec)
	assert.Equal(t, 10000, cfg.Worker.ChunkSize)
	assert.True(t, cfg.Worker.Background)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
cache:
  dir: /tmp/trieidx
  primary: none
  compression: lz4
  text_fallback: false
  quota_bytes: 1024
worker:
  background: false
  chunk_size: 500
search:
  limit: 25
  return_fields: [name, city]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/trieidx", cfg.Cache.Dir)
	assert.Equal(t, PrimaryNone, cfg.Cache.Primary)
	assert.Equal(t, "lz4", cfg.Cache.Compression)
	assert.False(t, cfg.Cache.TextFallback)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, int64(1024), cfg.Cache.QuotaBytes)
	assert.False(t, cfg.Worker.Background)
	assert.Equal(t, 500, cfg.Worker.ChunkSize)
	assert.Equal(t, 25, cfg.Search.Limit)
	assert.Equal(t, []string{"name", "city"}, cfg.Search.ReturnFields)
	assert.Equal(t, "/tmp/trieidx/cache.db", cfg.Cache.SQLiteFile())
	assert.Equal(t, "/tmp/trieidx/blobs", cfg.Cache.FallbackDir())

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Cache.Dir, cfg.Cache.Dir)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "log: [not, a, map]"))
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "trie-cache", cfg.Cache.Namespace)
	assert.Equal(t, PrimarySQLite, cfg.Cache.Primary)
	assert.Equal(t, 10000, cfg.Worker.ChunkSize)
	assert.Equal(t, int64(1), cfg.Worker.MaxBackground)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TRIEIDX_LOG_LEVEL", "warn")
	t.Setenv("TRIEIDX_CACHE_PRIMARY", "minio")
	t.Setenv("TRIEIDX_MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("TRIEIDX_MINIO_BUCKET", "tries")
	t.Setenv("TRIEIDX_MINIO_SECURE", "true")
	t.Setenv("TRIEIDX_CACHE_QUOTA_BYTES", "2048")
	t.Setenv("TRIEIDX_WORKER_CHUNK_SIZE", "7")
	t.Setenv("TRIEIDX_SEARCH_OFFLOAD", "1")
	t.Setenv("TRIEIDX_SEARCH_RETURN_FIELDS", "name,id")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, PrimaryMinIO, cfg.Cache.Primary)
	assert.Equal(t, "localhost:9000", cfg.Cache.MinIO.Endpoint)
	assert.True(t, cfg.Cache.MinIO.Secure)
	assert.Equal(t, int64(2048), cfg.Cache.QuotaBytes)
	assert.Equal(t, 7, cfg.Worker.ChunkSize)
	assert.True(t, cfg.Search.Offload)
	assert.Equal(t, []string{"name", "id"}, cfg.Search.ReturnFields)
}

func TestApplyEnvOverrides_DynamoDB(t *testing.T) {
	t.Setenv("TRIEIDX_CACHE_PRIMARY", "dynamodb")
	t.Setenv("TRIEIDX_DYNAMODB_TABLE", "trieidx-cache")
	t.Setenv("TRIEIDX_DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("TRIEIDX_DYNAMODB_MAX_ITEM_BYTES", "1024")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, PrimaryDynamoDB, cfg.Cache.Primary)
	assert.Equal(t, "trieidx-cache", cfg.Cache.DynamoDB.Table)
	assert.Equal(t, "http://localhost:8000", cfg.Cache.DynamoDB.Endpoint)
	assert.Equal(t, 1024, cfg.Cache.DynamoDB.MaxItemBytes)
}

func TestApplyEnvOverrides_Invalid(t *testing.T) {
	t.Setenv("TRIEIDX_WORKER_CHUNK_SIZE", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "TRIEIDX_WORKER_CHUNK_SIZE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"compression", func(c *Config) { c.Cache.Compression = "brotli" }, "cache.compression"},
		{"codec", func(c *Config) { c.Cache.Codec = "gob" }, "cache.codec"},
		{"quota", func(c *Config) { c.Cache.QuotaBytes = -1 }, "quota_bytes"},
		{"primary", func(c *Config) { c.Cache.Primary = "redis" }, "cache.primary"},
		{"s3 bucket", func(c *Config) { c.Cache.Primary = PrimaryS3 }, "cache.s3.bucket"},
		{"minio", func(c *Config) { c.Cache.Primary = PrimaryMinIO }, "cache.minio"},
		{"dynamodb", func(c *Config) { c.Cache.Primary = PrimaryDynamoDB }, "cache.dynamodb.table"},
		{"dynamodb item", func(c *Config) {
			c.Cache.Primary = PrimaryDynamoDB
			c.Cache.DynamoDB.Table = "t"
			c.Cache.DynamoDB.MaxItemBytes = -1
		}, "max_item_bytes"},
		{"chunk", func(c *Config) { c.Worker.ChunkSize = -5 }, "chunk_size"},
		{"limit", func(c *Config) { c.Search.Limit = -1 }, "search.limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
