package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/trieidx/codec"
	"github.com/hupe1980/trieidx/internal/compress"
)

// Primary tier kinds.
const (
	PrimarySQLite   = "sqlite"
	PrimaryS3       = "s3"
	PrimaryMinIO    = "minio"
	PrimaryDynamoDB = "dynamodb"
	PrimaryNone     = "none"
)

const envPrefix = "TRIEIDX_"

// Config holds the CLI configuration
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Cache  CacheConfig  `yaml:"cache"`
	Worker WorkerConfig `yaml:"worker"`
	Search SearchConfig `yaml:"search"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// CacheConfig holds the cache tiers
type CacheConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Namespace    string `yaml:"namespace"`
	Dir          string `yaml:"dir"`         // fallback tier root
	Primary      string `yaml:"primary"`     // sqlite, s3, minio, dynamodb, none
	SQLitePath   string `yaml:"sqlite_path"` // defaults to <dir>/cache.db
	Compression  string `yaml:"compression"` // none, lz4, zstd
	Codec        string `yaml:"codec"`       // json, go-json
	QuotaBytes   int64  `yaml:"quota_bytes"` // fallback tier quota, 0 = unlimited
	HotBytes     int64  `yaml:"hot_bytes"`   // in-memory tier, 0 = off
	TextFallback bool   `yaml:"text_fallback"`

	S3       S3Config       `yaml:"s3"`
	MinIO    MinIOConfig    `yaml:"minio"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

// S3Config configures an S3 primary tier
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// MinIOConfig configures a MinIO primary tier
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Secure    bool   `yaml:"secure"`
}

// DynamoDBConfig configures the dynamodb primary tier.
type DynamoDBConfig struct {
	Table        string `yaml:"table"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	MaxItemBytes int    `yaml:"max_item_bytes"` // 0 = store default
}

// WorkerConfig holds executor settings
type WorkerConfig struct {
	Background         bool  `yaml:"background"`
	ChunkSize          int   `yaml:"chunk_size"`
	PoolSize           int   `yaml:"pool_size"`
	MaxBackground      int64 `yaml:"max_background"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
}

// SearchConfig holds search defaults
type SearchConfig struct {
	Limit        int      `yaml:"limit"`
	ReturnFields []string `yaml:"return_fields"`
	Offload      bool     `yaml:"offload"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled:      true,
			Namespace:    "trie-cache",
			Dir:          defaultCacheDir(),
			Primary:      PrimarySQLite,
			Compression:  "zstd",
			Codec:        "go-json",
			QuotaBytes:   64 << 20,
			TextFallback: true,
		},
		Worker: WorkerConfig{
			Background:    true,
			ChunkSize:     10000,
			MaxBackground: 1,
		},
		Search: SearchConfig{
			Limit: 10,
		},
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "trieidx")
	}
	return ".trieidx"
}

// Load reads the configuration.
// Order: DefaultConfig -> file (optional) -> ApplyDefaults -> ApplyEnvOverrides -> Validate
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills in missing values with defaults
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	if c.Cache.Namespace == "" {
		c.Cache.Namespace = d.Cache.Namespace
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = d.Cache.Dir
	}
	if c.Cache.Primary == "" {
		c.Cache.Primary = d.Cache.Primary
	}
	if c.Cache.Compression == "" {
		c.Cache.Compression = d.Cache.Compression
	}
	if c.Cache.Codec == "" {
		c.Cache.Codec = d.Cache.Codec
	}

	if c.Worker.ChunkSize == 0 {
		c.Worker.ChunkSize = d.Worker.ChunkSize
	}
	if c.Worker.MaxBackground == 0 {
		c.Worker.MaxBackground = d.Worker.MaxBackground
	}

	if c.Search.Limit == 0 {
		c.Search.Limit = d.Search.Limit
	}
}

// ApplyEnvOverrides applies TRIEIDX_* environment variable overrides
func (c *Config) ApplyEnvOverrides() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("CACHE_NAMESPACE", &c.Cache.Namespace)
	str("CACHE_DIR", &c.Cache.Dir)
	str("CACHE_PRIMARY", &c.Cache.Primary)
	str("CACHE_SQLITE_PATH", &c.Cache.SQLitePath)
	str("CACHE_COMPRESSION", &c.Cache.Compression)
	str("CACHE_CODEC", &c.Cache.Codec)
	str("S3_BUCKET", &c.Cache.S3.Bucket)
	str("S3_PREFIX", &c.Cache.S3.Prefix)
	str("S3_REGION", &c.Cache.S3.Region)
	str("S3_ENDPOINT", &c.Cache.S3.Endpoint)
	str("MINIO_ENDPOINT", &c.Cache.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Cache.MinIO.AccessKey)
	str("MINIO_SECRET_KEY", &c.Cache.MinIO.SecretKey)
	str("MINIO_BUCKET", &c.Cache.MinIO.Bucket)
	str("MINIO_PREFIX", &c.Cache.MinIO.Prefix)
	str("DYNAMODB_TABLE", &c.Cache.DynamoDB.Table)
	str("DYNAMODB_PREFIX", &c.Cache.DynamoDB.Prefix)
	str("DYNAMODB_REGION", &c.Cache.DynamoDB.Region)
	str("DYNAMODB_ENDPOINT", &c.Cache.DynamoDB.Endpoint)

	for name, dst := range map[string]*bool{
		"CACHE_ENABLED":       &c.Cache.Enabled,
		"CACHE_TEXT_FALLBACK": &c.Cache.TextFallback,
		"MINIO_SECURE":        &c.Cache.MinIO.Secure,
		"WORKER_BACKGROUND":   &c.Worker.Background,
		"SEARCH_OFFLOAD":      &c.Search.Offload,
	} {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = b
		}
	}

	for name, dst := range map[string]*int64{
		"CACHE_QUOTA_BYTES":             &c.Cache.QuotaBytes,
		"CACHE_HOT_BYTES":               &c.Cache.HotBytes,
		"WORKER_MAX_BACKGROUND":         &c.Worker.MaxBackground,
		"WORKER_IO_LIMIT_BYTES_PER_SEC": &c.Worker.IOLimitBytesPerSec,
	} {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = n
		}
	}

	for name, dst := range map[string]*int{
		"WORKER_CHUNK_SIZE":       &c.Worker.ChunkSize,
		"WORKER_POOL_SIZE":        &c.Worker.PoolSize,
		"SEARCH_LIMIT":            &c.Search.Limit,
		"DYNAMODB_MAX_ITEM_BYTES": &c.Cache.DynamoDB.MaxItemBytes,
	} {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv(envPrefix + "SEARCH_RETURN_FIELDS"); v != "" {
		c.Search.ReturnFields = strings.Split(v, ",")
	}

	return nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if _, err := compress.ParseAlgorithm(c.Cache.Compression); err != nil {
		return fmt.Errorf("cache.compression: %w", err)
	}
	if _, ok := codec.ByName(c.Cache.Codec); !ok {
		return fmt.Errorf("cache.codec must be one of %s, got %q", strings.Join(codec.Names(), ", "), c.Cache.Codec)
	}
	if c.Cache.QuotaBytes < 0 {
		return fmt.Errorf("cache.quota_bytes must not be negative")
	}
	if c.Cache.HotBytes < 0 {
		return fmt.Errorf("cache.hot_bytes must not be negative")
	}
	switch c.Cache.Primary {
	case PrimarySQLite, PrimaryNone:
	case PrimaryS3:
		if c.Cache.S3.Bucket == "" {
			return fmt.Errorf("cache.s3.bucket is required for the s3 primary tier")
		}
	case PrimaryMinIO:
		if c.Cache.MinIO.Endpoint == "" || c.Cache.MinIO.Bucket == "" {
			return fmt.Errorf("cache.minio.endpoint and cache.minio.bucket are required for the minio primary tier")
		}
	case PrimaryDynamoDB:
		if c.Cache.DynamoDB.Table == "" {
			return fmt.Errorf("cache.dynamodb.table is required for the dynamodb primary tier")
		}
		if c.Cache.DynamoDB.MaxItemBytes < 0 {
			return fmt.Errorf("cache.dynamodb.max_item_bytes must not be negative")
		}
	default:
		return fmt.Errorf("cache.primary must be one of sqlite, s3, minio, dynamodb, none, got %q", c.Cache.Primary)
	}

	if c.Worker.ChunkSize <= 0 {
		return fmt.Errorf("worker.chunk_size must be positive")
	}
	if c.Worker.MaxBackground < 0 || c.Worker.IOLimitBytesPerSec < 0 {
		return fmt.Errorf("worker limits must not be negative")
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive")
	}

	return nil
}

// SQLiteFile returns the primary tier database path.
func (c *CacheConfig) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.Dir, "cache.db")
}

// FallbackDir returns the root of the fallback tier.
func (c *CacheConfig) FallbackDir() string {
	return filepath.Join(c.Dir, "blobs")
}

// SlogLevel parses the configured level.
func (c *LogConfig) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}
