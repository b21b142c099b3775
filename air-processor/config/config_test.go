package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		Kafka: KafkaConfig{
			Broker: "localhost:9092",
			Topic:  "airquality-object-events",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			User:     "airquality_user",
			Database: "airquality_db",
		},
		Redis: RedisConfig{
			Host: "localhost",
		},
		Minio: MinioConfig{
			Endpoint: "localhost:9000",
			Bucket:   "fetch_aqicn",
		},
		Merge: MergeConfig{
			Interval: time.Hour,
			Timeout:  10 * time.Minute,
			LeaseTTL: 15 * time.Minute,
		},
	}
}

func TestLoadConfig(t *testing.T) {
	originalBroker := os.Getenv("KAFKA_BROKER")
	originalTopic := os.Getenv("KAFKA_OBJECT_TOPIC")
	originalPostgresHost := os.Getenv("POSTGRES_HOST")
	originalRedisHost := os.Getenv("REDIS_HOST")
	originalBucket := os.Getenv("MINIO_BUCKET")
	originalInterval := os.Getenv("MERGE_INTERVAL")
	originalPolicy := os.Getenv("MERGE_CITY_UPDATE_POLICY")

	defer func() {
		os.Setenv("KAFKA_BROKER", originalBroker)
		os.Setenv("KAFKA_OBJECT_TOPIC", originalTopic)
		os.Setenv("POSTGRES_HOST", originalPostgresHost)
		os.Setenv("REDIS_HOST", originalRedisHost)
		os.Setenv("MINIO_BUCKET", originalBucket)
		os.Setenv("MERGE_INTERVAL", originalInterval)
		os.Setenv("MERGE_CITY_UPDATE_POLICY", originalPolicy)
	}()

	configContent := `
app:
  name: "air-processor-test"
  env: "test"
  log_level: "debug"
  port: 8181
  shutdown_timeout: "15s"

kafka:
  broker: "localhost:9092"
  topic: "object-events-test"
  group_id: "air-processor-test-group"
  consumer_timeout: "2m"
  max_retries: 5

postgres:
  host: "localhost"
  port: 5433
  user: "test_user"
  password: "test_pass"
  database: "test_db"
  ssl_mode: "disable"
  max_connections: 5
  min_connections: 1
  connection_timeout: "10s"

redis:
  host: "localhost"
  port: 6380
  password: "test_redis"
  db: 1
  timeout: "2s"

minio:
  endpoint: "localhost:9000"
  access_key: "test-access"
  secret_key: "test-secret"
  bucket: "test-bucket"
  use_ssl: false
  timeout: "10s"

merge:
  interval: "30m"
  timeout: "5m"
  lease_ttl: "10m"
  update_city_on_conflict: true
  stale_run_threshold: "20m"

api:
  base_path: "/api/v1"
  enable_metrics: false
  rate_limit: 50
  rate_limit_window: "30s"

healthcheck:
  timeout: "5s"
  interval: "15s"
  startup_delay: "10s"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	os.Chdir(tmpDir)

	t.Run("load from file", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "air-processor-test", cfg.App.Name)
		assert.Equal(t, "test", cfg.App.Env)
		assert.Equal(t, "debug", cfg.App.LogLevel)
		assert.Equal(t, 8181, cfg.App.Port)
		assert.Equal(t, 15*time.Second, cfg.App.ShutdownTimeout)

		assert.Equal(t, "localhost:9092", cfg.Kafka.Broker)
		assert.Equal(t, "object-events-test", cfg.Kafka.Topic)
		assert.Equal(t, "air-processor-test-group", cfg.Kafka.GroupID)
		assert.Equal(t, 2*time.Minute, cfg.Kafka.ConsumerTimeout)
		assert.Equal(t, 5, cfg.Kafka.MaxRetries)

		assert.Equal(t, "localhost", cfg.Postgres.Host)
		assert.Equal(t, 5433, cfg.Postgres.Port)
		assert.Equal(t, "test_user", cfg.Postgres.User)
		assert.Equal(t, "test_db", cfg.Postgres.Database)
		assert.Equal(t, 5, cfg.Postgres.MaxConnections)

		assert.Equal(t, "localhost", cfg.Redis.Host)
		assert.Equal(t, 6380, cfg.Redis.Port)
		assert.Equal(t, 1, cfg.Redis.DB)

		assert.Equal(t, "localhost:9000", cfg.Minio.Endpoint)
		assert.Equal(t, "test-bucket", cfg.Minio.Bucket)

		assert.Equal(t, 30*time.Minute, cfg.Merge.Interval)
		assert.Equal(t, 5*time.Minute, cfg.Merge.Timeout)
		assert.Equal(t, 10*time.Minute, cfg.Merge.LeaseTTL)
		assert.True(t, cfg.Merge.UpdateCityOnConflict)
		assert.Equal(t, 20*time.Minute, cfg.Merge.StaleRunThreshold)

		assert.Equal(t, "/api/v1", cfg.API.BasePath)
		assert.False(t, cfg.API.EnableMetrics)
		assert.Equal(t, 50, cfg.API.RateLimit)

		assert.Equal(t, 5*time.Second, cfg.HealthCheck.Timeout)
		assert.Equal(t, 15*time.Second, cfg.HealthCheck.Interval)
	})

	t.Run("override with environment variables", func(t *testing.T) {
		os.Setenv("KAFKA_BROKER", "env-broker:9092")
		os.Setenv("KAFKA_OBJECT_TOPIC", "env-topic")
		os.Setenv("POSTGRES_HOST", "env-postgres")
		os.Setenv("REDIS_HOST", "env-redis")
		os.Setenv("MINIO_BUCKET", "env-bucket")
		os.Setenv("MERGE_INTERVAL", "45m")
		os.Setenv("MERGE_CITY_UPDATE_POLICY", "all")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "env-broker:9092", cfg.Kafka.Broker)
		assert.Equal(t, "env-topic", cfg.Kafka.Topic)
		assert.Equal(t, "env-postgres", cfg.Postgres.Host)
		assert.Equal(t, "env-redis", cfg.Redis.Host)
		assert.Equal(t, "env-bucket", cfg.Minio.Bucket)
		assert.Equal(t, 45*time.Minute, cfg.Merge.Interval)
		assert.True(t, cfg.Merge.UpdateCityOnConflict)
	})
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "air-processor", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.App.Port)

	assert.Equal(t, "airquality-object-events", cfg.Kafka.Topic)
	assert.Equal(t, "air-processor-group", cfg.Kafka.GroupID)

	assert.Equal(t, "airquality_db", cfg.Postgres.Database)
	assert.Equal(t, 20, cfg.Postgres.MaxConnections)

	assert.Equal(t, "fetch_aqicn", cfg.Minio.Bucket)

	assert.Equal(t, time.Hour, cfg.Merge.Interval)
	assert.Equal(t, 15*time.Minute, cfg.Merge.LeaseTTL)
	assert.False(t, cfg.Merge.UpdateCityOnConflict)

	assert.True(t, cfg.API.EnableMetrics)
	assert.Equal(t, 100, cfg.API.RateLimit)
}

func TestValidateConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		err := validateConfig(validTestConfig())
		assert.NoError(t, err)
	})

	t.Run("missing Kafka broker", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Kafka.Broker = ""

		err := validateConfig(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "kafka broker list must not be empty")
	})

	t.Run("missing Kafka topic", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Kafka.Topic = ""

		err := validateConfig(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "kafka topic must not be empty")
	})

	t.Run("missing Postgres host", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Postgres.Host = ""

		err := validateConfig(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "postgres host must not be empty")
	})

	t.Run("missing Redis host", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Redis.Host = ""

		err := validateConfig(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis host must not be empty")
	})

	t.Run("missing Minio bucket", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Minio.Bucket = ""

		err := validateConfig(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "minio bucket must not be empty")
	})

	t.Run("zero merge interval", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Merge.Interval = 0

		err := validateConfig(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "merge interval must be positive")
	})

	t.Run("negative merge interval", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Merge.Interval = -time.Minute

		err := validateConfig(cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "merge interval must be positive")
	})
}

func TestValidateConfig_AllValidations(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(cfg *Config)
		wantErr     bool
		errContains string
	}{
		{
			name:        "missing Kafka broker",
			mutate:      func(cfg *Config) { cfg.Kafka.Broker = "" },
			wantErr:     true,
			errContains: "kafka broker list must not be empty",
		},
		{
			name:        "missing Kafka topic",
			mutate:      func(cfg *Config) { cfg.Kafka.Topic = "" },
			wantErr:     true,
			errContains: "kafka topic must not be empty",
		},
		{
			name:        "missing Postgres host",
			mutate:      func(cfg *Config) { cfg.Postgres.Host = "" },
			wantErr:     true,
			errContains: "postgres host must not be empty",
		},
		{
			name:        "missing Postgres user",
			mutate:      func(cfg *Config) { cfg.Postgres.User = "" },
			wantErr:     true,
			errContains: "postgres user must not be empty",
		},
		{
			name:        "missing Postgres database",
			mutate:      func(cfg *Config) { cfg.Postgres.Database = "" },
			wantErr:     true,
			errContains: "postgres database must not be empty",
		},
		{
			name:        "missing Redis host",
			mutate:      func(cfg *Config) { cfg.Redis.Host = "" },
			wantErr:     true,
			errContains: "redis host must not be empty",
		},
		{
			name:        "missing Minio endpoint",
			mutate:      func(cfg *Config) { cfg.Minio.Endpoint = "" },
			wantErr:     true,
			errContains: "minio endpoint must not be empty",
		},
		{
			name:        "missing Minio bucket",
			mutate:      func(cfg *Config) { cfg.Minio.Bucket = "" },
			wantErr:     true,
			errContains: "minio bucket must not be empty",
		},
		{
			name:        "zero merge interval",
			mutate:      func(cfg *Config) { cfg.Merge.Interval = 0 },
			wantErr:     true,
			errContains: "merge interval must be positive",
		},
		{
			name:        "zero merge timeout",
			mutate:      func(cfg *Config) { cfg.Merge.Timeout = 0 },
			wantErr:     true,
			errContains: "merge timeout must be positive",
		},
		{
			name:        "negative lease TTL",
			mutate:      func(cfg *Config) { cfg.Merge.LeaseTTL = -time.Second },
			wantErr:     true,
			errContains: "merge lease TTL must be positive",
		},
		{
			name:    "all valid",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(cfg)

			err := validateConfig(cfg)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_WithInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `invalid yaml: : : :`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	os.Chdir(tmpDir)

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_UnmarshalError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
merge:
  interval: "invalid-duration"
  timeout: "5m"
  lease_ttl: "10m"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	os.Chdir(tmpDir)

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "unmarshal")
}
