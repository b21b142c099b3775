package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Minio       MinioConfig
	Merge       MergeConfig
	API         APIConfig
	HealthCheck HealthCheckConfig
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Env             string        `mapstructure:"env"`
	LogLevel        string        `mapstructure:"log_level"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type KafkaConfig struct {
	Broker          string        `mapstructure:"broker"`
	Topic           string        `mapstructure:"topic"`
	GroupID         string        `mapstructure:"group_id"`
	ConsumerTimeout time.Duration `mapstructure:"consumer_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

type PostgresConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConnections    int           `mapstructure:"max_connections"`
	MinConnections    int           `mapstructure:"min_connections"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
}

type RedisConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Password           string        `mapstructure:"password"`
	DB                 int           `mapstructure:"db"`
	PoolSize           int           `mapstructure:"pool_size"`
	MinIdleConnections int           `mapstructure:"min_idle_connections"`
	MaxRetries         int           `mapstructure:"max_retries"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type MinioConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	UseSSL    bool          `mapstructure:"use_ssl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type MergeConfig struct {
	Interval             time.Duration `mapstructure:"interval"`
	Timeout              time.Duration `mapstructure:"timeout"`
	LeaseTTL             time.Duration `mapstructure:"lease_ttl"`
	UpdateCityOnConflict bool          `mapstructure:"update_city_on_conflict"`
	StaleRunThreshold    time.Duration `mapstructure:"stale_run_threshold"`
}

type APIConfig struct {
	BasePath           string        `mapstructure:"base_path"`
	EnableMetrics      bool          `mapstructure:"enable_metrics"`
	CorsAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	RateLimit          int           `mapstructure:"rate_limit"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

type HealthCheckConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/air-processor/")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "air-processor")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("kafka.broker", "kafka:9093")
	v.SetDefault("kafka.topic", "airquality-object-events")
	v.SetDefault("kafka.group_id", "air-processor-group")
	v.SetDefault("kafka.consumer_timeout", "5m")
	v.SetDefault("kafka.max_retries", 3)

	v.SetDefault("postgres.host", "postgres")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "airquality_user")
	v.SetDefault("postgres.password", "airquality_pass")
	v.SetDefault("postgres.database", "airquality_db")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_connections", 20)
	v.SetDefault("postgres.min_connections", 2)
	v.SetDefault("postgres.connection_timeout", "30s")

	v.SetDefault("redis.host", "redis")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "redis_pass")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_connections", 2)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.timeout", "5s")

	v.SetDefault("minio.endpoint", "minio:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin")
	v.SetDefault("minio.bucket", "fetch_aqicn")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.timeout", "30s")

	v.SetDefault("merge.interval", "1h")
	v.SetDefault("merge.timeout", "10m")
	v.SetDefault("merge.lease_ttl", "15m")
	v.SetDefault("merge.update_city_on_conflict", false)
	v.SetDefault("merge.stale_run_threshold", "30m")

	v.SetDefault("api.base_path", "/api/v1")
	v.SetDefault("api.enable_metrics", true)
	v.SetDefault("api.cors_allowed_origins", []string{"*"})
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_limit_window", "1m")

	v.SetDefault("healthcheck.timeout", "10s")
	v.SetDefault("healthcheck.interval", "30s")
	v.SetDefault("healthcheck.startup_delay", "30s")
}

func overrideFromEnv(v *viper.Viper) {
	if broker := os.Getenv("KAFKA_BROKER"); broker != "" {
		v.Set("kafka.broker", broker)
	}
	if topic := os.Getenv("KAFKA_OBJECT_TOPIC"); topic != "" {
		v.Set("kafka.topic", topic)
	}
	if groupID := os.Getenv("KAFKA_GROUP_ID"); groupID != "" {
		v.Set("kafka.group_id", groupID)
	}

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		v.Set("postgres.host", host)
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		v.Set("postgres.user", user)
	}
	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		v.Set("postgres.password", password)
	}
	if database := os.Getenv("POSTGRES_DB"); database != "" {
		v.Set("postgres.database", database)
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("redis.host", host)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("redis.password", password)
	}

	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		v.Set("minio.endpoint", endpoint)
	}
	if accessKey := os.Getenv("MINIO_ACCESS_KEY"); accessKey != "" {
		v.Set("minio.access_key", accessKey)
	}
	if secretKey := os.Getenv("MINIO_SECRET_KEY"); secretKey != "" {
		v.Set("minio.secret_key", secretKey)
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		v.Set("minio.bucket", bucket)
	}

	if interval := os.Getenv("MERGE_INTERVAL"); interval != "" {
		v.Set("merge.interval", interval)
	}
	if policy := os.Getenv("MERGE_CITY_UPDATE_POLICY"); policy != "" {
		v.Set("merge.update_city_on_conflict", strings.EqualFold(policy, "all"))
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		v.Set("app.env", env)
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("app.log_level", logLevel)
	}
}

func validateConfig(cfg *Config) error {
	if len(cfg.Kafka.Broker) == 0 {
		return fmt.Errorf("kafka broker list must not be empty")
	}
	if cfg.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic must not be empty")
	}
	if cfg.Postgres.Host == "" {
		return fmt.Errorf("postgres host must not be empty")
	}
	if cfg.Postgres.User == "" {
		return fmt.Errorf("postgres user must not be empty")
	}
	if cfg.Postgres.Database == "" {
		return fmt.Errorf("postgres database must not be empty")
	}
	if cfg.Redis.Host == "" {
		return fmt.Errorf("redis host must not be empty")
	}
	if cfg.Minio.Endpoint == "" {
		return fmt.Errorf("minio endpoint must not be empty")
	}
	if cfg.Minio.Bucket == "" {
		return fmt.Errorf("minio bucket must not be empty")
	}

	if cfg.Merge.Interval <= 0 {
		return fmt.Errorf("merge interval must be positive")
	}
	if cfg.Merge.Timeout <= 0 {
		return fmt.Errorf("merge timeout must be positive")
	}
	if cfg.Merge.LeaseTTL <= 0 {
		return fmt.Errorf("merge lease TTL must be positive")
	}

	return nil
}
