package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	JobAPI    JobAPIConfig
	IdP       IdPConfig
	Archive   ArchiveConfig
	Gateway   GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	CreatePerHour  int
	RefreshPerMin  int
	ProgressPerMin int
	AssignPerHour  int
}

// JobAPIConfig points at the upstream job collection
type JobAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout int // seconds
}

// IdPConfig configures the OIDC identity provider
type IdPConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

// ArchiveConfig configures S3-compatible report archive storage
type ArchiveConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("JOB_API_KEY")
	readSecret("ARCHIVE_ACCESS_KEY_ID")
	readSecret("ARCHIVE_SECRET_ACCESS_KEY")
	readSecret("IDP_CLIENT_ID")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("jobapi.base_url", "JOB_API_BASE_URL")
	_ = viper.BindEnv("jobapi.api_key", "JOB_API_KEY")
	_ = viper.BindEnv("jobapi.timeout", "JOB_API_TIMEOUT")
	_ = viper.BindEnv("idp.domain", "IDP_DOMAIN")
	_ = viper.BindEnv("idp.client_id", "IDP_CLIENT_ID")
	_ = viper.BindEnv("idp.issuer", "IDP_ISSUER")
	_ = viper.BindEnv("archive.endpoint", "ARCHIVE_ENDPOINT")
	_ = viper.BindEnv("archive.region", "ARCHIVE_REGION")
	_ = viper.BindEnv("archive.access_key_id", "ARCHIVE_ACCESS_KEY_ID")
	_ = viper.BindEnv("archive.secret_access_key", "ARCHIVE_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("archive.bucket_name", "ARCHIVE_BUCKET_NAME")
	_ = viper.BindEnv("archive.public_url", "ARCHIVE_PUBLIC_URL")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.create_per_hour", 20)
	viper.SetDefault("ratelimit.refresh_per_min", 30)
	viper.SetDefault("ratelimit.progress_per_min", 60)
	viper.SetDefault("ratelimit.assign_per_hour", 30)

	// Upstream job API defaults
	viper.SetDefault("jobapi.base_url", "http://localhost:8090")
	viper.SetDefault("jobapi.timeout", 30)

	// Archive defaults
	viper.SetDefault("archive.region", "auto")

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			CreatePerHour:  viper.GetInt("ratelimit.create_per_hour"),
			RefreshPerMin:  viper.GetInt("ratelimit.refresh_per_min"),
			ProgressPerMin: viper.GetInt("ratelimit.progress_per_min"),
			AssignPerHour:  viper.GetInt("ratelimit.assign_per_hour"),
		},
		JobAPI: JobAPIConfig{
			BaseURL: viper.GetString("jobapi.base_url"),
			APIKey:  viper.GetString("jobapi.api_key"),
			Timeout: viper.GetInt("jobapi.timeout"),
		},
		IdP: IdPConfig{
			Domain:   viper.GetString("idp.domain"),
			ClientID: viper.GetString("idp.client_id"),
			Issuer:   viper.GetString("idp.issuer"),
		},
		Archive: ArchiveConfig{
			Endpoint:        viper.GetString("archive.endpoint"),
			Region:          viper.GetString("archive.region"),
			AccessKeyID:     viper.GetString("archive.access_key_id"),
			SecretAccessKey: viper.GetString("archive.secret_access_key"),
			BucketName:      viper.GetString("archive.bucket_name"),
			PublicURL:       viper.GetString("archive.public_url"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
