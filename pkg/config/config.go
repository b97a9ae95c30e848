package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App             AppConfig
	Cloudinary      CloudinaryConfig
	Media           MediaConfig
	Mongo           MongoConfig
	DB              DBConfig
	Redis           RedisConfig
	JWT             JWTConfig
	GCP             GCPConfig
	PubSub          PubSubConfig
	FeatureFlags    FeatureFlagsConfig
	UploadRateLimit UploadRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELVETROW_APP_ENV" default:"dev"`
	Port         string `envconfig:"VELVETROW_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VELVETROW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELVETROW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CloudinaryConfig carries the asset-store credentials. All three are
// required before uploads can be signed; the validation service reports a
// missing value as unhealthy rather than crashing at startup.
type CloudinaryConfig struct {
	CloudName  string `envconfig:"VELVETROW_CLOUDINARY_CLOUD_NAME"`
	APIKey     string `envconfig:"VELVETROW_CLOUDINARY_API_KEY"`
	APISecret  string `envconfig:"VELVETROW_CLOUDINARY_API_SECRET"`
	RootFolder string `envconfig:"VELVETROW_CLOUDINARY_ROOT_FOLDER" default:"velvetrow"`
}

type MediaConfig struct {
	MaxUploadBytes     int64 `envconfig:"VELVETROW_MEDIA_MAX_UPLOAD_BYTES" default:"10485760"`
	MaxFilesPerRequest int   `envconfig:"VELVETROW_MEDIA_MAX_FILES" default:"10"`
}

type MongoConfig struct {
	URI      string `envconfig:"VELVETROW_MONGO_URI"`
	Database string `envconfig:"VELVETROW_MONGO_DATABASE" default:"velvetrow"`
}

type DBConfig struct {
	DSN    string `envconfig:"VELVETROW_DB_DSN"`
	Driver string `envconfig:"VELVETROW_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"VELVETROW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VELVETROW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VELVETROW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VELVETROW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELVETROW_REDIS_URL"`
	Address      string        `envconfig:"VELVETROW_REDIS_ADDR"`
	Password     string        `envconfig:"VELVETROW_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELVETROW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELVETROW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELVETROW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELVETROW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELVETROW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELVETROW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VELVETROW_JWT_SECRET"`
	Issuer            string `envconfig:"VELVETROW_JWT_ISSUER" default:"velvetrow"`
	ExpirationMinutes int    `envconfig:"VELVETROW_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"VELVETROW_GCP_PROJECT_ID"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VELVETROW_AUTO_MIGRATE" default:"false"`
}

type UploadRateLimitConfig struct {
	Window    time.Duration `envconfig:"VELVETROW_UPLOAD_RATE_WINDOW" default:"1m"`
	IPLimit   int           `envconfig:"VELVETROW_UPLOAD_RATE_IP_LIMIT" default:"60"`
	UserLimit int           `envconfig:"VELVETROW_UPLOAD_RATE_USER_LIMIT" default:"30"`
}

type PubSubConfig struct {
	MediaEventsTopic  string `envconfig:"VELVETROW_PUBSUB_MEDIA_EVENTS_TOPIC" default:"vr-media-events"`
	PurgeSubscription string `envconfig:"VELVETROW_PUBSUB_MEDIA_PURGE_SUBSCRIPTION"`
}
