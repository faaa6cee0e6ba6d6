package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Export    ExportConfig    `mapstructure:"export"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`

	// set from command line flags
	MigrateOnly bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig controls the rotating JSON log. An empty Level follows
// server.mode.
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// DatabaseConfig selects the gorm dialect. Type "sqlite" uses Path, anything
// else is treated as mysql.
type DatabaseConfig struct {
	Type      string `mapstructure:"type"`
	Path      string `mapstructure:"path"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

// ExportConfig drives exam document generation. It is read once at startup
// and never mutated afterwards.
type ExportConfig struct {
	MediaURL        string        `mapstructure:"media_url"`
	MediaRoot       string        `mapstructure:"media_root"`
	PandocPath      string        `mapstructure:"pandoc_path"`
	PandocServerURL string        `mapstructure:"pandoc_server_url"`
	PDFEngine       string        `mapstructure:"pdf_engine"`
	Timeout         time.Duration `mapstructure:"timeout_seconds"`
	Institution     string        `mapstructure:"institution"`
	MathDPI         float64       `mapstructure:"math_dpi"`
	MathFontSize    float64       `mapstructure:"math_font_size"`
	NativeFallback  bool          `mapstructure:"native_fallback"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.type", "mysql")
	v.SetDefault("database.path", "question_bank.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "media")
	v.SetDefault("export.media_url", "/media/")
	v.SetDefault("export.media_root", "media")
	v.SetDefault("export.pandoc_path", "pandoc")
	v.SetDefault("export.timeout_seconds", 60)
	v.SetDefault("export.institution", "INSTITUTO FEDERAL – Sistema de Avaliação")
	v.SetDefault("export.math_dpi", 200)
	v.SetDefault("export.math_font_size", 14)
	v.SetDefault("export.native_fallback", true)
	v.SetDefault("rate_limit.max_requests", 1000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("log.file", "logs/question_bank.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
}

// LoadConfig reads config.yaml from path. A missing file is tolerated so the
// service can run from defaults and QBANK_* environment variables alone.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("QBANK")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.type", "QBANK_DATABASE_TYPE")
	v.BindEnv("database.path", "QBANK_DATABASE_PATH")
	v.BindEnv("database.host", "QBANK_DATABASE_HOST")
	v.BindEnv("database.port", "QBANK_DATABASE_PORT")
	v.BindEnv("database.user", "QBANK_DATABASE_USER")
	v.BindEnv("database.password", "QBANK_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "QBANK_DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "QBANK_JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "QBANK_REDIS_ENABLED")
	v.BindEnv("redis.host", "QBANK_REDIS_HOST")
	v.BindEnv("redis.port", "QBANK_REDIS_PORT")
	v.BindEnv("redis.password", "QBANK_REDIS_PASSWORD")

	// Server
	v.BindEnv("server.port", "QBANK_SERVER_PORT")
	v.BindEnv("server.mode", "QBANK_SERVER_MODE")

	// Storage
	v.BindEnv("storage.type", "QBANK_STORAGE_TYPE")
	v.BindEnv("storage.local_path", "QBANK_STORAGE_LOCAL_PATH")
	v.BindEnv("storage.oss_endpoint", "QBANK_OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "QBANK_OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "QBANK_OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "QBANK_OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "QBANK_MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "QBANK_MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "QBANK_MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "QBANK_MINIO_BUCKET")

	// Export
	v.BindEnv("export.media_root", "QBANK_MEDIA_ROOT")
	v.BindEnv("export.pandoc_path", "QBANK_PANDOC_PATH")
	v.BindEnv("export.pandoc_server_url", "QBANK_PANDOC_SERVER_URL")
	v.BindEnv("export.pdf_engine", "QBANK_PDF_ENGINE")
	v.BindEnv("export.native_fallback", "QBANK_EXPORT_NATIVE_FALLBACK")

	// Log
	v.BindEnv("log.file", "QBANK_LOG_FILE")
	v.BindEnv("log.level", "QBANK_LOG_LEVEL")

	// Tracing
	v.BindEnv("tracing.enabled", "QBANK_TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "QBANK_TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Export.Timeout = cfg.Export.Timeout * time.Second

	// release mode requires a strong JWT secret
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
