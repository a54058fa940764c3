package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys
const (
	HTTPAddr = "HTTP_ADDR"

	DBHost     = "DB_HOST"
	DBPort     = "DB_PORT"
	DBUser     = "DB_USER"
	DBPassword = "DB_PASSWORD"
	DBName     = "DB_NAME"
	DBSSLMode  = "DB_SSLMODE"
	DBMaxConns = "DB_MAX_CONNS"

	MigrationsEnabled = "MIGRATIONS_ENABLED"

	LogMode = "LOG_MODE"

	JWTSecret = "JWT_SECRET"
	JWTTTL    = "JWT_TTL"

	S3Bucket    = "S3_BUCKET"
	S3Region    = "S3_REGION"
	S3Endpoint  = "S3_ENDPOINT"
	S3AccessKey = "S3_ACCESS_KEY"
	S3SecretKey = "S3_SECRET_KEY"
	S3PublicURL = "S3_PUBLIC_URL"

	RedisAddr     = "REDIS_ADDR"
	RedisPassword = "REDIS_PASSWORD"
	RedisDB       = "REDIS_DB"
	RedisChannel  = "REDIS_CHANNEL"
)

type Config struct {
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Migrations bool
	LogMode    string
	Auth       AuthConfig
	S3         S3Config
	Redis      RedisConfig
}

type HTTPConfig struct {
	Addr string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// S3Config points at any S3-compatible backend (AWS, MinIO).
// PublicURL is the prefix used to build object locations returned to clients.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// RedisConfig is optional, an empty Addr disables the redis event publisher.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Load reads .env (if present) into the environment and builds the Config from
// environment variables on top of the defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr: v.GetString(HTTPAddr),
		},
		Database: DatabaseConfig{
			Host:     v.GetString(DBHost),
			Port:     v.GetString(DBPort),
			User:     v.GetString(DBUser),
			Password: v.GetString(DBPassword),
			Name:     v.GetString(DBName),
			SSLMode:  v.GetString(DBSSLMode),
			MaxConns: v.GetInt32(DBMaxConns),
		},
		Migrations: v.GetBool(MigrationsEnabled),
		LogMode:    v.GetString(LogMode),
		Auth: AuthConfig{
			JWTSecret: v.GetString(JWTSecret),
			TokenTTL:  v.GetDuration(JWTTTL),
		},
		S3: S3Config{
			Bucket:    v.GetString(S3Bucket),
			Region:    v.GetString(S3Region),
			Endpoint:  v.GetString(S3Endpoint),
			AccessKey: v.GetString(S3AccessKey),
			SecretKey: v.GetString(S3SecretKey),
			PublicURL: v.GetString(S3PublicURL),
		},
		Redis: RedisConfig{
			Addr:     v.GetString(RedisAddr),
			Password: v.GetString(RedisPassword),
			DB:       v.GetInt(RedisDB),
			Channel:  v.GetString(RedisChannel),
		},
	}
	if cfg.S3.PublicURL == "" && cfg.S3.Endpoint != "" {
		cfg.S3.PublicURL = strings.TrimRight(cfg.S3.Endpoint, "/") + "/" + cfg.S3.Bucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(HTTPAddr, ":9000")

	v.SetDefault(DBHost, "localhost")
	v.SetDefault(DBPort, "5432")
	v.SetDefault(DBUser, "postgres")
	v.SetDefault(DBPassword, "postgres")
	v.SetDefault(DBName, "lots")
	v.SetDefault(DBSSLMode, "disable")
	v.SetDefault(DBMaxConns, 10)

	v.SetDefault(MigrationsEnabled, true)
	v.SetDefault(LogMode, "development")

	v.SetDefault(JWTSecret, "change-me")
	v.SetDefault(JWTTTL, 24*time.Hour)

	v.SetDefault(S3Bucket, "lots")
	v.SetDefault(S3Region, "us-east-1")
	v.SetDefault(S3Endpoint, "http://127.0.0.1:9001")

	v.SetDefault(RedisChannel, "lots:events")
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http address is required")
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return errors.New("database host and name are required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if c.S3.Bucket == "" {
		return errors.New("s3 bucket is required")
	}
	return nil
}
