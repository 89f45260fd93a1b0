package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Certificate storage drivers.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Analytics     AnalyticsConfig
	Mail          MailConfig
	Notifications NotificationConfig
	Certificates  CertificateConfig
	S3            S3Config
	Realtime      RealtimeConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig governs cache behaviour for analytics endpoints.
type AnalyticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// MailConfig configures outbound SMTP. When disabled, mail is written to the log.
type MailConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	TLS       bool
	Timeout   time.Duration
}

// NotificationConfig tunes the notification worker pool.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// CertificateConfig controls certificate rendering and archiving.
type CertificateConfig struct {
	StorageDriver   string
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	IssuerName      string
	// PublicBaseURL prefixes signed download links served by this API.
	PublicBaseURL   string
}

// S3Config is used when the certificate storage driver is s3.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	PresignTTL      time.Duration
}

// RealtimeConfig toggles the live attendance feed.
type RealtimeConfig struct {
	Enabled     bool
	RedisFanout bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheEnabled: v.GetBool("ANALYTICS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Mail = MailConfig{
		Enabled:   v.GetBool("MAIL_ENABLED"),
		Host:      v.GetString("MAIL_HOST"),
		Port:      v.GetInt("MAIL_PORT"),
		Username:  v.GetString("MAIL_USERNAME"),
		Password:  v.GetString("MAIL_PASSWORD"),
		FromName:  v.GetString("MAIL_FROM_NAME"),
		FromEmail: v.GetString("MAIL_FROM_EMAIL"),
		TLS:       v.GetBool("MAIL_TLS"),
		Timeout:   parseDuration(v.GetString("MAIL_TIMEOUT"), 15*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 5*time.Second),
	}

	driver := strings.ToLower(v.GetString("CERTIFICATE_STORAGE_DRIVER"))
	if driver != StorageDriverS3 {
		driver = StorageDriverLocal
	}
	cfg.Certificates = CertificateConfig{
		StorageDriver:   driver,
		StorageDir:      v.GetString("CERTIFICATE_STORAGE_DIR"),
		SignedURLSecret: v.GetString("CERTIFICATE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("CERTIFICATE_SIGNED_URL_TTL"), 30*time.Minute),
		IssuerName:      v.GetString("CERTIFICATE_ISSUER_NAME"),
		PublicBaseURL:   strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	cfg.S3 = S3Config{
		Region:          v.GetString("S3_REGION"),
		AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		Bucket:          v.GetString("S3_BUCKET"),
		Endpoint:        v.GetString("S3_ENDPOINT"),
		PresignTTL:      parseDuration(v.GetString("S3_PRESIGN_TTL"), 15*time.Minute),
	}

	cfg.Realtime = RealtimeConfig{
		Enabled:     v.GetBool("REALTIME_ENABLED"),
		RedisFanout: v.GetBool("REALTIME_REDIS_FANOUT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_events")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "campus-events-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ANALYTICS_CACHE_ENABLED", true)
	v.SetDefault("ANALYTICS_CACHE_TTL", "5m")

	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("MAIL_HOST", "smtp.ethereal.email")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USERNAME", "")
	v.SetDefault("MAIL_PASSWORD", "")
	v.SetDefault("MAIL_FROM_NAME", "UCEF System")
	v.SetDefault("MAIL_FROM_EMAIL", "noreply@ucef.com")
	v.SetDefault("MAIL_TLS", true)
	v.SetDefault("MAIL_TIMEOUT", "15s")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 256)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "5s")

	v.SetDefault("CERTIFICATE_STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("CERTIFICATE_STORAGE_DIR", "./certificates")
	v.SetDefault("CERTIFICATE_SIGNED_URL_SECRET", "dev_certificate_secret")
	v.SetDefault("CERTIFICATE_SIGNED_URL_TTL", "30m")
	v.SetDefault("CERTIFICATE_ISSUER_NAME", "University Campus Events")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5000")

	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PRESIGN_TTL", "15m")

	v.SetDefault("REALTIME_ENABLED", true)
	v.SetDefault("REALTIME_REDIS_FANOUT", false)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
