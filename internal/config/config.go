package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Detection DetectionConfig `mapstructure:"detection"`
	Session   SessionConfig   `mapstructure:"session"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Callback  CallbackConfig  `mapstructure:"callback"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	// APIKeys are the bearer tokens accepted on /api/v1 routes.
	APIKeys []string `mapstructure:"api_keys"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

type DetectionConfig struct {
	// Threshold is the combined score above which a message counts as a scam.
	Threshold float64 `mapstructure:"threshold"`
}

type SessionConfig struct {
	// Timeout is the idle window after which a session expires.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxMessages caps scammer turns before the session auto-completes.
	MaxMessages     int           `mapstructure:"max_messages"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type ProvidersConfig struct {
	Gemini ProviderConfig `mapstructure:"gemini"`
	Groq   ProviderConfig `mapstructure:"groq"`
	Cohere ProviderConfig `mapstructure:"cohere"`
	// Timeout bounds each individual provider call.
	Timeout time.Duration `mapstructure:"timeout"`
}

type ProviderConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type CallbackConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	URL        string        `mapstructure:"url"`
	AuthHeader string        `mapstructure:"auth_header"`
	Workers    int           `mapstructure:"workers"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/honeytrap-lab")
	}

	// Environment variables
	v.SetEnvPrefix("HONEYTRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("server.http_port", "HONEYTRAP_SERVER_HTTP_PORT")
	v.BindEnv("auth.api_keys", "HONEYTRAP_AUTH_API_KEYS")
	v.BindEnv("providers.gemini.api_key", "HONEYTRAP_PROVIDERS_GEMINI_API_KEY")
	v.BindEnv("providers.groq.api_key", "HONEYTRAP_PROVIDERS_GROQ_API_KEY")
	v.BindEnv("providers.cohere.api_key", "HONEYTRAP_PROVIDERS_COHERE_API_KEY")
	v.BindEnv("callback.url", "HONEYTRAP_CALLBACK_URL")
	v.BindEnv("callback.auth_header", "HONEYTRAP_CALLBACK_AUTH_HEADER")
	v.BindEnv("redis.enabled", "HONEYTRAP_REDIS_ENABLED")
	v.BindEnv("redis.host", "HONEYTRAP_REDIS_HOST")
	v.BindEnv("redis.port", "HONEYTRAP_REDIS_PORT")
	v.BindEnv("redis.password", "HONEYTRAP_REDIS_PASSWORD")
	v.BindEnv("redis.tls", "HONEYTRAP_REDIS_TLS")
	v.BindEnv("database.enabled", "HONEYTRAP_DATABASE_ENABLED")
	v.BindEnv("database.host", "HONEYTRAP_DATABASE_HOST")
	v.BindEnv("database.port", "HONEYTRAP_DATABASE_PORT")
	v.BindEnv("database.user", "HONEYTRAP_DATABASE_USER")
	v.BindEnv("database.password", "HONEYTRAP_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "HONEYTRAP_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "HONEYTRAP_DATABASE_SSLMODE")
	v.BindEnv("nats.enabled", "HONEYTRAP_NATS_ENABLED")
	v.BindEnv("nats.url", "HONEYTRAP_NATS_URL")
	v.BindEnv("app.environment", "HONEYTRAP_APP_ENVIRONMENT")

	// Config file is optional; env vars and defaults are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "honeytrap-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_minute", 120)
	v.SetDefault("ratelimit.requests_per_hour", 2000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("detection.threshold", 0.4)

	v.SetDefault("session.timeout", 30*time.Minute)
	v.SetDefault("session.max_messages", 25)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)

	v.SetDefault("providers.gemini.model", "gemini-1.5-flash")
	v.SetDefault("providers.groq.model", "llama-3.1-8b-instant")
	v.SetDefault("providers.cohere.model", "command-r")
	v.SetDefault("providers.timeout", 30*time.Second)

	v.SetDefault("callback.enabled", true)
	v.SetDefault("callback.workers", 2)
	v.SetDefault("callback.max_retries", 3)
	v.SetDefault("callback.timeout", 10*time.Second)

	v.SetDefault("redis.key_prefix", "honeytrap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("nats.stream_name", "HONEYTRAP_SESSIONS")
}
