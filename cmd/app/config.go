package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	cacheBackendRedis  = "redis"
	cacheBackendMemory = "memory"
)

type DBConfig struct {
	Host         string        `mapstructure:"POSTGRES_HOST"`
	Port         string        `mapstructure:"POSTGRES_PORT"`
	User         string        `mapstructure:"POSTGRES_USER"`
	Password     string        `mapstructure:"POSTGRES_PASSWORD"`
	Name         string        `mapstructure:"POSTGRES_DB"`
	MaxOpenConns int           `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns int           `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	MaxIdleTime  time.Duration `mapstructure:"POSTGRES_MAX_IDLE_TIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type MailConfig struct {
	Host     string `mapstructure:"MAIL_HOST"`
	Port     int    `mapstructure:"MAIL_PORT"`
	User     string `mapstructure:"MAIL_USER"`
	Password string `mapstructure:"MAIL_PASSWORD"`
	Sender   string `mapstructure:"MAIL_SENDER"`
}

// RabbitMQConfig is optional; without a host no events are published and no
// mail is sent.
type RabbitMQConfig struct {
	Host     string `mapstructure:"RABBITMQ_HOST"`
	Port     string `mapstructure:"RABBITMQ_PORT"`
	User     string `mapstructure:"RABBITMQ_USER"`
	Password string `mapstructure:"RABBITMQ_PASSWORD"`
}

type Config struct {
	Port           string `mapstructure:"PORT"`
	Environment    string `mapstructure:"ENVIRONMENT"`
	Version        string `mapstructure:"VERSION"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	BaseURL        string `mapstructure:"BASE_URL"`
	TrustedOrigins string `mapstructure:"TRUSTED_ORIGINS"`
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`
	TLSCertFile    string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string `mapstructure:"TLS_KEY_FILE"`
	CacheBackend   string `mapstructure:"CACHE_BACKEND"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	RateLimitRPM   int    `mapstructure:"RATE_LIMIT_RPM"`

	DB       DBConfig       `mapstructure:",squash"`
	Redis    RedisConfig    `mapstructure:",squash"`
	Mail     MailConfig     `mapstructure:",squash"`
	RabbitMQ RabbitMQConfig `mapstructure:",squash"`
}

var defaults = map[string]any{
	"PORT":                    ":4000",
	"ENVIRONMENT":             "development",
	"VERSION":                 "1.0.0",
	"LOG_LEVEL":               "info",
	"BASE_URL":                "http://localhost:4000",
	"TRUSTED_ORIGINS":         "",
	"TRUSTED_PROXIES":         "",
	"TLS_CERT_FILE":           "",
	"TLS_KEY_FILE":            "",
	"CACHE_BACKEND":           cacheBackendRedis,
	"JWT_SECRET":              "",
	"RATE_LIMIT_RPM":          100,
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "",
	"POSTGRES_PASSWORD":       "",
	"POSTGRES_DB":             "",
	"POSTGRES_MAX_OPEN_CONNS": 25,
	"POSTGRES_MAX_IDLE_CONNS": 25,
	"POSTGRES_MAX_IDLE_TIME":  "15m",
	"REDIS_HOST":              "localhost",
	"REDIS_PORT":              "6379",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"MAIL_HOST":               "",
	"MAIL_PORT":               25,
	"MAIL_USER":               "",
	"MAIL_PASSWORD":           "",
	"MAIL_SENDER":             "",
	"RABBITMQ_HOST":           "",
	"RABBITMQ_PORT":           "5672",
	"RABBITMQ_USER":           "guest",
	"RABBITMQ_PASSWORD":       "guest",
}

// loadConfig reads the env file at path when it exists. Environment variables
// take precedence over the file.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) trustedOrigins() []string {
	return strings.Fields(c.TrustedOrigins)
}

// trustedProxies lists the addresses, single IPs or CIDR ranges, whose
// X-Forwarded-For header is believed.
func (c *Config) trustedProxies() []string {
	return strings.Fields(c.TrustedProxies)
}
