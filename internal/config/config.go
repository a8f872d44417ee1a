// Package config loads application configuration from environment
// variables.  A .env file in the working directory is read first when
// present; real environment variables always win.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.
type Config struct {
	Env       string // application environment (dev, test, prod)
	Port      string // HTTP port to listen on
	LogLevel  string // logrus level name
	LogFormat string // "json" or "text"

	DB        DBConfig
	Redis     RedisConfig
	AMQP      AMQPConfig
	Reaper    ReaperConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// DBConfig holds the MySQL connection settings.
type DBConfig struct {
	User string
	Pass string // optional
	Host string
	Port string
	Name string
}

// AMQPConfig configures the RabbitMQ publisher and the booking log
// consumer.  An empty URL disables both.
type AMQPConfig struct {
	URL            string
	BookingLogPath string
}

// ReaperConfig controls the pending-booking sweep.
type ReaperConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// required lists the variables Load refuses to run without.
var required = []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"}

// Load reads the configuration.  Missing required variables are reported
// together in one error.
func Load() (Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()
	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TLS", false)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("BOOKING_LOG_PATH", "logs/booking.log")

	v.SetDefault("REAPER_INTERVAL", 30*time.Second)
	v.SetDefault("REAPER_STALE_AFTER", 2*time.Minute)

	setCacheDefaults(v)
	setRateLimitDefaults(v)
	return v
}

func load(v *viper.Viper) (Config, error) {
	var missing []string
	for _, k := range required {
		if strings.TrimSpace(v.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	cfg := Config{
		Env:       v.GetString("APP_ENV"),
		Port:      v.GetString("APP_PORT"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		DB: DBConfig{
			User: v.GetString("DB_USER"),
			Pass: v.GetString("DB_PASS"),
			Host: v.GetString("DB_HOST"),
			Port: v.GetString("DB_PORT"),
			Name: v.GetString("DB_NAME"),
		},
		Redis: loadRedis(v),
		AMQP: AMQPConfig{
			URL:            v.GetString("RABBITMQ_URL"),
			BookingLogPath: v.GetString("BOOKING_LOG_PATH"),
		},
		Reaper: ReaperConfig{
			Interval:   v.GetDuration("REAPER_INTERVAL"),
			StaleAfter: v.GetDuration("REAPER_STALE_AFTER"),
		},
		Cache:     loadCache(v),
		RateLimit: loadRateLimit(v),
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
		if cfg.Env == "prod" {
			cfg.LogFormat = "json"
		}
	}
	if cfg.Reaper.Interval <= 0 || cfg.Reaper.StaleAfter <= 0 {
		return Config{}, errors.New("REAPER_INTERVAL and REAPER_STALE_AFTER must be positive durations")
	}
	return cfg, nil
}
