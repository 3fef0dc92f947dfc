package config

import (
	"fmt"
	"os"
	"strings"

	httpapi "github.com/jekabolt/grbpwr-reports/internal/api/http"
	"github.com/jekabolt/grbpwr-reports/internal/auth/jwt"
	"github.com/jekabolt/grbpwr-reports/internal/oms"
	"github.com/jekabolt/grbpwr-reports/internal/ratelimit"
	"github.com/jekabolt/grbpwr-reports/internal/resync"
	"github.com/jekabolt/grbpwr-reports/internal/store"
	"github.com/jekabolt/grbpwr-reports/log"
	"github.com/spf13/viper"
)

// Config represents the global configuration for the service.
type Config struct {
	DB        store.Config     `mapstructure:"mysql"`
	Logger    log.Config       `mapstructure:"logger"`
	HTTP      httpapi.Config   `mapstructure:"http"`
	Auth      jwt.Config       `mapstructure:"auth"`
	OMS       oms.Config       `mapstructure:"oms"`
	Resync    resync.Config    `mapstructure:"resync"`
	RateLimit ratelimit.Config `mapstructure:"rate_limit"`
}

// LoadConfig loads the configuration from a file and/or environment variables.
// Environment variables take precedence over config file values.
// Env vars use underscores and uppercase, e.g., MYSQL_DSN, AUTH_JWT_SECRET
// Nested config keys use double underscore, e.g., MYSQL__DSN for mysql.dsn
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.AutomaticEnv()
	// e.g., mysql.dsn -> MYSQL__DSN, auth.jwt_secret -> AUTH__JWT_SECRET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))

	setDefaults(v)
	bindEnvVars(v)

	// Try to read config file (optional - can work with env vars only)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %v", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/config/grbpwr-reports")
		v.AddConfigPath("/etc/grbpwr-reports")
		_ = v.ReadInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config into struct: %v", err)
	}

	if config.DB.DSN == "" {
		config.DB.DSN = dsnFromEnv()
	}

	return &config, nil
}

// dsnFromEnv assembles the MySQL DSN from MYSQL_* or DigitalOcean's db.* env vars.
// DATE and DATETIME columns are scanned into time.Time, so parseTime is always set.
func dsnFromEnv() string {
	var mysqlHost, mysqlPort, mysqlUser, mysqlPassword, mysqlDatabase string

	if dbHost := os.Getenv("db.HOSTNAME"); dbHost != "" {
		mysqlHost = dbHost
		mysqlPort = os.Getenv("db.PORT")
		mysqlUser = os.Getenv("db.USERNAME")
		mysqlPassword = os.Getenv("db.PASSWORD")
		mysqlDatabase = os.Getenv("db.DATABASE")
	} else {
		mysqlHost = os.Getenv("MYSQL_HOST")
		mysqlPort = os.Getenv("MYSQL_PORT")
		mysqlUser = os.Getenv("MYSQL_USER")
		mysqlPassword = os.Getenv("MYSQL_PASSWORD")
		mysqlDatabase = os.Getenv("MYSQL_DATABASE")
	}

	if mysqlHost == "" || mysqlUser == "" || mysqlPassword == "" || mysqlDatabase == "" {
		return ""
	}
	if mysqlPort == "" {
		mysqlPort = "3306"
	}
	params := "charset=utf8mb4&parseTime=true"
	if os.Getenv("db.CA_CERT") != "" || os.Getenv("MYSQL_TLS_CA_PATH") != "" {
		params += "&tls=custom"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s",
		mysqlUser, mysqlPassword, mysqlHost, mysqlPort, mysqlDatabase, params)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mysql.automigrate", true)
	v.SetDefault("logger.level", 0)
	v.SetDefault("http.port", "8081")
	v.SetDefault("http.address", "0.0.0.0")
	v.SetDefault("auth.jwt_ttl", "24h")
	v.SetDefault("oms.http_timeout", "10s")

	rc := resync.DefaultConfig()
	v.SetDefault("resync.worker_interval", rc.WorkerInterval)
	v.SetDefault("resync.lookback", rc.Lookback)

	lc := ratelimit.DefaultConfig()
	v.SetDefault("rate_limit.ip_per_minute", lc.IPPerMinute)
	v.SetDefault("rate_limit.order_per_minute", lc.OrderPerMinute)
}

// bindEnvVars binds environment variables to config keys
// This allows using both nested keys (MYSQL__DSN) and flat keys (MYSQL_DSN)
func bindEnvVars(v *viper.Viper) {
	// MySQL
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("mysql.automigrate", "MYSQL_AUTOMIGRATE")
	v.BindEnv("mysql.max_open_connections", "MYSQL_MAX_OPEN_CONNECTIONS")
	v.BindEnv("mysql.max_idle_connections", "MYSQL_MAX_IDLE_CONNECTIONS")
	v.BindEnv("mysql.tls_ca_path", "MYSQL_TLS_CA_PATH")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.add_source", "LOG_ADD_SOURCE")

	// HTTP
	v.BindEnv("http.port", "HTTP_PORT")
	v.BindEnv("http.address", "HTTP_ADDRESS")
	v.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")
	v.BindEnv("http.webhook_secret", "HTTP_WEBHOOK_SECRET")
	v.BindEnv("http.request_timeout", "HTTP_REQUEST_TIMEOUT")

	// Auth
	v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	v.BindEnv("auth.jwt_ttl", "AUTH_JWT_TTL")

	// Order management system
	v.BindEnv("oms.base_url", "OMS_BASE_URL")
	v.BindEnv("oms.consumer_key", "OMS_CONSUMER_KEY")
	v.BindEnv("oms.consumer_secret", "OMS_CONSUMER_SECRET")
	v.BindEnv("oms.http_timeout", "OMS_HTTP_TIMEOUT")

	// Resync worker
	v.BindEnv("resync.worker_interval", "RESYNC_WORKER_INTERVAL")
	v.BindEnv("resync.lookback", "RESYNC_LOOKBACK")

	// Webhook rate limits
	v.BindEnv("rate_limit.ip_per_minute", "RATE_LIMIT_IP_PER_MINUTE")
	v.BindEnv("rate_limit.order_per_minute", "RATE_LIMIT_ORDER_PER_MINUTE")
}
