package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// DefaultSessionSecret is the placeholder secret; the server replaces it at startup.
const DefaultSessionSecret = "change-me-in-production"

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port               string `mapstructure:"port"`
	SessionSecret      string `mapstructure:"session_secret"`
	SecureCookies      bool   `mapstructure:"secure_cookies"`
	LoginRatePerMinute uint   `mapstructure:"login_rate_per_minute"`
}

// AuthConfig holds the bcrypt hashes of the two shared passwords.
type AuthConfig struct {
	AdminPasswordHash  string `mapstructure:"admin_password_hash"`
	ViewerPasswordHash string `mapstructure:"viewer_password_hash"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string            `mapstructure:"driver"` // memory, http or postgres
	HTTP   HTTPStorageConfig `mapstructure:"http"`
}

// HTTPStorageConfig points at the managed key-value backend.
type HTTPStorageConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// RefreshConfig drives the background re-aggregation loop.
type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LLMConfig configures the optional transcript summary.
type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ProtocolConfig points at the seed protocol.
type ProtocolConfig struct {
	File string `mapstructure:"file"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", DefaultSessionSecret)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.login_rate_per_minute", 5)

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.viewer_password_hash", "")

	// Storage defaults
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.http.base_url", "")
	v.SetDefault("storage.http.api_key", "")
	v.SetDefault("storage.http.timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "testons-db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	v.SetDefault("refresh.interval", 30*time.Second)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("protocol.file", "config/protocol.yaml")
}

// Load builds a configuration from defaults, the optional config file and
// TESTONS_* environment variables.
func Load(projectRoot string) (*Config, *viper.Viper, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("TESTONS") // e.g., TESTONS_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}
	return &conf, v, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "postgres":
	case "http":
		if c.Storage.HTTP.BaseURL == "" {
			return fmt.Errorf("storage.http.base_url is required for the http driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("refresh.interval must not be negative")
	}
	return nil
}

// Init initializes the global configuration with Viper and watches the file
// for changes.
func Init(projectRoot string, log *zap.Logger) error {
	conf, v, err := Load(projectRoot)
	if err != nil {
		return err
	}
	Watch(conf, v, log)
	return nil
}

// Watch publishes conf as Conf and swaps in a validated copy whenever the
// file behind v changes.
func Watch(conf *Config, v *viper.Viper, log *zap.Logger) {
	Conf = conf

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var next Config
		if err := v.Unmarshal(&next); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		if err := next.Validate(); err != nil {
			log.Error("Rejected reloaded configuration", zap.Error(err))
			return
		}
		// The session secret is consumed once at startup and may have been generated.
		next.Server.SessionSecret = Conf.Server.SessionSecret
		Conf = &next
	})

	log.Info("Configuration loaded successfully", zap.String("storage", Conf.Storage.Driver))
}
