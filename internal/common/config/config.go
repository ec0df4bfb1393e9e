// Package config loads a2adesk configuration from config files, environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Chat     ChatConfig     `mapstructure:"chat"`
	A2A      A2AConfig      `mapstructure:"a2a"`
	MCP      MCPConfig      `mapstructure:"mcp"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// DatabaseConfig selects and configures the settings store.
// Driver is "sqlite" (default, file at Path) or "postgres".
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
	MinConns int    `mapstructure:"minConns"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-memory bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ChatConfig configures the upstream completion endpoint.
type ChatConfig struct {
	BaseURL           string  `mapstructure:"baseUrl"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	StreamTemperature float32 `mapstructure:"streamTemperature"`
	StreamMaxTokens   int     `mapstructure:"streamMaxTokens"`
	RateLimitRPM      int     `mapstructure:"rateLimitRpm"` // per client IP; 0 disables
}

// A2AConfig configures outbound agent calls.
type A2AConfig struct {
	RequestTimeout int `mapstructure:"requestTimeout"` // in seconds
	CardCacheSize  int `mapstructure:"cardCacheSize"`
	CardCacheTTL   int `mapstructure:"cardCacheTtl"` // in seconds
}

// MCPConfig configures the embedded MCP server.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns the A2A request timeout.
func (a *A2AConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(a.RequestTimeout) * time.Second
}

// CardCacheTTLDuration returns the agent card cache TTL.
func (a *A2AConfig) CardCacheTTLDuration() time.Duration {
	return time.Duration(a.CardCacheTTL) * time.Second
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("A2ADESK_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "a2adesk.db"
	}
	return filepath.Join(home, ".a2adesk", "a2adesk.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 0) // streaming responses hold the socket

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", defaultDatabasePath())
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "a2adesk")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "a2adesk")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.minConns", 1)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "a2adesk")
	v.SetDefault("nats.maxReconnects", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	v.SetDefault("chat.baseUrl", "https://api.deepseek.com/v1")
	v.SetDefault("chat.model", "deepseek-chat")
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("chat.streamTemperature", 0.3)
	v.SetDefault("chat.streamMaxTokens", 4000)
	v.SetDefault("chat.rateLimitRpm", 60)

	v.SetDefault("a2a.requestTimeout", 120)
	v.SetDefault("a2a.cardCacheSize", 64)
	v.SetDefault("a2a.cardCacheTtl", 300)

	v.SetDefault("mcp.enabled", true)
	v.SetDefault("mcp.port", 8766)
}

// Load reads configuration from the default locations.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from configPath (if set), the working
// directory and $HOME/.a2adesk. Environment variables use the A2ADESK_ prefix.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("A2ADESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not split camelCase keys.
	_ = v.BindEnv("database.dbName", "A2ADESK_DATABASE_DB_NAME")
	_ = v.BindEnv("chat.baseUrl", "A2ADESK_CHAT_BASE_URL")
	_ = v.BindEnv("chat.rateLimitRpm", "A2ADESK_CHAT_RATE_LIMIT_RPM")
	_ = v.BindEnv("mcp.port", "A2ADESK_MCP_PORT")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".a2adesk"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite", "sqlite3":
		if cfg.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case "postgres", "pgx":
		if cfg.Database.Host == "" {
			errs = append(errs, "database.host is required for the postgres driver")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required for the postgres driver")
		}
	default:
		errs = append(errs, "database.driver must be one of: sqlite, postgres")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if cfg.Chat.BaseURL == "" {
		errs = append(errs, "chat.baseUrl is required")
	}
	if cfg.Chat.Model == "" {
		errs = append(errs, "chat.model is required")
	}
	if cfg.Chat.RateLimitRPM < 0 {
		errs = append(errs, "chat.rateLimitRpm must not be negative")
	}

	if cfg.A2A.RequestTimeout <= 0 {
		errs = append(errs, "a2a.requestTimeout must be positive")
	}

	if cfg.MCP.Enabled && (cfg.MCP.Port <= 0 || cfg.MCP.Port > 65535) {
		errs = append(errs, "mcp.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
