package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	MongoDB     MongoDBConfig
	SQL         SQLConfig
	JWT         JWTConfig
	Admin       AdminConfig
	Assets      AssetsConfig
	Claims      ClaimsConfig
	Broadcast   BroadcastConfig
	LogLevel    string
	LogEncoding string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// SQLConfig holds postgres/mysql configuration
type SQLConfig struct {
	DSN          string
	MaxOpenConns int
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// AdminConfig holds the single admin account. PasswordHash is a bcrypt hash.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// AssetsConfig holds the prize image directories
type AssetsConfig struct {
	VisibleDir  string
	ObscuredDir string
}

// ClaimsConfig holds claim arbitration settings
type ClaimsConfig struct {
	MaxWinners int
	AutoRetire bool
}

// BroadcastConfig holds the prize broadcast schedule
type BroadcastConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load loads configuration from a .env file, an optional config.yaml and
// environment variables. Nested keys map to env vars with "_", e.g.
// CLAIMS_MAXWINNERS.
func Load(paths ...string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations no command can run with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongoDB, DriverPostgres, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if (c.Store.Driver == DriverPostgres || c.Store.Driver == DriverMySQL) && c.SQL.DSN == "" {
		return fmt.Errorf("config: SQL.DSN is required for driver %q", c.Store.Driver)
	}
	if c.Claims.MaxWinners < 1 {
		return fmt.Errorf("config: Claims.MaxWinners must be at least 1, got %d", c.Claims.MaxWinners)
	}
	return nil
}

// ValidateServer adds the checks for settings only the API server reads
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.JWT.Secret == "" {
		return errors.New("config: JWT.Secret is required")
	}
	if c.Broadcast.Enabled && c.Broadcast.Interval <= 0 {
		return errors.New("config: Broadcast.Interval must be positive")
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("Server.ReadTimeout", 15*time.Second)
	v.SetDefault("Server.ShutdownTimeout", 5*time.Second)
	v.SetDefault("Store.Driver", DriverMongoDB)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	v.SetDefault("MongoDB.Database", "prizedrop")
	v.SetDefault("MongoDB.Timeout", 10*time.Second)
	v.SetDefault("SQL.DSN", "")
	v.SetDefault("SQL.MaxOpenConns", 10)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("Admin.Email", "")
	v.SetDefault("Admin.PasswordHash", "")
	v.SetDefault("Assets.VisibleDir", "img")
	v.SetDefault("Assets.ObscuredDir", "hidden_img")
	v.SetDefault("Claims.MaxWinners", 3)
	v.SetDefault("Claims.AutoRetire", true)
	v.SetDefault("Broadcast.Enabled", false)
	v.SetDefault("Broadcast.Interval", time.Hour)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogEncoding", "json")
}
