package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	SeedFile string `mapstructure:"seed_file"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds the JWT verification secret. An empty secret disables
// route guarding on the dev backend.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type StorageConfig struct {
	Driver       string `mapstructure:"driver"` // memory, file, mysql or sqlite3
	Path         string `mapstructure:"path"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type CacheConfig struct {
	StaleTime time.Duration `mapstructure:"stale_time"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig loads configuration from an optional config.yaml and WEBTRAY_*
// environment variables. When path is empty the usual locations are searched.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("./")
		v.AddConfigPath("$HOME/.webtray/")
		v.AddConfigPath("/etc/webtray/")
	}

	// WEBTRAY_API_BASE_URL, WEBTRAY_AUTH_JWT_SECRET, ...
	v.SetEnvPrefix("WEBTRAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.seed_file", "")
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "$HOME/.webtray/state")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.max_open_conns", 4)
	v.SetDefault("cache.stale_time", time.Minute)
	v.SetDefault("log.level", "<root>=INFO")
}

// Validate rejects combinations the rest of the program cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	switch c.Storage.Driver {
	case "memory", "file":
	case "mysql", "sqlite3":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	return nil
}

// GuardRoutes reports whether the dev backend should require bearer tokens.
func (c *Config) GuardRoutes() bool {
	return c.Auth.JWTSecret != ""
}
