package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// APIConfig holds remote trade-API configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig holds console-local database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// AuthConfig holds session and routing configuration
type AuthConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age"`
	LoginPath    string        `mapstructure:"login_path"`
	LandingPath  string        `mapstructure:"landing_path"`
	DevLogin     bool          `mapstructure:"dev_login"`
}

// UploadConfig holds upload pipeline configuration
type UploadConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxProducts  int           `mapstructure:"max_products"`
	PreviewDir   string        `mapstructure:"preview_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// .env is optional; environment wins over file values either way
	if _, err := os.Stat(".env"); err == nil {
		_ = gotenv.Load(".env")
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("api.timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/console.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("auth.cookie_name", "token")
	viper.SetDefault("auth.cookie_max_age", 24*time.Hour)
	viper.SetDefault("auth.login_path", "/po/login")
	viper.SetDefault("auth.landing_path", "/po/upload")
	viper.SetDefault("auth.dev_login", false)

	viper.SetDefault("upload.poll_interval", time.Second)
	viper.SetDefault("upload.max_products", 6)
	viper.SetDefault("upload.preview_dir", "data/previews")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

func bindEnvVars() {
	viper.BindEnv("api.base_url", "DTX_API_ENDPOINT")
	viper.BindEnv("auth.dev_login", "DTX_DEV_LOGIN")
	viper.BindEnv("database.path", "DTX_DB_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Auth.LoginPath == "" {
		return fmt.Errorf("auth.login_path is required")
	}
	if c.Auth.LandingPath == "" {
		return fmt.Errorf("auth.landing_path is required")
	}
	if c.Upload.PollInterval <= 0 {
		return fmt.Errorf("upload.poll_interval must be positive")
	}
	if c.Upload.MaxProducts < 1 {
		return fmt.Errorf("upload.max_products must be at least 1")
	}
	return nil
}
