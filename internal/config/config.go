package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

const envPrefix = "USERDIR_"

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	LoadDefault()

	configFile := os.Getenv(envPrefix + "CONFIG_FILE")
	if configFile == "" {
		configFile = "userdir.yaml"
	}

	log.Printf("Attempting to load config file: %s", configFile)

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	if err := ApplyEnvOverrides(); err != nil {
		log.Printf("Failed to apply environment overrides: %v", err)
	}

	log.Printf("Final config - remote: %s, http: %s:%d, activity backend: %s",
		_loaded.Common.Remote.BaseURL,
		_loaded.Common.Http.Host,
		_loaded.Common.Http.Port,
		_loaded.Common.Activity.Backend)
}

// LoadDefault loads the built-in defaults only
func LoadDefault() {
	cfg := defaultConfig
	_loaded = &cfg
}

// LoadFromFile loads configuration from a YAML file merged over the defaults
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// ApplyEnvOverrides overrides loaded values with USERDIR_* environment variables
func ApplyEnvOverrides() error {
	if _loaded == nil {
		return fmt.Errorf("config not loaded - call Load() first")
	}

	cfg := *_loaded
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	_loaded = &cfg
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			MaxRequestSize: 1048576,
		},
		Remote: remoteConfig{
			BaseURL:        "https://jsonplaceholder.typicode.com",
			TimeoutSeconds: 10,
			UpdatePolicy:   "draft",
		},
		Activity: activityConfig{
			Backend:        "memory",
			MaxEntries:     200,
			RetentionHours: 168,
		},
		Postgres: postgresConfig{
			User:               "postgres",
			Password:           "postgres",
			Host:               "localhost",
			Port:               5432,
			Database:           "userdir",
			MaxOpenConnections: 5,
		},
	},
}

type Common struct {
	Log      logConfig      `yaml:"log"`
	Http     httpConfig     `yaml:"http"`
	Remote   remoteConfig   `yaml:"remote"`
	Auth     authConfig     `yaml:"auth"`
	Activity activityConfig `yaml:"activity"`
	Postgres postgresConfig `yaml:"postgres"`
}

type logConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type httpConfig struct {
	Host           string `yaml:"host" env:"HTTP_HOST"`
	Port           int    `yaml:"port" env:"HTTP_PORT"`
	MaxRequestSize int64  `yaml:"max_request_size" env:"HTTP_MAX_REQUEST_SIZE"`
}

type remoteConfig struct {
	BaseURL        string `yaml:"base_url" env:"REMOTE_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"REMOTE_TIMEOUT_SECONDS"` // 0 disables the deadline
	UpdatePolicy   string `yaml:"update_policy" env:"REMOTE_UPDATE_POLICY"`     // "draft" or "response"
}

func (c remoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type authConfig struct {
	APIKey string `yaml:"api_key" env:"API_KEY"` // empty disables API authentication
}

type activityConfig struct {
	Backend        string `yaml:"backend" env:"ACTIVITY_BACKEND"` // "memory" or "postgres"
	MaxEntries     int    `yaml:"max_entries" env:"ACTIVITY_MAX_ENTRIES"`
	RetentionHours int    `yaml:"retention_hours" env:"ACTIVITY_RETENTION_HOURS"`
}

func (c activityConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

type postgresConfig struct {
	User               string `yaml:"user" env:"DB_USER"`
	Password           string `yaml:"password" env:"DB_PASSWORD"`
	Host               string `yaml:"host" env:"DB_HOST"`
	Port               int    `yaml:"port" env:"DB_PORT"`
	Database           string `yaml:"database" env:"DB_NAME"`
	MaxOpenConnections int    `yaml:"max_open_connections" env:"DB_MAX_OPEN_CONNECTIONS"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Remote() remoteConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Remote
}

func Auth() authConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Auth
}

func Activity() activityConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Activity
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}
