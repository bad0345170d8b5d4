package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Race      RaceConfig      `yaml:"race"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type TransportConfig struct {
	// Mode is "stdio" or "http".
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// BootstrapKey, when set, is registered for BootstrapOperator on start.
	BootstrapKey      string `yaml:"bootstrap_key"`
	BootstrapOperator string `yaml:"bootstrap_operator"`
}

type RaceConfig struct {
	MinWaitSeconds   int `yaml:"min_wait_seconds"`
	AutoStartSeconds int `yaml:"auto_start_seconds"`
}

// MinWait is the lobby wait for the first joiner.
func (c RaceConfig) MinWait() time.Duration {
	return time.Duration(c.MinWaitSeconds) * time.Second
}

// AutoStart is the countdown once the minimum roster is reached.
func (c RaceConfig) AutoStart() time.Duration {
	return time.Duration(c.AutoStartSeconds) * time.Second
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Driver: DriverSQLite,
			Path:   "racekeeper.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			BootstrapOperator: "operator",
		},
		Race: RaceConfig{
			MinWaitSeconds:   300,
			AutoStartSeconds: 60,
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// and environment variables, in that order.
func Load() (Config, error) {
	envFile := os.Getenv("RACEKEEPER_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already set in the process.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("RACEKEEPER_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("RACEKEEPER_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := envInt("RACEKEEPER_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if driver := os.Getenv("RACEKEEPER_DB_DRIVER"); driver != "" {
		cfg.DB.Driver = driver
	}
	if dbPath := os.Getenv("RACEKEEPER_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("RACEKEEPER_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("RACEKEEPER_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if mode := os.Getenv("RACEKEEPER_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("RACEKEEPER_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid RACEKEEPER_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if key := os.Getenv("RACEKEEPER_BOOTSTRAP_KEY"); key != "" {
		cfg.Auth.BootstrapKey = key
	}
	if err := envInt("RACEKEEPER_MIN_WAIT_SECONDS", &cfg.Race.MinWaitSeconds); err != nil {
		return err
	}
	return envInt("RACEKEEPER_AUTO_START_SECONDS", &cfg.Race.AutoStartSeconds)
}

func envInt(name string, dst *int) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = v
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverBadger:
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	if c.Race.MinWaitSeconds <= 0 || c.Race.AutoStartSeconds <= 0 {
		return fmt.Errorf("race timers must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
