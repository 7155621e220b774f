package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is used for the XDG config path and env prefix.
const AppName = "sheetmatch"

const defaultMaxUploadBytes = 32 << 20

var (
	// ErrInvalidPort indicates a port outside 1-65535.
	ErrInvalidPort = errors.New("server port must be between 1 and 65535")
	// ErrInvalidUploadLimit indicates a non-positive upload limit.
	ErrInvalidUploadLimit = errors.New("max upload bytes must be positive")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log level must be debug, info, warn or error")
	// ErrInvalidLogFormat indicates an unknown log format.
	ErrInvalidLogFormat = errors.New("log format must be text or json")
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	MCP    MCPConfig    `yaml:"mcp"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// DBConfig selects the session store. ":memory:" keeps sessions for the process lifetime only.
type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		DB: DBConfig{
			Path: ":memory:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		MCP: MCPConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// The file is SHEETMATCH_CONFIG_PATH when set, else sheetmatch/config.yaml under the
// XDG config directories when present.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("SHEETMATCH_CONFIG_PATH")
	if path == "" {
		if found, err := xdg.SearchConfigFile(AppName + "/config.yaml"); err == nil {
			path = found
		}
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFile reads configuration from the given YAML file and environment variables.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := loadFromFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration and returns the first problem found.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return ErrInvalidUploadLimit
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("SHEETMATCH_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("SHEETMATCH_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid SHEETMATCH_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if limit := os.Getenv("SHEETMATCH_MAX_UPLOAD_BYTES"); limit != "" {
		n, err := strconv.ParseInt(limit, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SHEETMATCH_MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.Server.MaxUploadBytes = n
	}
	if dbPath := os.Getenv("SHEETMATCH_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("SHEETMATCH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("SHEETMATCH_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if enabled := os.Getenv("SHEETMATCH_MCP_ENABLED"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid SHEETMATCH_MCP_ENABLED: %w", err)
		}
		cfg.MCP.Enabled = b
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
