package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	gatewayConfig "github.com/iurnickita/scpclient/internal/gateway/config"
	loggerConfig "github.com/iurnickita/scpclient/internal/logger/config"
	pollerConfig "github.com/iurnickita/scpclient/internal/poller/config"
	storageConfig "github.com/iurnickita/scpclient/internal/storage/config"
)

const (
	AppMobile = "mobile"
	AppWeb    = "web"
)

const (
	defaultServer   = "http://localhost:8000"
	defaultTimeout  = 10 * time.Second
	defaultLogLevel = "warn"
	defaultInterval = 3 * time.Second
)

var ErrUnknownApp = errors.New("unknown application profile")

type Config struct {
	App     string               `yaml:"app"`
	Gateway gatewayConfig.Config `yaml:"gateway"`
	Storage storageConfig.Config `yaml:"storage"`
	Poller  pollerConfig.Config  `yaml:"poller"`
	Logger  loggerConfig.Config  `yaml:"logger"`
}

// GetConfig собирает конфигурацию: значения по умолчанию, затем yaml-файл,
// затем переменные окружения SCP_*, затем флаги. Возвращает аргументы,
// оставшиеся после флагов.
func GetConfig(args []string) (Config, []string, error) {
	fs := flag.NewFlagSet("scpclient", flag.ContinueOnError)
	app := fs.String("app", "", "application profile: mobile|web")
	server := fs.String("server", "", "backend base URL")
	storageKind := fs.String("storage", "", "session storage: memory|file|redis|postgres")
	storagePath := fs.String("storage-path", "", "session file for -storage file")
	logLevel := fs.String("log-level", "", "log level")
	configFile := fs.String("config", "", "yaml config file")
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	cfg := Config{}

	path := os.Getenv("SCP_CONFIG")
	if *configFile != "" {
		path = *configFile
	}
	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return Config{}, nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return Config{}, nil, err
	}

	// флаги
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "app":
			cfg.App = *app
		case "server":
			cfg.Gateway.BaseURL = *server
		case "storage":
			cfg.Storage.Kind = *storageKind
		case "storage-path":
			cfg.Storage.Path = *storagePath
		case "log-level":
			cfg.Logger.LogLevel = *logLevel
		}
	})

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SCP_APP"); v != "" {
		c.App = v
	}
	if v := os.Getenv("SCP_SERVER"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("SCP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCP_TIMEOUT: %w", err)
		}
		c.Gateway.Timeout = d
	}
	if v := os.Getenv("SCP_CLEAR_SESSION_ON_UNAUTHORIZED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCP_CLEAR_SESSION_ON_UNAUTHORIZED: %w", err)
		}
		c.Gateway.ClearSessionOnUnauthorized = b
	}
	if v := os.Getenv("SCP_STORAGE"); v != "" {
		c.Storage.Kind = v
	}
	if v := os.Getenv("SCP_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SCP_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("SCP_DB_DSN"); v != "" {
		c.Storage.DBDsn = v
	}
	if v := os.Getenv("SCP_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCP_POLL_INTERVAL: %w", err)
		}
		c.Poller.Interval = d
	}
	if v := os.Getenv("SCP_LOG_LEVEL"); v != "" {
		c.Logger.LogLevel = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App == "" {
		c.App = AppMobile
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = defaultServer
	}
	c.Gateway.BaseURL = strings.TrimRight(c.Gateway.BaseURL, "/")
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = defaultTimeout
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = storageConfig.KindFile
	}
	if c.Storage.Kind == storageConfig.KindFile && c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath(c.App)
	}
	// у каждого приложения свои ключи
	if c.Storage.Namespace == "" {
		c.Storage.Namespace = "scpclient:" + c.App
	}
	if c.Poller.Interval == 0 {
		c.Poller.Interval = defaultInterval
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaultLogLevel
	}
}

func (c *Config) Validate() error {
	switch c.App {
	case AppMobile, AppWeb:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownApp, c.App)
	}
	if c.Gateway.Timeout < 0 || c.Poller.Interval < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// DefaultStoragePath is the session file of the profile under the user
// config directory.
func DefaultStoragePath(app string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".scpclient-" + app + ".json"
	}
	return filepath.Join(dir, "scpclient", app+".json")
}
