// Package config resolves client settings from defaults, the config file,
// a .env file, and the environment. Command-line flags are applied on top by
// the caller.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL     = "http://localhost:8000/api"
	DefaultTimeoutSec = 120
	DefaultRetries    = 2
	DefaultParallel   = 3

	appName  = "bizforge"
	fileName = "config.yaml"
)

// Environment variables.
const (
	EnvConfigDir  = "BIZFORGE_CONFIG_DIR"
	EnvAPIURL     = "BIZFORGE_API_URL"
	EnvTimeoutSec = "BIZFORGE_TIMEOUT_SEC"
	EnvRetries    = "BIZFORGE_RETRIES"
	EnvDataDir    = "BIZFORGE_DATA_DIR"
	EnvVerbose    = "BIZFORGE_VERBOSE"
	EnvJSONLogs   = "BIZFORGE_JSON_LOGS"
	EnvParallel   = "BIZFORGE_PARALLEL"
	EnvIDToken    = "BIZFORGE_ID_TOKEN"
)

type Config struct {
	APIURL     string `yaml:"api_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	Retries    int    `yaml:"retries"`
	DataDir    string `yaml:"data_dir"`
	Verbose    bool   `yaml:"verbose"`
	JSONLogs   bool   `yaml:"json_logs"`
	Parallel   int    `yaml:"parallel"`

	// Dir is the resolved config directory; not read from the file.
	Dir string `yaml:"-"`
}

// Loader carries the lookups Load depends on so tests can replace them.
type Loader struct {
	GetEnv     func(string) string
	DotEnvPath string
	// Override runs after the environment is applied and before validation.
	// Command-line flags are applied here.
	Override func(*Config)
}

// Load resolves configuration using the process environment and ./.env.
func Load() (*Config, error) {
	return Loader{GetEnv: os.Getenv, DotEnvPath: ".env"}.Load()
}

func (l Loader) Load() (*Config, error) {
	getenv := l.GetEnv
	if getenv == nil {
		getenv = os.Getenv
	}

	// Values in .env never override the real environment.
	if l.DotEnvPath != "" {
		dotenv, err := godotenv.Read(l.DotEnvPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", l.DotEnvPath, err)
		}
		if len(dotenv) > 0 {
			real := getenv
			getenv = func(key string) string {
				if v := real(key); v != "" {
					return v
				}
				return dotenv[key]
			}
		}
	}

	dir, err := Dir(getenv)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}

	cfg := Default(dir)
	if err := cfg.readFile(filepath.Join(dir, fileName)); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if l.Override != nil {
		l.Override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default(dir string) *Config {
	return &Config{
		APIURL:     DefaultAPIURL,
		TimeoutSec: DefaultTimeoutSec,
		Retries:    DefaultRetries,
		DataDir:    dir,
		Parallel:   DefaultParallel,
		Dir:        dir,
	}
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error

	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := getenv(EnvTimeoutSec); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", EnvTimeoutSec, err))
		}
		c.TimeoutSec = n
	}
	if v := getenv(EnvRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", EnvRetries, err))
		}
		c.Retries = n
	}
	if v := getenv(EnvParallel); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", EnvParallel, err))
		}
		c.Parallel = n
	}
	if v := getenv(EnvVerbose); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", EnvVerbose, err))
		}
		c.Verbose = b
	}
	if v := getenv(EnvJSONLogs); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", EnvJSONLogs, err))
		}
		c.JSONLogs = b
	}

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url must be an absolute URL (got: %q)", c.APIURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("api_url must use http or https (got: %s)", u.Scheme))
	}
	if c.TimeoutSec <= 0 {
		errs = append(errs, errors.New("timeout_sec must be positive"))
	}
	if c.Retries < 0 || c.Retries > 10 {
		errs = append(errs, errors.New("retries must be between 0 and 10"))
	}
	if c.Parallel < 1 {
		errs = append(errs, errors.New("parallel must be at least 1"))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}
	return nil
}

// Path returns the config file location.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, fileName)
}

// Dir returns the platform config directory for the client.
func Dir(getenv func(string) string) (string, error) {
	if dir := getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, appName), nil
	default:
		configHome := getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, appName), nil
	}
}
