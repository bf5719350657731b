package lib

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/logging"
)

// --- Constants ---

// ConfigFileName is the name of the optional config file looked up in the
// user's home directory.
const ConfigFileName = ".sha256sum.yaml"

// Environment variables that override values from the config file.
const (
	EnvLogLevel    = "SHA256SUM_LOG_LEVEL"
	EnvBufferSize  = "SHA256SUM_BUFFER_SIZE"
	EnvRateLimit   = "SHA256SUM_RATE_LIMIT"
	EnvMetricsFile = "SHA256SUM_METRICS_FILE"
)

// --- Types ---

// Config holds settings for the sha256sum shell. Precedence, lowest first:
// defaults, config file, environment, command-line flags (applied by the CLI).
type Config struct {
	LogLevel    string `yaml:"log_level"`
	BufferSize  int    `yaml:"buffer_size"`
	RateLimit   int    `yaml:"rate_limit"` // bytes per second, 0 = unlimited
	MetricsFile string `yaml:"metrics_file"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "warn",
		BufferSize: DefaultBufferSize,
	}
}

// DefaultConfigPath returns $HOME/.sha256sum.yaml, or "" when the home
// directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ConfigFileName)
}

// LoadConfig builds a Config from defaults, the YAML file at path and the
// environment. An explicit path must exist; with an empty path the default
// location is used if a file is there.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		if err := readConfigFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, apperrors.Wrap(apperrors.ErrCodeConfig,
					fmt.Sprintf("cannot load config %s", path), err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, apperrors.Wrap(apperrors.ErrCodeConfig, "invalid configuration", err)
	}
	return cfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvMetricsFile); ok {
		cfg.MetricsFile = v
	}
	if v, ok := os.LookupEnv(EnvBufferSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a number", EnvBufferSize)
		}
		cfg.BufferSize = n
	}
	if v, ok := os.LookupEnv(EnvRateLimit); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a number", EnvRateLimit)
		}
		cfg.RateLimit = n
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.BufferSize < 0 {
		return errors.New("buffer_size must not be negative")
	}
	if c.BufferSize > MaxBufferSize {
		return fmt.Errorf("buffer_size must not exceed %d bytes", MaxBufferSize)
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must not be negative")
	}
	return nil
}

// HashOptions converts the config into options for HashFile and ChunkFile.
func (c Config) HashOptions(metrics *Metrics) HashOptions {
	return HashOptions{
		BufferSize:     c.BufferSize,
		BytesPerSecond: c.RateLimit,
		Metrics:        metrics,
	}
}
