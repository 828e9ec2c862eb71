package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/commentlens/internal/analyzer"
	"github.com/raysh454/commentlens/internal/cache"
	"github.com/raysh454/commentlens/internal/dom"
	"github.com/raysh454/commentlens/internal/logging"
	"github.com/raysh454/commentlens/internal/poller"
	"github.com/raysh454/commentlens/internal/retry"
	"github.com/raysh454/commentlens/internal/server"
	"github.com/raysh454/commentlens/internal/webclient"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COMMENTLENS_"

// Config is the runtime configuration shared by the binaries.
type Config struct {
	Analyzer  analyzer.Config  `yaml:"analyzer"`
	WebClient webclient.Config `yaml:"webclient"`

	// Poll drives the analysis poll loop; DOMWait the comment header wait.
	Poll    retry.Policy     `yaml:"poll"`
	DOMWait retry.Policy     `yaml:"dom_wait"`
	Chrome  dom.ChromeConfig `yaml:"chrome"`

	Cache   cache.Config   `yaml:"cache"`
	Server  server.Config  `yaml:"server"`
	Logging logging.Config `yaml:"logging"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		Analyzer:  analyzer.DefaultConfig(),
		WebClient: webclient.DefaultConfig(),
		Poll:      poller.DefaultPolicy(),
		DOMWait:   dom.DefaultWaitPolicy(),
		Chrome:    dom.DefaultChromeConfig(),
		Cache:     cache.DefaultConfig(),
		Server:    server.DefaultConfig(),
		Logging:   logging.DefaultConfig(),
	}
}

// LoadConfig starts from DefaultConfig, overlays the YAML file at path (when
// path is non-empty), then COMMENTLENS_* environment variables. A .env file
// in the working directory is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	if err := loadDotenv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat dotenv file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load dotenv file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("ANALYZER_URL", &c.Analyzer.BaseURL)
	dur("HTTP_TIMEOUT", &c.WebClient.Timeout)
	dur("POLL_INTERVAL", &c.Poll.Interval)
	num("POLL_MAX_ATTEMPTS", &c.Poll.MaxAttempts)
	dur("POLL_MAX_ELAPSED", &c.Poll.MaxElapsed)

	backend := string(c.Cache.Backend)
	str("CACHE_BACKEND", &backend)
	c.Cache.Backend = cache.Backend(backend)
	str("SQLITE_PATH", &c.Cache.SQLite.Path)
	str("VALKEY_ADDR", &c.Cache.Valkey.Addr)
	str("VALKEY_PASSWORD", &c.Cache.Valkey.Password)

	str("LISTEN_ADDR", &c.Server.ListenAddr)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_DIR", &c.Logging.Dir)

	return errors.Join(errs...)
}

// Validate checks the fields the binaries cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Analyzer.BaseURL) == "" {
		return errors.New("config: analyzer.base_url is required")
	}
	if err := c.Poll.Validate(); err != nil {
		return fmt.Errorf("config: poll: %w", err)
	}
	if err := c.DOMWait.Validate(); err != nil {
		return fmt.Errorf("config: dom_wait: %w", err)
	}
	return nil
}
