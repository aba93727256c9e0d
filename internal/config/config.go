// Package config loads dothost configuration from an optional YAML file,
// .env files and DOTHOST_* environment variables.
//
// Precedence (highest first): environment, .env.local, .env, config file,
// defaults. Nested keys map to variables by upper-casing and replacing dots
// with underscores, e.g. registrar.api_key -> DOTHOST_REGISTRAR_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/benithors/dothost/internal/pricing"
)

const EnvPrefix = "DOTHOST"

// Config is read once at startup and passed by value afterwards.
type Config struct {
	Registrar RegistrarConfig `mapstructure:"registrar"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Suggest   SuggestConfig   `mapstructure:"suggest"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type RegistrarConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
}

type PricingConfig struct {
	// ExchangeRate is local currency units per source currency unit.
	ExchangeRate float64 `mapstructure:"exchange_rate"`
	// ProfitMargin is a fraction: 0.10 means 10%.
	ProfitMargin float64 `mapstructure:"profit_margin"`
	// FallbackPrice is the source-currency estimate used wherever the
	// registrar omits a price.
	FallbackPrice  float64 `mapstructure:"fallback_price"`
	SourceCurrency string  `mapstructure:"source_currency"`
	LocalCurrency  string  `mapstructure:"local_currency"`
}

// Converter builds the pricing converter for these settings.
func (c PricingConfig) Converter() (pricing.Converter, error) {
	return pricing.New(c.ExchangeRate, c.ProfitMargin)
}

type SuggestConfig struct {
	DefaultTLD    string   `mapstructure:"default_tld"`
	MaxResults    int      `mapstructure:"max_results"`
	MaxCandidates int      `mapstructure:"max_candidates"`
	ProbePrefixes []string `mapstructure:"probe_prefixes"`
	ProbeSuffixes []string `mapstructure:"probe_suffixes"`
	// TLDPriority overrides the built-in ranking list when non-empty.
	TLDPriority []string `mapstructure:"tld_priority"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registrar.base_url", "https://api.domainnameapi.example/api/v1")
	v.SetDefault("registrar.api_key", "")
	v.SetDefault("registrar.timeout", 15*time.Second)
	v.SetDefault("registrar.requests_per_second", 5.0)
	v.SetDefault("registrar.burst", 2)
	v.SetDefault("registrar.max_concurrent", 4)

	v.SetDefault("pricing.exchange_rate", 1500.0)
	v.SetDefault("pricing.profit_margin", 0.10)
	v.SetDefault("pricing.fallback_price", 12.99)
	v.SetDefault("pricing.source_currency", "USD")
	v.SetDefault("pricing.local_currency", "NGN")

	v.SetDefault("suggest.default_tld", "com")
	v.SetDefault("suggest.max_results", 20)
	v.SetDefault("suggest.max_candidates", 6)
	v.SetDefault("suggest.probe_prefixes", []string{"get", "my"})
	v.SetDefault("suggest.probe_suffixes", []string{"online", "hq"})
	v.SetDefault("suggest.tld_priority", []string{})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 45*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	cfg.normalize()
	return cfg
}

// Load reads path (optional; "" searches ./dothost.yaml) and applies .env
// files and environment overrides, then validates the result.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("dothost")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// godotenv never overrides variables that are already set.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Registrar.BaseURL = strings.TrimRight(strings.TrimSpace(c.Registrar.BaseURL), "/")
	c.Registrar.APIKey = strings.TrimSpace(c.Registrar.APIKey)
	c.Suggest.DefaultTLD = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Suggest.DefaultTLD)), ".")
	c.Suggest.ProbePrefixes = cleanList(c.Suggest.ProbePrefixes)
	c.Suggest.ProbeSuffixes = cleanList(c.Suggest.ProbeSuffixes)
	c.Suggest.TLDPriority = cleanList(c.Suggest.TLDPriority)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks values every command depends on. Credentials are checked
// separately by RequireCredentials since offline commands do not need them.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Pricing.Converter(); err != nil {
		errs = append(errs, err)
	}
	if c.Pricing.FallbackPrice < 0 {
		errs = append(errs, fmt.Errorf("pricing.fallback_price must be non-negative"))
	}
	if c.Registrar.BaseURL == "" {
		errs = append(errs, fmt.Errorf("registrar.base_url is required"))
	}
	if c.Registrar.Timeout <= 0 || c.Registrar.Timeout > 2*time.Minute {
		errs = append(errs, fmt.Errorf("registrar.timeout must be in (0, 2m], got %s", c.Registrar.Timeout))
	}
	if c.Suggest.DefaultTLD == "" {
		errs = append(errs, fmt.Errorf("suggest.default_tld is required"))
	}
	if c.Suggest.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("suggest.max_results must be positive"))
	}
	return errors.Join(errs...)
}

// RequireCredentials reports whether registrar calls can be made.
func (c Config) RequireCredentials() error {
	if c.Registrar.APIKey == "" {
		return fmt.Errorf("missing registrar API key (set %s_REGISTRAR_API_KEY)", EnvPrefix)
	}
	return nil
}
