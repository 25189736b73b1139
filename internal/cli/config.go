package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the flagctl configuration, read from flagctl.yaml, FLAGCTL_*
// environment variables, and command-line flags, in increasing precedence.
type Config struct {
	// Declarations is the path of the YAML declaration file.
	Declarations string `mapstructure:"declarations"`

	Redis   RedisConfig   `mapstructure:"redis"`
	Token   TokenConfig   `mapstructure:"token"`
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics enables registry counters; bench prints them when set.
	Metrics bool `mapstructure:"metrics"`
}

// RedisConfig locates the flag set store.
type RedisConfig struct {
	// Addr is host:port. Empty means commands that need Redis fail, except
	// bench, which starts miniredis.
	Addr   string        `mapstructure:"addr"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// TokenConfig configures token issue and verify.
type TokenConfig struct {
	// Passphrase is stretched into the HS256 key.
	Passphrase string        `mapstructure:"passphrase"`
	TTL        time.Duration `mapstructure:"ttl"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
}

// LoggingConfig selects the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("declarations", "flags.yaml")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.prefix", "gf")
	v.SetDefault("redis.ttl", "0s")
	v.SetDefault("token.passphrase", "")
	v.SetDefault("token.ttl", "15m")
	v.SetDefault("token.issuer", "flagctl")
	v.SetDefault("token.audience", "")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("metrics", false)
}

// newViper returns a viper instance with defaults and environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FLAGCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the optional config file into v and decodes it.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("flagctl")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Redis.TTL < 0 {
		return errors.New("redis.ttl must be >= 0")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token.ttl must be > 0")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
