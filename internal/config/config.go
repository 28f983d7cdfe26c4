// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads holoauth settings from flag defaults, an optional
// YAML file and explicitly set flags, in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/holoauth/internal/session"
	"github.com/holomush/holoauth/internal/xdg"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Defaults.
const (
	DefaultBaseURL   = "http://127.0.0.1:8000"
	DefaultUserAgent = "holoauth"
	DefaultServeAddr = "127.0.0.1:8787"
)

// Config is the complete holoauth configuration.
type Config struct {
	Service ServiceConfig `koanf:"service"`
	Store   StoreConfig   `koanf:"store"`
	Log     LogConfig     `koanf:"log"`
	Serve   ServeConfig   `koanf:"serve"`
}

// ServiceConfig locates the credential service.
type ServiceConfig struct {
	BaseURL string `koanf:"base_url"`
	// Timeout bounds each request. Zero means no timeout.
	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Backend  string         `koanf:"backend"`
	Key      string         `koanf:"key"`
	File     FileConfig     `koanf:"file"`
	Redis    RedisConfig    `koanf:"redis"`
	Postgres PostgresConfig `koanf:"postgres"`
}

// FileConfig configures the file store. An empty path means the XDG state file.
type FileConfig struct {
	Path string `koanf:"path"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// PostgresConfig configures the Postgres store.
type PostgresConfig struct {
	URL string `koanf:"url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// ServeConfig configures the HTTP surface.
type ServeConfig struct {
	Addr string `koanf:"addr"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"base-url":       "service.base_url",
	"timeout":        "service.timeout",
	"user-agent":     "service.user_agent",
	"store":          "store.backend",
	"store-key":      "store.key",
	"store-path":     "store.file.path",
	"redis-addr":     "store.redis.addr",
	"redis-password": "store.redis.password",
	"redis-db":       "store.redis.db",
	"redis-prefix":   "store.redis.prefix",
	"postgres-url":   "store.postgres.url",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"addr":           "serve.addr",
}

// RegisterFlags adds the connection, store and logging flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("base-url", DefaultBaseURL, "credential service base URL")
	flags.Duration("timeout", 0, "per-request timeout (0 disables)")
	flags.String("user-agent", DefaultUserAgent, "User-Agent header for service requests")
	flags.String("store", BackendFile, "session store backend (file, memory, redis, postgres)")
	flags.String("store-key", session.DefaultKey, "key the token is stored under")
	flags.String("store-path", "", "session file path (default $XDG_STATE_HOME/holoauth/session.json)")
	flags.String("redis-addr", "127.0.0.1:6379", "redis address")
	flags.String("redis-password", "", "redis password")
	flags.Int("redis-db", 0, "redis database number")
	flags.String("redis-prefix", session.DefaultRedisPrefix, "redis key prefix")
	flags.String("postgres-url", "", "postgres connection URL")
	flags.String("log-format", "text", "log format (json, text)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
}

// Load builds a Config. path names a YAML file; when empty the XDG config
// file is used if it exists. Explicitly set flags override
// the file; unset flags only supply defaults.
func Load(flags *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		def, err := xdg.ConfigFile()
		if err == nil {
			if _, statErr := os.Stat(def); statErr == nil {
				path = def
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, oops.Code("CONFIG_NOT_FOUND").With("path", path).Wrap(err)
			}
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	cfg.applyDefaults()

	if cfg.Store.Backend == BackendFile && cfg.Store.File.Path == "" {
		p, err := xdg.SessionFile()
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "resolve session file").Wrap(err)
		}
		cfg.Store.File.Path = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = DefaultBaseURL
	}
	if c.Service.UserAgent == "" {
		c.Service.UserAgent = DefaultUserAgent
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.Key == "" {
		c.Store.Key = session.DefaultKey
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = session.DefaultRedisPrefix
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
}

var postgresURL = regexp.MustCompile(`^postgres(ql)?://`)

// Validate checks the configuration and returns a CONFIG_INVALID error
// listing every offending field.
func (c Config) Validate() error {
	err := validation.Errors{
		"service": c.Service.Validate(),
		"store":   c.Store.Validate(),
		"log":     c.Log.Validate(),
		"serve":   c.Serve.Validate(),
	}.Filter()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return nil
}

// Validate implements validation.Validatable.
func (s ServiceConfig) Validate() error {
	//nolint:wrapcheck // field errors are collected by Config.Validate
	return validation.ValidateStruct(&s,
		validation.Field(&s.BaseURL, validation.Required, is.URL, validation.By(httpScheme)),
		validation.Field(&s.Timeout, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable. Backend-specific fields are
// only checked for the selected backend.
//
//nolint:wrapcheck // field errors are collected by Config.Validate
func (s StoreConfig) Validate() error {
	if err := validation.ValidateStruct(&s,
		validation.Field(&s.Backend, validation.Required,
			validation.In(BackendFile, BackendMemory, BackendRedis, BackendPostgres)),
		validation.Field(&s.Key, validation.Required),
	); err != nil {
		return err
	}

	switch s.Backend {
	case BackendFile:
		return validation.ValidateStruct(&s.File,
			validation.Field(&s.File.Path, validation.Required))
	case BackendRedis:
		return validation.ValidateStruct(&s.Redis,
			validation.Field(&s.Redis.Addr, validation.Required, validation.By(hostPort)),
			validation.Field(&s.Redis.DB, validation.Min(0)),
		)
	case BackendPostgres:
		return validation.ValidateStruct(&s.Postgres,
			validation.Field(&s.Postgres.URL, validation.Required,
				validation.Match(postgresURL).Error("must be a postgres:// URL")),
		)
	}
	return nil
}

// Validate implements validation.Validatable.
func (l LogConfig) Validate() error {
	//nolint:wrapcheck // collected by Config.Validate
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.Required, validation.In("json", "text")),
		validation.Field(&l.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// Validate implements validation.Validatable.
func (s ServeConfig) Validate() error {
	//nolint:wrapcheck // collected by Config.Validate
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required, validation.By(hostPort), validation.By(loopback)),
	)
}

func httpScheme(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return errors.New("must use http or https")
	}
	return nil
}

func hostPort(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(s); err != nil {
		return errors.New("must be host:port")
	}
	return nil
}

func loopback(value any) error {
	s, _ := value.(string)
	host, _, err := net.SplitHostPort(s)
	if err != nil {
		return nil //nolint:nilerr // reported by hostPort
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return errors.New("must be a loopback address")
}
