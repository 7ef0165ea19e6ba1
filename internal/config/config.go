package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "FITCOMP"

// minAccessTTL matches the lead the terminal client refreshes tokens with.
const minAccessTTL = time.Minute

type Config struct {
	Server     `mapstructure:"server"`
	Database   `mapstructure:"database"`
	Session    `mapstructure:"session"`
	Jwt        `mapstructure:"jwt"`
	Classifier `mapstructure:"classifier"`
	App        `mapstructure:"app"`
	Log        `mapstructure:"log"`
}

type Server struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Session struct {
	Secret string `mapstructure:"secret"`
}

type Jwt struct {
	HS256_SECRET string        `mapstructure:"hs256_secret"`
	AccessTTL    time.Duration `mapstructure:"access_ttl"`
	RefreshTTL   time.Duration `mapstructure:"refresh_ttl"`
}

// Classifier describes how to reach the model sidecar and which artifact it serves.
type Classifier struct {
	Backend   string        `mapstructure:"backend"`
	Addr      string        `mapstructure:"addr"`
	ModelPath string        `mapstructure:"model_path"`
	MaxLength int           `mapstructure:"max_length"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type App struct {
	Timezone string `mapstructure:"timezone"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "fitness_companion.db")

	v.SetDefault("session.secret", "change-me")

	v.SetDefault("jwt.hs256_secret", "change-me-too")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("classifier.backend", "grpc")
	v.SetDefault("classifier.addr", "localhost:50051")
	v.SetDefault("classifier.model_path", "./roberta_model")
	v.SetDefault("classifier.max_length", 128)
	v.SetDefault("classifier.timeout", "10s")

	v.SetDefault("app.timezone", "Local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads path (YAML) on top of the defaults and lets FITCOMP_* environment
// variables override both. A .env file in the working directory is loaded first.
// A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = "config.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Classifier.Backend {
	case "grpc", "http":
	default:
		return fmt.Errorf("unsupported classifier backend %q", c.Classifier.Backend)
	}

	if c.Classifier.MaxLength <= 0 {
		return fmt.Errorf("classifier.max_length must be positive, got %d", c.Classifier.MaxLength)
	}

	if c.Session.Secret == "" || c.Jwt.HS256_SECRET == "" {
		return errors.New("session.secret and jwt.hs256_secret must be set")
	}

	if c.Jwt.AccessTTL <= minAccessTTL {
		return fmt.Errorf("jwt.access_ttl must be longer than %s, got %s", minAccessTTL, c.Jwt.AccessTTL)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves app.timezone. Streak days are counted in this zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid app.timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
