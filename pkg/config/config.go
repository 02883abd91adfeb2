package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	LogSQL      bool   `mapstructure:"log_sql"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	SessionSecret string        `mapstructure:"session_secret"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

// Loader owns the viper instance so the file can be watched after the first load.
type Loader struct {
	v *viper.Viper
}

const devSecret = "dev-insecure-secret-change"

// legacyEnv maps the variable names used by older deployments onto config keys.
var legacyEnv = map[string]string{
	"database.dsn":          "DB_DSN",
	"database.auto_migrate": "DB_AUTO_MIGRATE",
	"auth.jwt_secret":       "JWT_SECRET",
}

// Load reads .env (without overriding the environment), then the optional
// config file at path, then CASHFLOW_* environment overrides.
// An empty path looks for config.yaml in the working directory.
func Load(path string) (*Config, *Loader, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix("CASHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, "CASHFLOW_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	l := &Loader{v: v}
	cfg, err := l.decode()
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8081")
	v.SetDefault("server.mode", "")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_sql", false)
	v.SetDefault("auth.jwt_secret", devSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.refresh_ttl", 30*24*time.Hour)
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("upload.max_bytes", 5*1024*1024)
}

func (l *Loader) decode() (*Config, error) {
	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Auth.SessionSecret == "" {
		c.Auth.SessionSecret = c.Auth.JWTSecret
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	return nil
}

// InsecureSecret reports whether the development fallback secret is in use.
func (c *Config) InsecureSecret() bool {
	return c.Auth.JWTSecret == devSecret
}

// Watch re-reads the config file on every change and hands the result to fn.
// Nothing happens when no config file was found.
func (l *Loader) Watch(fn func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			log.Printf("config reload %s ignored: %v", e.Name, err)
			return
		}
		log.Printf("config reloaded from %s", e.Name)
		fn(cfg)
	})
	l.v.WatchConfig()
}
