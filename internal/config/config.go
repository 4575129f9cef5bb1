package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "miniblog.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	BasePath    string   `yaml:"base_path"`
	Runtime     string   `yaml:"runtime"`
	CORSOrigins []string `yaml:"cors_origins"`
	SiteURL     string   `yaml:"site_url"`
	SiteName    string   `yaml:"site_name"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	URL      string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	JWTRefreshSecret string        `yaml:"jwt_refresh_secret"`
	AccessTTL        time.Duration `yaml:"access_ttl"`
	RefreshTTL       time.Duration `yaml:"refresh_ttl"`
	PasswordEncoder  string        `yaml:"password_encoder"`
	PBKDF2           PBKDF2Config  `yaml:"pbkdf2"`
}

type PBKDF2Config struct {
	Secret     string `yaml:"secret"`
	Iterations int    `yaml:"iterations"`
	KeyLength  int    `yaml:"key_length"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
}

// Flags carries command line overrides. Zero values are ignored.
type Flags struct {
	Port        int
	DatabaseURL string
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3000,
			BasePath:    "/api",
			Runtime:     "http",
			CORSOrigins: []string{"*"},
			SiteURL:     "http://localhost:3000",
			SiteName:    "Mini Blog",
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "miniblog",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			JWTSecret:        "your-secret-key",
			JWTRefreshSecret: "your-refresh-secret-key",
			AccessTTL:        24 * time.Hour,
			RefreshTTL:       30 * 24 * time.Hour,
			PasswordEncoder:  "bcrypt",
			PBKDF2: PBKDF2Config{
				Iterations: 10000,
				KeyLength:  64,
			},
		},
		Log: LogConfig{Mode: "dev"},
		Admin: AdminConfig{
			Username: "admin",
			Email:    "admin@miniwordpress.com",
			Password: "password",
			FullName: "Admin User",
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is only an error when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.Expand(string(data), lookupEnv)), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Apply(flags *Flags) {
	if flags == nil {
		return
	}
	if flags.Port != 0 {
		c.Server.Port = flags.Port
	}
	if flags.DatabaseURL != "" {
		c.Database.URL = flags.DatabaseURL
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Server.Runtime {
	case "http", "lambda":
	default:
		return fmt.Errorf("unsupported runtime %q", c.Server.Runtime)
	}
	switch c.Auth.PasswordEncoder {
	case "bcrypt", "pbkdf2":
	default:
		return fmt.Errorf("unsupported password encoder %q", c.Auth.PasswordEncoder)
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTRefreshSecret == "" {
		return errors.New("jwt_secret and jwt_refresh_secret are required")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("access_ttl and refresh_ttl must be positive")
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.BasePath, "BASE_PATH")
	setString(&c.Server.Runtime, "RUNTIME")
	setString(&c.Server.SiteURL, "SITE_URL")
	setString(&c.Server.SiteName, "SITE_NAME")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Database.URL, "DATABASE_URL")
	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	setString(&c.Auth.PasswordEncoder, "PASSWORD_ENCODER")
	setString(&c.Log.Mode, "LOG_MODE")
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lookupEnv(key string) string {
	return os.Getenv(key)
}
