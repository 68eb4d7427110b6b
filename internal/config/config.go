// Package config handles the XDG configuration directory, the config file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the config filename inside the config directory.
	ConfigFile = "config.yaml"

	// OAuthClientFile is the OAuth client credentials filename (googletasks backend).
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename (googletasks backend).
	TokenFile = "token.json"

	// DatabaseFile is the default SQLite database filename.
	DatabaseFile = "todo.db"

	// LogFile receives logs while the interactive UI owns the terminal.
	LogFile = "todo.log"

	// EnvPrefix prefixes every environment override, e.g. TODO_API_URL.
	EnvPrefix = "TODO"
)

// Backend names.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
	BackendSQLite      = "sqlite"
	BackendMemory      = "memory"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `mapstructure:"-"`

	// Debug enables debug logging.
	Debug bool `mapstructure:"-"`

	// Quiet suppresses informational output.
	Quiet bool `mapstructure:"-"`

	// Backend selects the remote task store implementation.
	Backend string `mapstructure:"backend" validate:"oneof=rest googletasks sqlite memory"`

	// APIURL is the task collection endpoint of the rest backend.
	APIURL string `mapstructure:"api_url" validate:"required_if=Backend rest"`

	// Timeout bounds every store call. Zero disables it.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// DBPath is the sqlite backend database file. Empty means <Dir>/todo.db.
	DBPath string `mapstructure:"db_path"`

	// LogLevel is the logrus level name.
	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`

	// Listen is the address `todo serve` binds to.
	Listen string `mapstructure:"listen" validate:"required"`

	// RateLimit throttles `todo serve` requests.
	RateLimit RateLimit `mapstructure:"rate_limit"`
}

// RateLimit configures the store server's token bucket. RPS 0 disables limiting.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

// Defaults returns the built-in configuration for dir.
func Defaults(dir string) *Config {
	return &Config{
		Dir:      dir,
		Backend:  BackendREST,
		APIURL:   "http://localhost:5000/api/todos",
		Timeout:  5 * time.Second,
		LogLevel: "warn",
		Listen:   ":5000",
		RateLimit: RateLimit{
			RPS:   10,
			Burst: 20,
		},
	}
}

// New creates a Config for the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
// Values come from defaults, then <dir>/config.yaml, then TODO_* environment variables.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := Defaults(dir)
	if err := cfg.load(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) load() error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("backend", c.Backend)
	v.SetDefault("api_url", c.APIURL)
	v.SetDefault("timeout", c.Timeout)
	v.SetDefault("db_path", c.DBPath)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("listen", c.Listen)
	v.SetDefault("rate_limit.rps", c.RateLimit.RPS)
	v.SetDefault("rate_limit.burst", c.RateLimit.Burst)

	if _, err := os.Stat(c.FilePath()); err == nil {
		v.SetConfigFile(c.FilePath())
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	}

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to the config file.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// DatabasePath returns the sqlite database path.
func (c *Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.Dir, DatabaseFile)
}

// LogPath returns the path of the UI log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// fileView is the YAML shape of Config, with the timeout as a duration string.
type fileView struct {
	Backend   string    `yaml:"backend"`
	APIURL    string    `yaml:"api_url"`
	Timeout   string    `yaml:"timeout"`
	DBPath    string    `yaml:"db_path"`
	LogLevel  string    `yaml:"log_level"`
	Listen    string    `yaml:"listen"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

// YAML returns the effective configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(fileView{
		Backend:   c.Backend,
		APIURL:    c.APIURL,
		Timeout:   c.Timeout.String(),
		DBPath:    c.DatabasePath(),
		LogLevel:  c.LogLevel,
		Listen:    c.Listen,
		RateLimit: c.RateLimit,
	})
}
