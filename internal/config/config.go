package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"foosball/pkg/trueskill"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "FOOSBALL_"

// TrueSkill overrides the rating environment, unset values keep the defaults.
type TrueSkill struct {
	Mu              *float64 `json:",omitempty" yaml:"mu,omitempty"`
	Sigma           *float64 `json:",omitempty" yaml:"sigma,omitempty"`
	Beta            *float64 `json:",omitempty" yaml:"beta,omitempty"`
	Tau             *float64 `json:",omitempty" yaml:"tau,omitempty"`
	DrawProbability *float64 `json:",omitempty" yaml:"draw_probability,omitempty"`
}

// Config is read from JSON using the field names as keys, or from YAML using
// the snake_case tags.
type Config struct {
	// DBDriver is either "sqlite3" or "libsql".
	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	HTTPAddr string `yaml:"http_addr"`
	// ResourcesDir holds the templates, static assets and translations.
	ResourcesDir string `yaml:"resources_dir"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" or "json"

	// When AdminPassword is empty anyone can change the ladder.
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
	// WebToken is the HMAC key used to sign the session cookie.
	WebToken string `yaml:"web_token"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// WriteRateLimit is the number of POST requests allowed per second, 0
	// disables the limit.
	WriteRateLimit float64 `yaml:"write_rate_limit"`
	WriteBurst     int     `yaml:"write_burst"`

	TrueSkill TrueSkill `yaml:"trueskill"`
}

func Default() *Config {
	return &Config{
		DBDriver:           "sqlite3",
		DBDSN:              "foosball.db?_foreign_keys=on",
		HTTPAddr:           "127.0.0.1:3001",
		ResourcesDir:       "resources",
		LogLevel:           "info",
		LogFormat:          "text",
		AdminUser:          "admin",
		CORSAllowedOrigins: []string{"*"},
		WriteRateLimit:     5,
		WriteBurst:         10,
	}
}

func NewFromUserConfigDir() (*Config, error) {
	c := Default()
	if err := c.ReloadFromUserConfigDir(); err != nil {
		return nil, err
	}

	return c, nil
}

// NewFromFile reads the configuration from path, or from the user config dir
// if path is empty.
func NewFromFile(path string) (*Config, error) {
	if path == "" {
		return NewFromUserConfigDir()
	}

	c := Default()
	if err := c.reload(path); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) ReloadFromUserConfigDir() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}

	return c.reload(path)
}

func (c *Config) reload(path string) error {
	if err := c.readFile(path); err != nil {
		return err
	}

	// .env never overrides variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to load .env: %w", err)
	}

	if err := c.expandFromEnv(); err != nil {
		return err
	}

	return c.Validate()
}

func (c *Config) readFile(path string) error {
	log.Debugf("reading conf from %s", path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(c)
	default:
		err = json.NewDecoder(f).Decode(c)
	}
	if err != nil {
		return fmt.Errorf("unable to decode %s: %w", path, err)
	}

	return nil
}

func (c *Config) expandFromEnv() error {
	strs := []struct {
		src string
		dst *string
	}{
		{"DB_DRIVER", &c.DBDriver},
		{"DB_DSN", &c.DBDSN},
		{"HTTP_ADDR", &c.HTTPAddr},
		{"RESOURCES_DIR", &c.ResourcesDir},
		{"LOG_LEVEL", &c.LogLevel},
		{"LOG_FORMAT", &c.LogFormat},
		{"ADMIN_USER", &c.AdminUser},
		{"ADMIN_PASSWORD", &c.AdminPassword},
		{"WEB_TOKEN", &c.WebToken},
	}

	for _, v := range strs {
		if str := os.Getenv(envPrefix + v.src); str != "" {
			*v.dst = str
		}
	}

	if str := os.Getenv(envPrefix + "CORS_ALLOWED_ORIGINS"); str != "" {
		c.CORSAllowedOrigins = strings.Split(str, ",")
		for k := range c.CORSAllowedOrigins {
			c.CORSAllowedOrigins[k] = strings.TrimSpace(c.CORSAllowedOrigins[k])
		}
	}

	if str := os.Getenv(envPrefix + "WRITE_BURST"); str != "" {
		v, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("invalid %sWRITE_BURST: %w", envPrefix, err)
		}
		c.WriteBurst = v
	}

	if str := os.Getenv(envPrefix + "WRITE_RATE_LIMIT"); str != "" {
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("invalid %sWRITE_RATE_LIMIT: %w", envPrefix, err)
		}
		c.WriteRateLimit = f
	}

	trueSkill := []struct {
		src string
		dst **float64
	}{
		{"TRUESKILL_MU", &c.TrueSkill.Mu},
		{"TRUESKILL_SIGMA", &c.TrueSkill.Sigma},
		{"TRUESKILL_BETA", &c.TrueSkill.Beta},
		{"TRUESKILL_TAU", &c.TrueSkill.Tau},
		{"TRUESKILL_DRAW_PROBABILITY", &c.TrueSkill.DrawProbability},
	}

	for _, v := range trueSkill {
		str := os.Getenv(envPrefix + v.src)
		if str == "" {
			continue
		}

		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, v.src, err)
		}
		*v.dst = &f
	}

	return nil
}

// Validate checks the values that would only fail later at runtime.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "libsql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}

	if c.DBDSN == "" {
		return errors.New("empty database DSN")
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	if c.AdminPassword != "" && len(c.WebToken) < 32 {
		return errors.New("an admin password requires a web token of at least 32 chars")
	}

	if c.WriteRateLimit < 0 || c.WriteBurst < 0 {
		return errors.New("write rate limit and burst cannot be negative")
	}

	return c.TrueSkillEnv().Validate()
}

// TrueSkillEnv returns the rating environment, defaults overridden by the
// TrueSkill values that are set, zero included.
func (c *Config) TrueSkillEnv() trueskill.Env {
	env := trueskill.New()

	overrides := []struct {
		src *float64
		dst *float64
	}{
		{c.TrueSkill.Mu, &env.Mu},
		{c.TrueSkill.Sigma, &env.Sigma},
		{c.TrueSkill.Beta, &env.Beta},
		{c.TrueSkill.Tau, &env.Tau},
		{c.TrueSkill.DrawProbability, &env.DrawProbability},
	}
	for _, v := range overrides {
		if v.src != nil {
			*v.dst = *v.src
		}
	}

	return env
}

func getOrCreateUserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "foosball")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath, nil
	}

	return filepath.Join(dir, "config.json"), nil
}

// Write saves the configuration as JSON in the user config dir.
func (c *Config) Write() error {
	path, err := getOrCreateUserConfigPath()
	if err != nil {
		return err
	}

	return c.WriteFile(path)
}

func (c *Config) WriteFile(path string) error {
	log.Debugf("writing conf to %s", path)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.NewEncoder(f).Encode(c)
	default:
		enc := json.NewEncoder(f)
		enc.SetIndent("", "    ")
		err = enc.Encode(c)
	}

	if err != nil {
		if err2 := f.Close(); err2 != nil {
			return fmt.Errorf("unable to close file (%s) after error: %w", err2, err)
		}

		return err
	}

	return f.Close()
}
