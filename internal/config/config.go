package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverCSV      = "csv"
)

// Config represents budget.yaml.
type Config struct {
	Files      FilesConfig      `yaml:"files"`
	Database   DatabaseConfig   `yaml:"database"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Log        LogConfig        `yaml:"log"`
}

// FilesConfig locates the export inbox. Exports are read from <dir>/new/.
type FilesConfig struct {
	Dir string `yaml:"dir"`
}

// DatabaseConfig selects and connects to the store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path,omitempty"` // sqlite file or csv directory
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// NormalizerConfig optionally replaces the built-in description table.
type NormalizerConfig struct {
	RulesFile string `yaml:"rules_file,omitempty"`
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json,omitempty"`
}

// Load reads a budget.yaml file from disk. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for a local sqlite setup.
func Default() *Config {
	return &Config{
		Files: FilesConfig{
			Dir: "files",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join("data", "budget.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Files.Dir = abs(c.Files.Dir)
	if c.Database.Driver != DriverPostgres {
		c.Database.Path = abs(c.Database.Path)
	}
	c.Normalizer.RulesFile = abs(c.Normalizer.RulesFile)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Files.Dir == "" {
		errs = append(errs, errors.New("files.dir is required"))
	}
	errs = append(errs, c.Database.validate()...)
	return errors.Join(errs...)
}

func (d DatabaseConfig) validate() []error {
	var errs []error
	drivers := []string{DriverSQLite, DriverPostgres, DriverCSV}
	if !slices.Contains(drivers, d.Driver) {
		return []error{fmt.Errorf("database.driver %q must be one of %v", d.Driver, drivers)}
	}
	if d.Driver == DriverPostgres {
		if d.Host == "" {
			errs = append(errs, errors.New("database.host is required for postgres"))
		}
		if d.Name == "" {
			errs = append(errs, errors.New("database.name is required for postgres"))
		}
		if d.Port < 0 || d.Port > 65535 {
			errs = append(errs, fmt.Errorf("database.port %d out of range", d.Port))
		}
	} else if d.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required for %s", d.Driver))
	}
	return errs
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Driver != DriverPostgres {
		return d.Path
	}
	host := d.Host
	if d.Port != 0 {
		host = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + d.Name,
	}
	if d.Username != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.Username, d.Password)
		} else {
			u.User = url.User(d.Username)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}
