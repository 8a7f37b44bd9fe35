package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvFilePath   = "BUDGET_FILE_PATH"
	EnvDBDriver   = "BUDGET_DB_DRIVER"
	EnvDBPath     = "BUDGET_DB_PATH"
	EnvDBHost     = "BUDGET_DB_HOST"
	EnvDBPort     = "BUDGET_DB_PORT"
	EnvDBUser     = "BUDGET_DB_USERNAME"
	EnvDBPassword = "BUDGET_DB_PASSWORD"
	EnvLogLevel   = "BUDGET_LOG_LEVEL"
)

// LoadEnvFile loads variables from an optional .env file without
// overriding ones already set.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() error {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvFilePath, &c.Files.Dir)
	set(EnvDBDriver, &c.Database.Driver)
	set(EnvDBPath, &c.Database.Path)
	set(EnvDBHost, &c.Database.Host)
	set(EnvDBUser, &c.Database.Username)
	set(EnvDBPassword, &c.Database.Password)
	set(EnvLogLevel, &c.Log.Level)

	if v := os.Getenv(EnvDBPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", EnvDBPort, v, err)
		}
		c.Database.Port = port
	}
	return nil
}
