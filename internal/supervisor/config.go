package supervisor

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// DatabaseConfig holds the connection settings of the database capability of a service
type DatabaseConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	DbName   string `json:"dbname" mapstructure:"dbname"`
}

// IsValid checks if a database configuration definition is valid and has no missing mandatory fields
func (c DatabaseConfig) IsValid() error {
	if c.Host == "" {
		return errors.New("missing database host")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid database port %d", c.Port)
	}
	if c.Username == "" {
		return errors.New("missing database username")
	}
	if c.DbName == "" {
		return errors.New("missing database name")
	}
	return nil
}

// CacheConfig holds the connection settings of the cache capability of a service
type CacheConfig struct {
	Address  string `json:"address" mapstructure:"address"`
	Password string `json:"-" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
}

// IsValid checks if a cache configuration definition is valid and has no missing mandatory fields
func (c CacheConfig) IsValid() error {
	if c.Address == "" {
		return errors.New("missing cache address")
	}
	return nil
}

// Config is the immutable definition of a supervised service.
// It is read once from the configuration file and never mutated afterwards.
type Config struct {
	Name     string          `json:"name" mapstructure:"name"`
	Port     int             `json:"port" mapstructure:"port"`
	LogLevel string          `json:"logLevel" mapstructure:"loglevel"`
	Database *DatabaseConfig `json:"database,omitempty" mapstructure:"database"`
	Cache    *CacheConfig    `json:"cache,omitempty" mapstructure:"cache"`
}

// IsValid checks if a service configuration definition is valid and has no missing mandatory fields
func (c Config) IsValid() error {
	if c.Name == "" {
		return errors.New("missing service name")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid service port %d", c.Port)
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid service log level %q: %w", c.LogLevel, err)
		}
	}
	if c.Database != nil {
		if err := c.Database.IsValid(); err != nil {
			return fmt.Errorf("service %s: %w", c.Name, err)
		}
	}
	if c.Cache != nil {
		if err := c.Cache.IsValid(); err != nil {
			return fmt.Errorf("service %s: %w", c.Name, err)
		}
	}
	return nil
}

// LoadConfigs loads every supervised service definition from the configuration file
func LoadConfigs() ([]Config, error) {
	if !viper.IsSet("services") { // no services key means nothing to supervise, but no parse error
		return nil, nil
	}

	var configs []Config
	if err := viper.UnmarshalKey("services", &configs); err != nil {
		return nil, err
	}

	for _, config := range configs {
		if err := config.IsValid(); err != nil {
			return nil, err
		}
	}
	return configs, nil
}
