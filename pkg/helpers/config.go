package helpers

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ConfigKeyType qualifies how a configuration key default value must be interpreted
type ConfigKeyType int

const (
	// StringFlag is the standard single-value configuration key type
	StringFlag ConfigKeyType = iota
	// StringSliceFlag is the multi-value configuration key type
	StringSliceFlag
)

// ConfigKey represents a single allowed configuration key with its default value
type ConfigKey struct {
	Type         ConfigKeyType
	Name         string
	DefaultValue interface{}
	Description  string
}

// GetGeneralConfigKeys returns the configuration keys shared by every binary
func GetGeneralConfigKeys() []ConfigKey {
	return []ConfigKey{
		{Type: StringFlag, Name: "DEBUG_MODE", DefaultValue: "false", Description: "Enable debug mode"},
		{Type: StringFlag, Name: "LOGGER_PRODUCTION", DefaultValue: "true", Description: "Use the zap production logging configuration"},
		{Type: StringFlag, Name: "INSTANCE_NAME", DefaultValue: "lucina", Description: "Instance name"},
	}
}

// GetHTTPServerConfigKeys returns the configuration keys of the HTTP server layer
func GetHTTPServerConfigKeys() []ConfigKey {
	return []ConfigKey{
		{Type: StringFlag, Name: "SERVER_PORT", DefaultValue: "9000", Description: "Server port"},
		{Type: StringFlag, Name: "SERVER_ENABLE_TLS", DefaultValue: "false", Description: "Run the server in secured mode (with TLS)"},
		{Type: StringFlag, Name: "SERVER_TLS_FILE_CRT", DefaultValue: "certs/server.rsa.crt", Description: "TLS certificate crt file location"},
		{Type: StringFlag, Name: "SERVER_TLS_FILE_KEY", DefaultValue: "certs/server.rsa.key", Description: "TLS certificate key file location"},
		{Type: StringFlag, Name: "API_ENABLE_CORS", DefaultValue: "false", Description: "Run the api with CORS enabled"},
		{Type: StringFlag, Name: "API_ENABLE_SECURITY", DefaultValue: "true", Description: "Run the api in secured mode (with authentication)"},
		{Type: StringFlag, Name: "API_ENABLE_GATEWAY_MODE", DefaultValue: "false", Description: "Run the api without external Auth API (with gateway)"},
	}
}

// GetPostgresqlConfigKeys returns the configuration keys of the postgresql storage layer
func GetPostgresqlConfigKeys() []ConfigKey {
	return []ConfigKey{
		{Type: StringFlag, Name: "POSTGRESQL_HOSTNAME", DefaultValue: "localhost", Description: "PostgreSQL hostname"},
		{Type: StringFlag, Name: "POSTGRESQL_PORT", DefaultValue: "5432", Description: "PostgreSQL port"},
		{Type: StringFlag, Name: "POSTGRESQL_DBNAME", DefaultValue: "postgres", Description: "PostgreSQL database name"},
		{Type: StringFlag, Name: "POSTGRESQL_USERNAME", DefaultValue: "postgres", Description: "PostgreSQL user"},
		{Type: StringFlag, Name: "POSTGRESQL_PASSWORD", DefaultValue: "postgres", Description: "PostgreSQL password"},
	}
}

// GetElasticsearchConfigKeys returns the configuration keys of the elasticsearch layer
func GetElasticsearchConfigKeys() []ConfigKey {
	return []ConfigKey{
		{Type: StringSliceFlag, Name: "ELASTICSEARCH_URLS", DefaultValue: []string{"http://localhost:9200"}, Description: "Elasticsearch URLS"},
	}
}

// GetRedisConfigKeys returns the configuration keys of the redis cache layer
func GetRedisConfigKeys() []ConfigKey {
	return []ConfigKey{
		{Type: StringFlag, Name: "REDIS_ADDRESS", DefaultValue: "localhost:6379", Description: "Redis address"},
		{Type: StringFlag, Name: "REDIS_PASSWORD", DefaultValue: "", Description: "Redis password"},
		{Type: StringFlag, Name: "REDIS_DB", DefaultValue: "0", Description: "Redis database index"},
	}
}

// InitializeConfig declares every allowed configuration key on viper, applies the defaults,
// then loads the toml configuration file and the prefixed environment overrides
func InitializeConfig(allowedConfigKeys [][]ConfigKey, configName, configPath, envPrefix string) {
	for _, group := range allowedConfigKeys {
		for _, configKey := range group {
			viper.SetDefault(configKey.Name, configKey.DefaultValue)
		}
	}

	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		zap.L().Warn("Configuration file not loaded, defaults and environment only",
			zap.String("configName", configName), zap.String("configPath", configPath), zap.Error(err))
	}
}
