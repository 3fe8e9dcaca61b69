package app

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/pkg/helpers"
)

// ConfigPath is the toml configuration file path
var ConfigPath = "config"

// ConfigName is the toml configuration file name
var ConfigName = "service-api"

// EnvPrefix is the standard environment variable prefix
var EnvPrefix = "LUCINA"

// AllowedConfigKey list every allowed configuration key
var AllowedConfigKey = [][]helpers.ConfigKey{
	helpers.GetGeneralConfigKeys(),
	helpers.GetHTTPServerConfigKeys(),
	helpers.GetPostgresqlConfigKeys(),
	helpers.GetElasticsearchConfigKeys(),
	helpers.GetRedisConfigKeys(),
	{
		{Type: helpers.StringFlag, Name: "POSTGRESQL_CONN_POOL_MAX_OPEN", DefaultValue: "6", Description: "PostgreSQL connection pool max open"},
		{Type: helpers.StringFlag, Name: "POSTGRESQL_CONN_POOL_MAX_IDLE", DefaultValue: "3", Description: "PostgreSQL connection pool max idle"},
		{Type: helpers.StringFlag, Name: "POSTGRESQL_CONN_MAX_LIFETIME", DefaultValue: "0", Description: "PostgreSQL connection max lifetime"},
		{Type: helpers.StringFlag, Name: "POSTGRESQL_MIGRATION_ON_STARTUP", DefaultValue: "true", Description: "Run migrations on startup"},
	},
	{
		{Type: helpers.StringFlag, Name: "REDIS_ENABLED", DefaultValue: "false", Description: "Enable the redis cache layer"},
		{Type: helpers.StringFlag, Name: "USER_CACHE_TTL", DefaultValue: "5m", Description: "Time-to-live of the cached user records when the redis layer is enabled"},
	},
	{
		{Type: helpers.StringFlag, Name: "ELASTICSEARCH_ENABLED", DefaultValue: "false", Description: "Enable the elasticsearch history export"},
		{Type: helpers.StringFlag, Name: "HISTORY_INDEX_PREFIX", DefaultValue: "lucina-service-history", Description: "Prefix of the daily elasticsearch history indices"},
	},
	// OIDC authentication (only read when AUTHENTICATION_MODE=OIDC)
	{
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_OIDC_CLIENT_ID", DefaultValue: "", Description: "OIDC client identifier registered on the identity provider"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_OIDC_CLIENT_SECRET", DefaultValue: "", Description: "OIDC client secret"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_OIDC_ISSUER_URL", DefaultValue: "", Description: "Issuer URL used for OIDC endpoint discovery"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_OIDC_REDIRECT_URL", DefaultValue: "https://127.0.0.1:5556/auth/oidc/callback", Description: "Callback URL the identity provider redirects to after login"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_OIDC_FRONT_END_URL", DefaultValue: "https://127.0.0.1:4200", Description: "Front-end URL receiving the token at the end of the login flow"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_OIDC_ENCRYPTION_KEY", DefaultValue: "", Description: "AES key sealing the anti-CSRF login state, must be 16, 24 or 32 bytes long"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_OIDC_SCOPES", DefaultValue: "", Description: "Comma-separated extra scopes requested on top of openid"},
	},
	{
		{Type: helpers.StringFlag, Name: "HTTP_SERVER_API_ENABLE_VERBOSE_ERROR", DefaultValue: "false", Description: "Run the API with verbose error"},
		{Type: helpers.StringFlag, Name: "SWAGGER_HOST", DefaultValue: "localhost:9000", Description: "Swagger UI target hostname"},
		{Type: helpers.StringFlag, Name: "SWAGGER_BASEPATH", DefaultValue: "/api/v1", Description: "Swagger UI target basepath"},
		{Type: helpers.StringFlag, Name: "ENABLE_CRONS_ON_START", DefaultValue: "true", Description: "Enable crons on startup"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_MODE", DefaultValue: "BASIC", Description: "Authentication mode"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_CREATE_SUPERUSER", DefaultValue: "false", Description: "Create superuser if not exists"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_SUPERUSER_LOGIN", DefaultValue: "admin", Description: "Login of the bootstrap superuser"},
		{Type: helpers.StringFlag, Name: "AUTHENTICATION_SUPERUSER_PASSWORD", DefaultValue: "", Description: "Password of the bootstrap superuser (mandatory when AUTHENTICATION_CREATE_SUPERUSER is enabled)"},
		{Type: helpers.StringFlag, Name: "JWT_SIGNING_KEY", DefaultValue: "", Description: "JWT signing key for token generation. If not set, a random key will be generated on startup."},
	},
}

// InitConfiguration declares the allowed configuration keys and loads the
// main configuration file plus the supervised services definition file
func InitConfiguration() {
	helpers.InitializeConfig(AllowedConfigKey, ConfigName, ConfigPath, EnvPrefix)

	// Supervised services config
	v := viper.New()
	v.SetConfigName("services")
	v.AddConfigPath(ConfigPath)
	err := v.ReadInConfig()
	if err != nil {
		zap.L().Warn("No supervised services configuration found", zap.Error(err))
		return
	}
	err = viper.MergeConfigMap(v.AllSettings())
	if err != nil {
		zap.L().Warn("Supervised services configuration could not be merged", zap.Error(err))
	}
}
