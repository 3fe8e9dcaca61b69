package app

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/connector"
	"github.com/lucinametrics/lucina-service-api/v5/internal/history"
	"github.com/lucinametrics/lucina-service-api/v5/internal/metrics"
	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier"
	"github.com/lucinametrics/lucina-service-api/v5/internal/notifier/notification"
	routerauth "github.com/lucinametrics/lucina-service-api/v5/internal/router/auth"
	oidcAuth "github.com/lucinametrics/lucina-service-api/v5/internal/router/oidc"
	"github.com/lucinametrics/lucina-service-api/v5/internal/rule"
	"github.com/lucinametrics/lucina-service-api/v5/internal/scheduler"
	"github.com/lucinametrics/lucina-service-api/v5/internal/security"
	"github.com/lucinametrics/lucina-service-api/v5/internal/security/apikey"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/elasticsearch"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/redis"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

const (
	stopServicesTimeout     = 30 * time.Second
	errorEscalationCooldown = 15 * time.Minute
)

// initRepositories initialize all the postgresql repositories
func initRepositories() {
	dbClient := postgres.DB()

	userRepository := users.NewPostgresRepository(dbClient)
	if redis.C() != nil {
		ttl := viper.GetDuration("USER_CACHE_TTL")
		userRepository = users.NewCachedRepository(userRepository, connector.NewRedisCacheFromClient(redis.C()), ttl)
		zap.L().Info("User repository cache enabled", zap.Duration("ttl", ttl))
	}
	users.ReplaceGlobals(userRepository)

	history.ReplaceGlobals(history.NewPostgresRepository(dbClient))
	rule.ReplaceGlobals(rule.NewPostgresRepository(dbClient))
	scheduler.ReplaceGlobalRepository(scheduler.NewPostgresRepository(dbClient))
	apikey.ReplaceGlobals(apikey.NewPostgresRepository(dbClient))
}

func initServices() {
	initMetrics()
	initNotifier()
	initSupervisor()
	initScheduler()
	initTokenAuth()
	initOidcAuthentication()
}

func stopServices() {
	if s := scheduler.S(); s != nil {
		s.C.Stop()
	}

	if m := supervisor.M(); m != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopServicesTimeout)
		defer cancel()
		if err := m.StopAll(ctx); err != nil {
			zap.L().Error("Stopping supervised services", zap.Error(err))
		}
	}
}

func initMetrics() {
	metrics.InitMetricLabels(viper.GetString("INSTANCE_NAME"))
	metrics.MustRegister()
}

func initNotifier() {
	notifier.ReplaceGlobals(notifier.NewNotifier())
}

// initSupervisor builds the service manager, wires the transition sinks and
// loads the supervised service definitions from the configuration
func initSupervisor() {
	manager := supervisor.NewManager()

	var exporter *history.ElasticExporter
	if elasticsearch.C() != nil {
		exporter = history.NewElasticExporter(viper.GetString("HISTORY_INDEX_PREFIX"))
	}
	recorder := history.NewRecorder(exporter)

	manager.AddTransitionSink(recorder.OnTransition)
	manager.AddTransitionSink(metrics.RecordTransition)
	manager.AddTransitionSink(func(transition supervisor.Transition) {
		c := notifier.C()
		if c == nil {
			return
		}
		c.Broadcast(notification.NewStatusChangeNotification(transition))

		// A service falling in error gets escalated to the operating roles,
		// with a cooldown so that a crash loop does not flood them
		if transition.ToStatus == supervisor.Error {
			c.SendToRoles("error:"+transition.ServiceID.String(), errorEscalationCooldown,
				notification.NewBaseNotification(notification.LevelError,
					"Service "+transition.ServiceName+" is in error",
					"The service left the "+transition.FromStatus.String()+" status and requires an intervention"),
				[]string{roles.Admin, roles.Operator})
		}
	})

	supervisor.ReplaceGlobals(manager)

	if err := manager.LoadServices(); err != nil {
		zap.L().Error("Loading supervised services", zap.Error(err))
	}
}

func initScheduler() {
	scheduler.ReplaceGlobals(scheduler.NewScheduler())
	err := scheduler.S().Init()
	if err != nil {
		zap.L().Error("Couldn't init the job scheduler", zap.Error(err))
	} else {
		if viper.GetBool("ENABLE_CRONS_ON_START") {
			scheduler.S().C.Start()
		}
	}
}

func initTokenAuth() {
	signingKey := []byte(viper.GetString("JWT_SIGNING_KEY"))
	if len(signingKey) == 0 {
		zap.L().Warn("JWT_SIGNING_KEY is not set, generating a random signing key (tokens will not survive a restart)")
		signingKey = make([]byte, 32)
		if _, err := rand.Read(signingKey); err != nil {
			zap.L().Fatal("Generate random JWT signing key", zap.Error(err))
		}
	}
	security.InitTokenAuth(signingKey)
}

func initOidcAuthentication() {
	mode, err := routerauth.GetMode()
	if err != nil || mode.Mode != routerauth.ModeOIDC {
		return
	}

	oidcIssuerUrl := viper.GetString("AUTHENTICATION_OIDC_ISSUER_URL")
	oidcClientID := viper.GetString("AUTHENTICATION_OIDC_CLIENT_ID")
	oidcClientSecret := viper.GetString("AUTHENTICATION_OIDC_CLIENT_SECRET")
	oidcRedirectURL := viper.GetString("AUTHENTICATION_OIDC_REDIRECT_URL")
	scopesString := viper.GetString("AUTHENTICATION_OIDC_SCOPES")
	oidcScopes := strings.Split(scopesString, ",")

	if oidcIssuerUrl == "" || oidcClientID == "" || oidcClientSecret == "" || oidcRedirectURL == "" || scopesString == "" {
		fallbackToBasicAuthentication(errors.New("missing OIDC configuration"))
		return
	}

	// aes.NewCipher only accepts these key sizes, fail at startup rather
	// than on the first login redirect
	switch len(viper.GetString("AUTHENTICATION_OIDC_ENCRYPTION_KEY")) {
	case 16, 24, 32:
	default:
		fallbackToBasicAuthentication(errors.New("AUTHENTICATION_OIDC_ENCRYPTION_KEY must be 16, 24 or 32 bytes long"))
		return
	}

	if err := oidcAuth.InitOidc(oidcIssuerUrl, oidcClientID, oidcClientSecret, oidcRedirectURL, oidcScopes); err != nil {
		fallbackToBasicAuthentication(err)
	}
}

func fallbackToBasicAuthentication(err error) {
	zap.L().Warn("OIDC initialization failed, falling back to basic authentication", zap.Error(err))
	viper.Set("AUTHENTICATION_MODE", routerauth.ModeBasic)
}

// createSuperUserIfNotExists bootstraps the configured superuser account on an empty instance
func createSuperUserIfNotExists() error {
	login := viper.GetString("AUTHENTICATION_SUPERUSER_LOGIN")

	_, found, err := users.R().GetByLogin(login)
	if err != nil {
		return err
	}
	if found {
		zap.L().Info("Superuser already exists", zap.String("login", login))
		return nil
	}

	superUser := users.UserWithPassword{
		User: users.User{
			Login:     login,
			Role:      roles.Admin,
			LastName:  "Superuser",
			FirstName: "Lucina",
		},
		Password: viper.GetString("AUTHENTICATION_SUPERUSER_PASSWORD"),
	}
	if ok, err := superUser.IsValid(); !ok {
		return err
	}

	if _, err := users.R().Create(superUser); err != nil {
		return err
	}
	zap.L().Info("Superuser created", zap.String("login", login))
	return nil
}
