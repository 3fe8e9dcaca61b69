package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/handler"
	"github.com/lucinametrics/lucina-service-api/v5/internal/metrics"
	routerauth "github.com/lucinametrics/lucina-service-api/v5/internal/router/auth"
	routeroidc "github.com/lucinametrics/lucina-service-api/v5/internal/router/oidc"
	"github.com/lucinametrics/lucina-service-api/v5/internal/security"
	"github.com/lucinametrics/lucina-service-api/v5/internal/security/apikey"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/utils/httputil"
)

const requestTimeout = 60 * time.Second

// NewChiRouter initializes a new chi router with all the middlewares and routes of the API.
// Security can be disabled entirely (development) or delegated to an upstream gateway.
// The zap AtomicLevel is exposed on /log_level for runtime log level changes.
func NewChiRouter(apiEnableSecurity bool, apiEnableCORS bool, apiEnableGatewayMode bool, logLevel zap.AtomicLevel) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(CustomZapLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(metrics.Middleware)

	if apiEnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*", "http://*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderKeyApiKey},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/log_level", logLevel)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	// Orchestrators probe /health without the API prefix
	r.Get("/health", handler.GetHealth)

	mode, err := routerauth.GetMode()
	if err != nil {
		zap.L().Warn("Authentication mode not configured, defaulting to BASIC", zap.Error(err))
		mode.Mode = routerauth.ModeBasic
	}

	r.Route("/api/v1", func(rg chi.Router) {
		rg.Get("/isalive", handler.IsAlive)
		rg.Get("/health", handler.GetHealth)
		rg.Get("/authmode", handler.GetAuthenticationMode)
		rg.Handle("/logout", handler.LogoutHandler(deleteTokenCookieMiddleware))

		switch mode.Mode {
		case routerauth.ModeOIDC:
			rg.Get("/auth/oidc", handler.HandleOIDCRedirect)
			rg.Get("/auth/oidc/callback", handler.HandleOIDCCallback)
		default:
			rg.Post("/login", handler.Login)
		}

		rg.Group(func(rp chi.Router) {
			rp.Use(buildSecurityMiddleware(apiEnableSecurity, apiEnableGatewayMode, mode.Mode))
			mountProtectedRoutes(rp)
		})
	})

	return r
}

// buildSecurityMiddleware returns the authentication middleware matching the API configuration.
// Requests carrying an X-API-Key header authenticate with an API key, every other request
// goes through the configured user authentication chain.
func buildSecurityMiddleware(apiEnableSecurity bool, apiEnableGatewayMode bool, mode string) func(http.Handler) http.Handler {
	if !apiEnableSecurity {
		zap.L().Warn("API security is disabled")
		return unsecuredContextMiddleware
	}
	if apiEnableGatewayMode {
		zap.L().Info("API running in gateway mode, authentication is delegated to the upstream gateway")
		return unsecuredContextMiddleware
	}

	keyCache := apikey.NewValidationCache(apikey.DefaultValidationCacheTTL)

	return func(next http.Handler) http.Handler {
		var userChain http.Handler
		switch mode {
		case routerauth.ModeOIDC:
			userChain = routeroidc.OIDCMiddleware(routeroidc.ContextMiddleware(next))
		default:
			userChain = jwtauth.Verifier(security.TokenAuth())(jwtAuthenticator(jwtContextMiddleware(next)))
		}
		apiKeyChain := apiKeyContextMiddleware(next, keyCache)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(HeaderKeyApiKey) != "" {
				apiKeyChain.ServeHTTP(w, r)
				return
			}
			userChain.ServeHTTP(w, r)
		})
	}
}

// unsecuredContextMiddleware injects a wildcard user in the request context.
// It backs the unsecured development mode and the gateway mode, where the caller
// identity has already been checked upstream.
func unsecuredContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := users.WithPermissions(users.User{Login: "gateway", Role: roles.Admin})
		ctx := context.WithValue(r.Context(), httputil.ContextKeyUser, up)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deleteTokenCookieMiddleware expires the token cookie before the logout response is written
func deleteTokenCookieMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     handler.TokenName,
			Value:    "",
			Path:     handler.AllowedCookiePath,
			MaxAge:   -1,
			HttpOnly: true,
		})
		next.ServeHTTP(w, r)
	})
}

func mountProtectedRoutes(rp chi.Router) {
	rp.Get("/status", handler.GetAPIStatus)
	rp.Get("/security/myself", handler.GetUserSelf)

	rp.Route("/services", func(rs chi.Router) {
		rs.Get("/", handler.GetServices)
		rs.Get("/statuses", handler.GetServicesStatuses)
		rs.Get("/{id}", handler.GetService)
		rs.Get("/{id}/status", handler.GetServiceStatus)
		rs.Post("/{id}/start", handler.StartService)
		rs.Post("/{id}/stop", handler.StopService)
		rs.Post("/{id}/restart", handler.RestartService)
	})

	rp.Route("/users", func(rs chi.Router) {
		rs.Get("/", handler.GetUsers)
		rs.Post("/", handler.PostUser)
		rs.Post("/validate", handler.ValidateUser)
		rs.Get("/{id}", handler.GetUser)
		rs.Put("/{id}", handler.PutUser)
		rs.Delete("/{id}", handler.DeleteUser)
		rs.Put("/{id}/password", handler.ChangeUserPassword)
	})

	rp.Route("/history", func(rs chi.Router) {
		rs.Get("/", handler.GetHistoryRecords)
		rs.Get("/{id}", handler.GetHistoryRecord)
	})

	rp.Route("/rules", func(rs chi.Router) {
		rs.Get("/", handler.GetRules)
		rs.Post("/", handler.PostRule)
		rs.Post("/validate", handler.ValidateRule)
		rs.Get("/{id}", handler.GetRule)
		rs.Put("/{id}", handler.PutRule)
		rs.Delete("/{id}", handler.DeleteRule)
	})

	rp.Route("/scheduler", func(rs chi.Router) {
		rs.Post("/start", handler.StartScheduler)
		rs.Get("/jobs", handler.GetJobSchedules)
		rs.Post("/jobs", handler.PostJobSchedule)
		rs.Post("/jobs/validate", handler.ValidateJobSchedule)
		rs.Get("/jobs/{id}", handler.GetJobSchedule)
		rs.Put("/jobs/{id}", handler.PutJobSchedule)
		rs.Delete("/jobs/{id}", handler.DeleteJobSchedule)
		rs.Post("/jobs/{id}/trigger", handler.TriggerJobSchedule)
	})

	rp.Route("/apikeys", func(rs chi.Router) {
		rs.Get("/", handler.GetAPIKeys)
		rs.Post("/", handler.PostAPIKey)
		rs.Get("/{id}", handler.GetAPIKey)
		rs.Put("/{id}", handler.PutAPIKey)
		rs.Delete("/{id}", handler.DeleteAPIKey)
		rs.Post("/{id}/deactivate", handler.DeactivateAPIKey)
	})

	rp.Route("/notifications", func(rs chi.Router) {
		rs.Get("/ws", handler.NotificationsWSRegister)
		rs.Get("/sse", handler.NotificationsSSERegister)
	})
}
