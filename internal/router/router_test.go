package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lucinametrics/lucina-service-api/v5/internal/connector"
	"github.com/lucinametrics/lucina-service-api/v5/internal/security"
	"github.com/lucinametrics/lucina-service-api/v5/internal/security/apikey"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/internal/tests"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

func setupManager(t *testing.T) func() {
	t.Helper()
	manager := supervisor.NewManager()
	manager.Register(supervisor.NewConnectorService(supervisor.Config{Name: "billing", Port: 8081},
		connector.NewMemoryDatabase(), connector.NewMemoryCache()))
	return supervisor.ReplaceGlobals(manager)
}

func TestRouterIsAlive(t *testing.T) {
	viper.Set("AUTHENTICATION_MODE", "BASIC")
	r := NewChiRouter(false, false, false, zap.NewAtomicLevel())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/isalive", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
}

func TestRouterRootHealth(t *testing.T) {
	viper.Set("AUTHENTICATION_MODE", "BASIC")
	r := NewChiRouter(false, false, false, zap.NewAtomicLevel())

	// No backend is wired in this test, the route must answer degraded rather than 404
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestRouterUnsecuredProtectedRoute(t *testing.T) {
	restore := setupManager(t)
	defer restore()

	viper.Set("AUTHENTICATION_MODE", "BASIC")
	r := NewChiRouter(false, false, false, zap.NewAtomicLevel())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/status", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	viper.Set("AUTHENTICATION_MODE", "BASIC")
	r := NewChiRouter(false, true, false, zap.NewAtomicLevel())

	req := httptest.NewRequest("OPTIONS", "/api/v1/isalive", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected the preflight response to carry the allowed origin")
	}
}

func TestRouterSecuredRejectsAnonymous(t *testing.T) {
	restore := setupManager(t)
	defer restore()
	restoreAuth := security.InitTokenAuth([]byte("test-signing-key"))
	defer restoreAuth()

	viper.Set("AUTHENTICATION_MODE", "BASIC")
	r := NewChiRouter(true, false, false, zap.NewAtomicLevel())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/status", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
	}
}

func TestRouterSecuredBearerToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer tests.DBExec(db, tests.UsersDropTableV1, t, false)
	tests.DBExec(db, tests.UsersDropTableV1, t, false)
	tests.DBExec(db, tests.UsersTableV1, t, true)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	restore := setupManager(t)
	defer restore()
	restoreAuth := security.InitTokenAuth([]byte("test-signing-key"))
	defer restoreAuth()

	userID, err := users.R().Create(users.UserWithPassword{
		User:     users.User{Login: "alice", Role: roles.Viewer, LastName: "Doe", FirstName: "Alice", Email: "alice@example.com"},
		Password: "password",
	})
	if err != nil {
		t.Fatal(err)
	}
	user, found, err := users.R().Get(userID)
	if err != nil || !found {
		t.Fatalf("user not found after creation: %v", err)
	}

	token, err := security.NewToken(user, 1*time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	viper.Set("AUTHENTICATION_MODE", "BASIC")
	r := NewChiRouter(true, false, false, zap.NewAtomicLevel())

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
}

func TestRouterSecuredAPIKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer tests.DBExec(db, tests.ApiKeysDropTableV1, t, false)
	tests.DBExec(db, tests.ApiKeysDropTableV1, t, false)
	tests.DBExec(db, tests.ApiKeysTableV1, t, true)
	apikey.ReplaceGlobals(apikey.NewPostgresRepository(db))

	restore := setupManager(t)
	defer restore()
	restoreAuth := security.InitTokenAuth([]byte("test-signing-key"))
	defer restoreAuth()

	key, err := apikey.New("ci-pipeline", roles.Operator, "admin", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := apikey.R().Create(key.APIKey); err != nil {
		t.Fatal(err)
	}

	viper.Set("AUTHENTICATION_MODE", "BASIC")
	r := NewChiRouter(true, false, false, zap.NewAtomicLevel())

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set(HeaderKeyApiKey, key.KeyValue)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set(HeaderKeyApiKey, "not-a-valid-key")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
	}
}
