package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/lucinametrics/lucina-service-api/v5/internal/security"
	"github.com/lucinametrics/lucina-service-api/v5/internal/tests"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

func TestLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))
	restore := security.InitTokenAuth([]byte("test-signing-key"))
	defer restore()

	if _, err := users.R().Create(newTestUser("alice")); err != nil {
		t.Fatal(err)
	}

	rr := tests.BuildTestHandler(t, "POST", "/login", `{"login":"alice","password":"password"}`, "/login", Login, users.UserWithPermissions{})
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v (%s)", status, http.StatusOK, rr.Body.String())
	}

	var token JwtToken
	if err := json.Unmarshal(rr.Body.Bytes(), &token); err != nil {
		t.Fatal(err)
	}
	if token.Token == "" {
		t.Error("expected a signed token in the login response")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	if _, err := users.R().Create(newTestUser("alice")); err != nil {
		t.Fatal(err)
	}

	rr := tests.BuildTestHandler(t, "POST", "/login", `{"login":"alice","password":"not-the-password"}`, "/login", Login, users.UserWithPermissions{})
	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusUnauthorized)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	rr := tests.BuildTestHandler(t, "POST", "/login", `{"login":"alice"}`, "/login", Login, users.UserWithPermissions{})
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

// keep this test last: it drains the login rate limit bucket of the test remote address
func TestLoginRateLimit(t *testing.T) {
	limited := 0
	for i := 0; i < 15; i++ {
		rr := tests.BuildTestHandler(t, "POST", "/login", `{}`, "/login", Login, users.UserWithPermissions{})
		if rr.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Error("expected at least one login attempt to be rate limited")
	}
}
