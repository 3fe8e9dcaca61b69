package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lucinametrics/lucina-service-api/v5/internal/tests"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/permissions"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/roles"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

func dbUsersInit(dbClient *sqlx.DB, t *testing.T) {
	dbUsersDestroy(dbClient, t)
	tests.DBExec(dbClient, tests.UsersTableV1, t, true)
}

func dbUsersDestroy(dbClient *sqlx.DB, t *testing.T) {
	tests.DBExec(dbClient, tests.UsersDropTableV1, t, false)
}

func newTestUser(login string) users.UserWithPassword {
	return users.UserWithPassword{
		User: users.User{
			Login:     login,
			Role:      roles.Viewer,
			LastName:  "Doe",
			FirstName: "John",
			Email:     login + "@example.com",
		},
		Password: "password",
	}
}

func TestGetUsers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	if _, err := users.R().Create(newTestUser("bob")); err != nil {
		t.Fatal(err)
	}
	if _, err := users.R().Create(newTestUser("alice")); err != nil {
		t.Fatal(err)
	}

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionList)}}
	rr := tests.BuildTestHandler(t, "GET", "/users", ``, "/users", GetUsers, user)
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var list []users.User
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
	if list[0].Login != "alice" || list[1].Login != "bob" {
		t.Errorf("expected users ordered by login, got %s then %s", list[0].Login, list[1].Login)
	}
}

func TestGetUsersPaginationDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	for i := 0; i < 12; i++ {
		if _, err := users.R().Create(newTestUser(fmt.Sprintf("user-%02d", i))); err != nil {
			t.Fatal(err)
		}
	}

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionList)}}

	cases := []struct {
		name        string
		targetRoute string
		expected    int
		firstLogin  string
	}{
		{"no parameters", "/users", 10, "user-00"},
		{"unparseable parameters", "/users?limit=ten&offset=zero", 10, "user-00"},
		{"negative parameters", "/users?limit=-1&offset=-1", 10, "user-00"},
		{"explicit page", "/users?limit=5&offset=10", 2, "user-10"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := tests.BuildTestHandler(t, "GET", c.targetRoute, ``, "/users", GetUsers, user)
			if status := rr.Code; status != http.StatusOK {
				t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
			}
			var list []users.User
			if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
				t.Fatal(err)
			}
			if len(list) != c.expected {
				t.Fatalf("expected %d users, got %d", c.expected, len(list))
			}
			if list[0].Login != c.firstLogin {
				t.Errorf("expected first login %s, got %s", c.firstLogin, list[0].Login)
			}
		})
	}
}

func TestGetUsersMissingPermission(t *testing.T) {
	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeRule, permissions.All, permissions.ActionList)}}
	rr := tests.BuildTestHandler(t, "GET", "/users", ``, "/users", GetUsers, user)
	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusForbidden)
	}
}

func TestGetUserInvalidUUID(t *testing.T) {
	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionGet)}}
	rr := tests.BuildTestHandler(t, "GET", "/users/not-a-uuid", ``, "/users/{id}", GetUser, user)
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestGetUserNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionGet)}}
	rr := tests.BuildTestHandler(t, "GET", "/users/"+uuid.New().String(), ``, "/users/{id}", GetUser, user)
	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
	}
}

func TestPostUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionCreate)}}
	body := `{"login":"alice","role":"viewer","lastName":"Doe","firstName":"Alice","email":"alice@example.com","password":"password"}`
	rr := tests.BuildTestHandler(t, "POST", "/users", body, "/users", PostUser, user)
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v (%s)", status, http.StatusOK, rr.Body.String())
	}

	var created users.User
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == uuid.Nil {
		t.Error("expected the created user to carry its generated id")
	}
	if created.Login != "alice" {
		t.Errorf("expected login alice, got %s", created.Login)
	}
}

func TestPostUserDuplicateLogin(t *testing.T) {
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

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionCreate)}}
	body := `{"login":"alice","role":"viewer","lastName":"Doe","firstName":"Alice","email":"alice@example.com","password":"password"}`
	rr := tests.BuildTestHandler(t, "POST", "/users", body, "/users", PostUser, user)
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestPostUserInvalid(t *testing.T) {
	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionCreate)}}
	body := `{"login":"alice","role":"unknown-role","lastName":"Doe","password":"password"}`
	rr := tests.BuildTestHandler(t, "POST", "/users", body, "/users", PostUser, user)
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestValidateUser(t *testing.T) {
	editor := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionCreate)}}

	body := `{"login":"alice","role":"viewer","lastName":"Doe","firstName":"Alice","email":"alice@example.com","password":"password"}`
	rr := tests.BuildTestHandler(t, "POST", "/users/validate", body, "/users/validate", ValidateUser, editor)
	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v (%s)", status, http.StatusOK, rr.Body.String())
	}
	var echoed users.User
	if err := json.Unmarshal(rr.Body.Bytes(), &echoed); err != nil {
		t.Fatal(err)
	}
	if echoed.Login != "alice" {
		t.Errorf("expected login alice, got %s", echoed.Login)
	}

	body = `{"login":"alice","role":"unknown-role","password":"password"}`
	rr = tests.BuildTestHandler(t, "POST", "/users/validate", body, "/users/validate", ValidateUser, editor)
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	reader := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionList)}}
	body = `{"login":"alice","role":"viewer","password":"password"}`
	rr = tests.BuildTestHandler(t, "POST", "/users/validate", body, "/users/validate", ValidateUser, reader)
	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusForbidden)
	}
}

func TestPutUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	userID, err := users.R().Create(newTestUser("alice"))
	if err != nil {
		t.Fatal(err)
	}

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionUpdate)}}
	body := `{"login":"alice","role":"operator","lastName":"Doe","firstName":"Alice","email":"alice@example.com"}`
	rr := tests.BuildTestHandler(t, "PUT", "/users/"+userID.String(), body, "/users/{id}", PutUser, user)
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v (%s)", status, http.StatusOK, rr.Body.String())
	}

	updated, found, err := users.R().Get(userID)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("user not found after update")
	}
	if updated.Role != roles.Operator {
		t.Errorf("expected role operator after update, got %s", updated.Role)
	}
}

func TestDeleteUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	userID, err := users.R().Create(newTestUser("alice"))
	if err != nil {
		t.Fatal(err)
	}

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionDelete)}}
	rr := tests.BuildTestHandler(t, "DELETE", "/users/"+userID.String(), ``, "/users/{id}", DeleteUser, user)
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	_, found, err := users.R().Get(userID)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected the user to be deleted")
	}
}

func TestChangeUserPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbUsersDestroy(db, t)
	dbUsersInit(db, t)
	users.ReplaceGlobals(users.NewPostgresRepository(db))

	userID, err := users.R().Create(newTestUser("alice"))
	if err != nil {
		t.Fatal(err)
	}

	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionUpdate)}}
	rr := tests.BuildTestHandler(t, "PUT", "/users/"+userID.String()+"/password", `{"password":"newpassword"}`, "/users/{id}/password", ChangeUserPassword, user)
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	_, valid, err := users.R().Authenticate("alice", "newpassword")
	if err != nil {
		t.Fatal(err)
	}
	if !valid {
		t.Error("expected the new password to authenticate the user")
	}

	_, valid, err = users.R().Authenticate("alice", "password")
	if err != nil {
		t.Fatal(err)
	}
	if valid {
		t.Error("expected the previous password to be rejected")
	}
}

func TestChangeUserPasswordTooShort(t *testing.T) {
	user := users.UserWithPermissions{Permissions: []permissions.Permission{permissions.New(permissions.TypeUser, permissions.All, permissions.ActionUpdate)}}
	rr := tests.BuildTestHandler(t, "PUT", "/users/"+uuid.New().String()+"/password", `{"password":"abc"}`, "/users/{id}/password", ChangeUserPassword, user)
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}
