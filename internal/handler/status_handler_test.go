package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/spf13/viper"

	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/internal/tests"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/postgres"
	"github.com/lucinametrics/lucina-service-api/v5/pkg/security/users"
)

func TestIsAlive(t *testing.T) {
	rr := tests.BuildTestHandler(t, "GET", "/isalive", ``, "/isalive", IsAlive, users.UserWithPermissions{})
	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["alive"] != true {
		t.Errorf("expected alive true, got %v", body["alive"])
	}
}

func TestGetAPIStatus(t *testing.T) {
	service, restore := setupSupervisor(t, "billing")
	defer restore()
	viper.Set("INSTANCE_NAME", "lucina-test")

	rr := tests.BuildTestHandler(t, "GET", "/status", ``, "/status", GetAPIStatus, users.UserWithPermissions{})
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var apiStatus APIStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &apiStatus); err != nil {
		t.Fatal(err)
	}
	if apiStatus.Name != "lucina-test" {
		t.Errorf("expected instance name lucina-test, got %s", apiStatus.Name)
	}
	if apiStatus.Version != supervisor.Version {
		t.Errorf("expected version %s, got %s", supervisor.Version, apiStatus.Version)
	}
	if apiStatus.Uptime < 0 {
		t.Errorf("expected a positive uptime, got %f", apiStatus.Uptime)
	}
	if len(apiStatus.Services) != 1 {
		t.Fatalf("expected 1 service snapshot, got %d", len(apiStatus.Services))
	}
	if apiStatus.Services[0].Name != service.GetDefinition().Name {
		t.Errorf("expected service billing, got %s", apiStatus.Services[0].Name)
	}
}

func TestGetHealthNoDatabase(t *testing.T) {
	restore := postgres.ReplaceGlobals(nil)
	defer restore()

	rr := tests.BuildTestHandler(t, "GET", "/health", ``, "/health", GetHealth, users.UserWithPermissions{})
	if status := rr.Code; status != http.StatusServiceUnavailable {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusServiceUnavailable)
	}

	var report HealthReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Status != "degraded" {
		t.Errorf("expected a degraded report, got %s", report.Status)
	}
	if report.Dependencies["postgresql"] != "unavailable" {
		t.Errorf("expected postgresql to be unavailable, got %s", report.Dependencies["postgresql"])
	}
}

func TestGetHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	restore := postgres.ReplaceGlobals(tests.DBClient(t))
	defer restore()

	rr := tests.BuildTestHandler(t, "GET", "/health", ``, "/health", GetHealth, users.UserWithPermissions{})
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v (%s)", status, http.StatusOK, rr.Body.String())
	}

	var report HealthReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Status != "ok" {
		t.Errorf("expected an ok report, got %s", report.Status)
	}
	if report.Dependencies["postgresql"] != "ok" {
		t.Errorf("expected postgresql to be ok, got %s", report.Dependencies["postgresql"])
	}
}
