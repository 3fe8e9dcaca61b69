package rule

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/lucinametrics/lucina-service-api/v5/internal/tests"
)

func dbInit(dbClient *sqlx.DB, t *testing.T) {
	dbDestroy(dbClient, t)
	tests.DBExec(dbClient, tests.RulesTableV1, t, true)
}

func dbDestroy(dbClient *sqlx.DB, t *testing.T) {
	tests.DBExec(dbClient, tests.RulesDropTableV1, t, false)
}

func TestNewPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	r := NewPostgresRepository(tests.DBClient(t))
	if r == nil {
		t.Error("Rule Repository is nil")
	}
}

func TestPostgresReplaceGlobal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	r := NewPostgresRepository(tests.DBClient(t))
	reverse := ReplaceGlobals(r)
	if R() == nil {
		t.Error("Global rule repository is nil")
	}
	reverse()
	if R() != nil {
		t.Error("Global rule repository is not nil after reverse")
	}
}

func TestPostgresCreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)
	r := NewPostgresRepository(db)

	_, found, err := r.Get(1)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if found {
		t.Error("found a rule from nowhere")
	}

	id, err := r.Create(Rule{
		Name:        "error-status",
		Description: "a supervised service reported the ERROR status",
		Expression:  `status == "ERROR"`,
		Enabled:     true,
	})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	rule, found, err := r.Get(id)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if !found {
		t.Error("rule doesn't exists after the creation")
		t.FailNow()
	}
	if rule.ID != id || rule.Name != "error-status" || rule.Expression != `status == "ERROR"` {
		t.Errorf("rule %d not as created: %+v", id, rule)
	}
	if rule.Created.IsZero() || rule.LastModified.IsZero() {
		t.Error("rule timestamps not set on creation")
	}
}

func TestPostgresGetByName(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)
	r := NewPostgresRepository(db)

	id, err := r.Create(Rule{Name: "unhealthy", Expression: `healthy == false`, Enabled: true})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	rule, found, err := r.GetByName("unhealthy")
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if !found {
		t.Error("rule not found by name")
		t.FailNow()
	}
	if rule.ID != id {
		t.Errorf("expected rule %d, got %d", id, rule.ID)
	}

	_, found, err = r.GetByName("not-a-rule")
	if err != nil {
		t.Error(err)
	}
	if found {
		t.Error("found a rule from nowhere")
	}
}

func TestPostgresCheckByName(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)
	r := NewPostgresRepository(db)

	exists, err := r.CheckByName("unhealthy")
	if err != nil {
		t.Error(err)
	}
	if exists {
		t.Error("found a rule from nowhere")
	}

	_, err = r.Create(Rule{Name: "unhealthy", Expression: `healthy == false`, Enabled: true})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	exists, err = r.CheckByName("unhealthy")
	if err != nil {
		t.Error(err)
	}
	if !exists {
		t.Error("rule doesn't exists after the creation")
	}
}

func TestPostgresUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)
	r := NewPostgresRepository(db)

	id, err := r.Create(Rule{Name: "unhealthy", Expression: `healthy == false`, Enabled: true})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	err = r.Update(Rule{
		ID:          id,
		Name:        "unhealthy",
		Description: "the healthcheck of a running service failed",
		Expression:  `healthy == false && status == "RUNNING"`,
		Enabled:     false,
	})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	rule, found, err := r.Get(id)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if !found {
		t.Error("rule doesn't exists after the update")
		t.FailNow()
	}
	if rule.Enabled {
		t.Error("rule still enabled after the update")
	}
	if rule.Expression != `healthy == false && status == "RUNNING"` {
		t.Errorf("rule expression not updated: %s", rule.Expression)
	}
	if !rule.LastModified.After(rule.Created) {
		t.Error("rule last modification date not updated")
	}
}

func TestPostgresDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)
	r := NewPostgresRepository(db)

	id, err := r.Create(Rule{Name: "unhealthy", Expression: `healthy == false`, Enabled: true})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	err = r.Delete(id)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	_, found, err := r.Get(id)
	if err != nil {
		t.Error(err)
	}
	if found {
		t.Error("rule still exists after the deletion")
	}
}

func TestPostgresGetAllEnabled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)
	r := NewPostgresRepository(db)

	if _, err := r.Create(Rule{Name: "unhealthy", Expression: `healthy == false`, Enabled: true}); err != nil {
		t.Error(err)
		t.FailNow()
	}
	if _, err := r.Create(Rule{Name: "error-status", Expression: `status == "ERROR"`, Enabled: true}); err != nil {
		t.Error(err)
		t.FailNow()
	}
	if _, err := r.Create(Rule{Name: "disabled", Expression: `uptime > 60`, Enabled: false}); err != nil {
		t.Error(err)
		t.FailNow()
	}

	rules, err := r.GetAllEnabled()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 enabled rules, got %d", len(rules))
	}
	if rules[0].Name != "error-status" || rules[1].Name != "unhealthy" {
		t.Errorf("expected enabled rules ordered by name, got %s and %s", rules[0].Name, rules[1].Name)
	}

	all, err := r.GetAll()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if len(all) != 3 {
		t.Errorf("expected 3 rules in total, got %d", len(all))
	}
}
