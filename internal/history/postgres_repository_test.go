package history

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/internal/tests"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

func dbInit(dbClient *sqlx.DB, t *testing.T) {
	dbDestroy(dbClient, t)
	tests.DBExec(dbClient, tests.ServiceStatusHistoryTableV1, t, true)
}

func dbDestroy(dbClient *sqlx.DB, t *testing.T) {
	tests.DBExec(dbClient, tests.ServiceStatusHistoryDropTableV1, t, false)
}

func newRecordAt(serviceID uuid.UUID, occurredAt time.Time) Record {
	return Record{
		ServiceID:   serviceID,
		ServiceName: "ingest",
		FromStatus:  supervisor.Starting,
		ToStatus:    supervisor.Running,
		Message:     "",
		OccurredAt:  occurredAt,
	}
}

func TestCreate_Get(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)

	historyR := NewPostgresRepository(db)

	record := newRecordAt(uuid.New(), time.Now())
	id, err := historyR.Create(record)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}

	recordGet, found, err := historyR.Get(id)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if !found {
		t.Error("Record not found")
		t.FailNow()
	}
	if recordGet.ServiceID != record.ServiceID ||
		recordGet.FromStatus != record.FromStatus ||
		recordGet.ToStatus != record.ToStatus {
		t.Error("The record obtained is different to the inserted record")
	}
}

func TestGetAll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)

	historyR := NewPostgresRepository(db)

	serviceID := uuid.New()
	now := time.Now()
	for i := 0; i < 3; i++ {
		_, err := historyR.Create(newRecordAt(serviceID, now.Add(time.Duration(i)*time.Second)))
		if err != nil {
			t.Error(err)
			t.FailNow()
		}
	}

	records, err := historyR.GetAll(dbutils.DBQueryOptionnal{Limit: 10})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if len(records) != 3 {
		t.Error("The Number of records is not as expected")
		t.FailNow()
	}
	if !records[0].OccurredAt.After(records[1].OccurredAt) {
		t.Error("Records should be ordered by descending occurrence time")
	}

	records, err = historyR.GetAll(dbutils.DBQueryOptionnal{Limit: 2, Offset: 2})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if len(records) != 1 {
		t.Error("The Number of records is not as expected")
	}
}

func TestGetAllByServiceID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)

	historyR := NewPostgresRepository(db)

	serviceID := uuid.New()
	otherID := uuid.New()
	if _, err := historyR.Create(newRecordAt(serviceID, time.Now())); err != nil {
		t.Error(err)
		t.FailNow()
	}
	if _, err := historyR.Create(newRecordAt(otherID, time.Now())); err != nil {
		t.Error(err)
		t.FailNow()
	}

	records, err := historyR.GetAllByServiceID(serviceID, dbutils.DBQueryOptionnal{Limit: 10})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if len(records) != 1 {
		t.Error("The Number of records is not as expected")
		t.FailNow()
	}
	if records[0].ServiceID != serviceID {
		t.Error("The record obtained belongs to another service")
	}
}

func TestPurgeOlderThan(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgresql test in short mode")
	}
	db := tests.DBClient(t)
	defer dbDestroy(db, t)
	dbInit(db, t)

	historyR := NewPostgresRepository(db)

	serviceID := uuid.New()
	if _, err := historyR.Create(newRecordAt(serviceID, time.Now().Add(-48*time.Hour))); err != nil {
		t.Error(err)
		t.FailNow()
	}
	if _, err := historyR.Create(newRecordAt(serviceID, time.Now())); err != nil {
		t.Error(err)
		t.FailNow()
	}

	deleted, err := historyR.PurgeOlderThan(24 * time.Hour)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if deleted != 1 {
		t.Error("The Number of purged records is not as expected, got", deleted)
	}

	records, err := historyR.GetAll(dbutils.DBQueryOptionnal{})
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	if len(records) != 1 {
		t.Error("The Number of remaining records is not as expected")
	}
}
