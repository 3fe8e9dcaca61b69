package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"github.com/lucinametrics/lucina-service-api/v5/internal/utils/dbutils"
)

type mockRepository struct {
	records []Record
}

func (m *mockRepository) Create(record Record) (int64, error) {
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return record.ID, nil
}

func (m *mockRepository) Get(id int64) (Record, bool, error) {
	for _, record := range m.records {
		if record.ID == id {
			return record, true, nil
		}
	}
	return Record{}, false, nil
}

func (m *mockRepository) GetAll(options dbutils.DBQueryOptionnal) ([]Record, error) {
	return m.records, nil
}

func (m *mockRepository) GetAllByServiceID(serviceID uuid.UUID, options dbutils.DBQueryOptionnal) ([]Record, error) {
	records := make([]Record, 0)
	for _, record := range m.records {
		if record.ServiceID == serviceID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *mockRepository) PurgeOlderThan(maxAge time.Duration) (int64, error) {
	return 0, nil
}

func TestRecorderOnTransition(t *testing.T) {
	mock := &mockRepository{}
	defer ReplaceGlobals(mock)()

	recorder := NewRecorder(nil)
	recorder.OnTransition(supervisor.Transition{
		ServiceID:   uuid.New(),
		ServiceName: "ingest",
		FromStatus:  supervisor.Stopped,
		ToStatus:    supervisor.Starting,
		OccurredAt:  time.Now(),
	})

	if len(mock.records) != 1 {
		t.Error("transition should be persisted")
		t.FailNow()
	}
	if mock.records[0].ServiceName != "ingest" {
		t.Error("persisted record should carry the service name")
	}
	if mock.records[0].ToStatus != supervisor.Starting {
		t.Error("persisted record should carry the target status")
	}
}

func TestRecorderWithManager(t *testing.T) {
	mock := &mockRepository{}
	defer ReplaceGlobals(mock)()

	manager := supervisor.NewManager()
	recorder := NewRecorder(nil)
	manager.AddTransitionSink(recorder.OnTransition)

	service := supervisor.NewConnectorService(supervisor.Config{Name: "ingest", Port: 9001}, nil, nil)
	manager.Register(service)

	if err := manager.StartAll(context.Background()); err != nil {
		t.Error(err)
		t.FailNow()
	}
	if err := manager.StopAll(context.Background()); err != nil {
		t.Error(err)
		t.FailNow()
	}

	// Stopped -> Starting -> Running -> Stopping -> Stopped
	if len(mock.records) != 4 {
		t.Error("expected four persisted transitions, got", len(mock.records))
		t.FailNow()
	}
	if mock.records[3].ToStatus != supervisor.Stopped {
		t.Error("last transition should end on the stopped status")
	}
}
