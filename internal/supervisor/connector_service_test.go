package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucinametrics/lucina-service-api/v5/internal/connector"
)

var errConnectionRefused = errors.New("connection refused")

// flakyDatabase is a Database capability failing on demand
type flakyDatabase struct {
	failConnect bool
	failClose   bool
}

func (d *flakyDatabase) Connect(ctx context.Context) error {
	if d.failConnect {
		return errConnectionRefused
	}
	return nil
}

func (d *flakyDatabase) Close() error {
	if d.failClose {
		return errConnectionRefused
	}
	return nil
}

func (d *flakyDatabase) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	return nil, nil
}

func (d *flakyDatabase) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return 0, nil
}

func TestConnectorServiceStartStopRoundTrip(t *testing.T) {
	service := NewConnectorService(Config{Name: "billing", Port: 8080}, connector.NewMemoryDatabase(), connector.NewMemoryCache())
	ctx := context.Background()

	if status := service.GetStatus().Status; status != Stopped {
		t.Fatalf("expected initial status STOPPED, got %s", status)
	}

	if err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if status := service.GetStatus().Status; status != Running {
		t.Fatalf("expected status RUNNING after start, got %s", status)
	}

	if err := service.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if status := service.GetStatus().Status; status != Stopped {
		t.Fatalf("expected status STOPPED after stop, got %s", status)
	}
}

func TestConnectorServiceStartConnectFailure(t *testing.T) {
	service := NewConnectorService(Config{Name: "billing"}, &flakyDatabase{failConnect: true}, nil)

	err := service.Start(context.Background())
	if err == nil {
		t.Fatal("expected start to fail when the database connect fails")
	}
	if !errors.Is(err, errConnectionRefused) {
		t.Errorf("expected the connect cause to be propagated wrapped, got %v", err)
	}
	if status := service.GetStatus().Status; status != Error {
		t.Errorf("expected status ERROR after a failed start, got %s", status)
	}
}

func TestConnectorServiceStopCloseFailure(t *testing.T) {
	service := NewConnectorService(Config{Name: "billing"}, &flakyDatabase{failClose: true}, nil)
	ctx := context.Background()

	if err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := service.Stop(ctx)
	if err == nil {
		t.Fatal("expected stop to fail when the database close fails")
	}
	if !errors.Is(err, errConnectionRefused) {
		t.Errorf("expected the close cause to be propagated wrapped, got %v", err)
	}
	if status := service.GetStatus().Status; status != Error {
		t.Errorf("expected status ERROR after a failed stop, got %s", status)
	}
}

func TestConnectorServiceStartFromErrorStatus(t *testing.T) {
	database := &flakyDatabase{failConnect: true}
	service := NewConnectorService(Config{Name: "billing"}, database, nil)
	ctx := context.Background()

	if err := service.Start(ctx); err == nil {
		t.Fatal("expected start to fail")
	}

	database.failConnect = false
	if err := service.Start(ctx); err != nil {
		t.Fatalf("expected start to recover from the error status: %v", err)
	}
	if status := service.GetStatus().Status; status != Running {
		t.Errorf("expected status RUNNING after recovery, got %s", status)
	}
}

func TestConnectorServiceIllegalTransitions(t *testing.T) {
	service := NewConnectorService(Config{Name: "billing"}, nil, nil)
	ctx := context.Background()

	if err := service.Stop(ctx); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning on stop of a stopped service, got %v", err)
	}

	if err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning on double start, got %v", err)
	}
}

func TestConnectorServiceUptime(t *testing.T) {
	service := NewConnectorService(Config{Name: "billing"}, nil, nil)
	ctx := context.Background()

	if uptime := service.GetStatus().Uptime; uptime != 0 {
		t.Errorf("expected uptime 0 before start, got %f", uptime)
	}

	if err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if uptime := service.GetStatus().Uptime; uptime < 0 {
		t.Errorf("expected non-negative uptime after start, got %f", uptime)
	}

	if err := service.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if uptime := service.GetStatus().Uptime; uptime != 0 {
		t.Errorf("expected uptime 0 after stop, got %f", uptime)
	}
}

func TestConnectorServiceTransitionSequence(t *testing.T) {
	service := NewConnectorService(Config{Name: "billing"}, connector.NewMemoryDatabase(), nil)
	ctx := context.Background()

	transitions := make([]Transition, 0)
	service.SetTransitionListener(func(transition Transition) {
		transitions = append(transitions, transition)
	})

	if err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	expected := []Status{Starting, Running, Stopping, Stopped}
	if len(transitions) != len(expected) {
		t.Fatalf("expected %d transitions, got %d", len(expected), len(transitions))
	}
	for i, status := range expected {
		if transitions[i].ToStatus != status {
			t.Errorf("transition %d: expected %s, got %s", i, status, transitions[i].ToStatus)
		}
		if transitions[i].ServiceName != "billing" {
			t.Errorf("transition %d: expected service name billing, got %s", i, transitions[i].ServiceName)
		}
	}

	if transitions[0].FromStatus != Stopped {
		t.Errorf("expected the first transition to leave STOPPED, got %s", transitions[0].FromStatus)
	}
}

func TestConnectorServiceHealthCheck(t *testing.T) {
	service := NewConnectorService(Config{Name: "billing"}, connector.NewMemoryDatabase(), connector.NewMemoryCache())
	ctx := context.Background()

	if err := service.HealthCheck(ctx); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning on health check of a stopped service, got %v", err)
	}

	if err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := service.HealthCheck(ctx); err != nil {
		t.Errorf("expected healthy running service, got %v", err)
	}
}
