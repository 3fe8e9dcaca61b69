package history

import (
	"github.com/lucinametrics/lucina-service-api/v5/internal/supervisor"
	"go.uber.org/zap"
)

// Recorder persists every service status transition and forwards it to the optional
// elasticsearch exporter. It is registered as a transition sink on the service manager.
type Recorder struct {
	exporter *ElasticExporter
}

// NewRecorder returns a new instance of Recorder (exporter may be nil when the
// elasticsearch export is disabled)
func NewRecorder(exporter *ElasticExporter) *Recorder {
	return &Recorder{exporter: exporter}
}

// OnTransition persists a single status transition
func (rec *Recorder) OnTransition(transition supervisor.Transition) {
	record := NewRecord(transition)

	id, err := R().Create(record)
	if err != nil {
		zap.L().Error("Persist status transition", zap.String("service", record.ServiceName),
			zap.String("from", record.FromStatus.String()), zap.String("to", record.ToStatus.String()),
			zap.Error(err))
		return
	}
	record.ID = id

	if rec.exporter != nil {
		_ = rec.exporter.Export(record)
	}
}
