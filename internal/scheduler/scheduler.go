package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	_globalInternalSchedulerMu sync.RWMutex
	_globalInternalScheduler   *InternalScheduler

	// cronParser accepts the standard five-field expressions plus descriptors (@daily, ...)
	cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// S is used to access the global scheduler singleton
func S() *InternalScheduler {
	_globalInternalSchedulerMu.RLock()
	defer _globalInternalSchedulerMu.RUnlock()

	return _globalInternalScheduler
}

// ReplaceGlobals affects a new scheduler to the global scheduler singleton,
// and returns a function restoring the previous one
func ReplaceGlobals(scheduler *InternalScheduler) func() {
	_globalInternalSchedulerMu.Lock()
	defer _globalInternalSchedulerMu.Unlock()

	prev := _globalInternalScheduler
	_globalInternalScheduler = scheduler
	return func() { ReplaceGlobals(prev) }
}

// InternalScheduler drives the background maintenance jobs through a cron runner.
// It tracks which schedule is currently executing so a slow job is never started twice.
type InternalScheduler struct {
	mu          sync.RWMutex
	C           *cron.Cron
	Jobs        map[int64]cron.EntryID
	runningJobs map[int64]struct{}
}

// NewScheduler returns a pointer to a new instance of InternalScheduler
func NewScheduler() *InternalScheduler {
	return &InternalScheduler{
		C:           cron.New(),
		Jobs:        make(map[int64]cron.EntryID),
		runningJobs: make(map[int64]struct{}),
	}
}

// Init loads the enabled job schedules from the repository
func (s *InternalScheduler) Init() error {
	schedules, err := R().GetAll()
	if err != nil {
		return err
	}

	loaded := 0
	for _, schedule := range schedules {
		if !schedule.Enabled {
			continue
		}
		if err := s.AddJobSchedule(schedule); err != nil {
			return err
		}
		loaded++
	}
	zap.L().Info("Job schedules loaded", zap.Int("count", loaded))
	return nil
}

// AddJobSchedule adds a schedule to the cron runner, replacing any previous
// entry registered under the same schedule ID
func (s *InternalScheduler) AddJobSchedule(schedule InternalSchedule) error {
	zap.L().Info("Adding new schedule", zap.Any("schedule", schedule))

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.Jobs[schedule.ID]; ok {
		s.C.Remove(entryID)
	}

	entryID, err := s.C.AddJob(schedule.CronExpr, schedule.Job)
	if err != nil {
		return err
	}
	s.Jobs[schedule.ID] = entryID
	return nil
}

// RemoveJobSchedule removes a schedule from the cron runner
func (s *InternalScheduler) RemoveJobSchedule(scheduleID int64) {
	zap.L().Info("Removing schedule", zap.Int64("schedule", scheduleID))

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.Jobs[scheduleID]; ok {
		s.C.Remove(entryID)
		delete(s.Jobs, scheduleID)
	}
}

// ExistingRunningJob checks if the job of a schedule is currently executing
func (s *InternalScheduler) ExistingRunningJob(scheduleID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.runningJobs[scheduleID]
	return ok
}

// AddRunningJob marks the job of a schedule as currently executing
func (s *InternalScheduler) AddRunningJob(scheduleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runningJobs[scheduleID] = struct{}{}
}

// RemoveRunningJob clears the executing mark of a schedule
func (s *InternalScheduler) RemoveRunningJob(scheduleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runningJobs, scheduleID)
}
