// Package jobs tracks the stages of a pipeline run: when each started and
// finished, how it ended, and what it logged.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobSkipped   JobStatus = "skipped"
)

type Job struct {
	ID        string
	Name      string
	Status    JobStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error
	Logs      []string
	mu        sync.RWMutex
}

// Snapshot is a copy of a job's state safe to read after the job moves on.
type Snapshot struct {
	ID        string
	Name      string
	Status    JobStatus
	StartTime time.Time
	Duration  time.Duration
	Error     error
	Logs      []string
}

// Manager records jobs in the order they were created.
type Manager struct {
	jobs   []*Job
	byID   map[string]*Job
	logger *zap.Logger
	now    func() time.Time
	mu     sync.RWMutex
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		byID:   make(map[string]*Job),
		logger: logger,
		now:    time.Now,
	}
}

func (m *Manager) CreateJob(name string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:     fmt.Sprintf("%02d_%s", len(m.jobs)+1, name),
		Name:   name,
		Status: JobPending,
		Logs:   []string{},
	}

	m.jobs = append(m.jobs, job)
	m.byID[job.ID] = job
	return job
}

func (m *Manager) GetJob(jobID string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.byID[jobID]
	return job, exists
}

// Track runs fn as a new job named name, recording its status, timing and
// error. The error of fn is returned unchanged.
func (m *Manager) Track(name string, fn func(job *Job) error) error {
	job := m.CreateJob(name)

	job.start(m.now())
	m.logger.Debug("stage started", zap.String("stage", name))

	err := fn(job)
	end := m.now()
	if err != nil {
		job.fail(err, end)
		m.logger.Error("stage failed",
			zap.String("stage", name),
			zap.Duration("elapsed", end.Sub(job.StartTime)),
			zap.Error(err),
		)
		return err
	}

	job.SetStatus(JobCompleted, end)
	m.logger.Info("stage completed",
		zap.String("stage", name),
		zap.Duration("elapsed", end.Sub(job.StartTime)),
	)
	return nil
}

// Skip records a job that was not run.
func (m *Manager) Skip(name, reason string) {
	job := m.CreateJob(name)
	now := m.now()
	job.start(now)
	job.AddLog(reason)
	job.SetStatus(JobSkipped, now)
	m.logger.Debug("stage skipped", zap.String("stage", name), zap.String("reason", reason))
}

func (m *Manager) ListJobs() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, len(m.jobs))
	for i, job := range m.jobs {
		out[i] = job.Snapshot()
	}
	return out
}

// Elapsed spans from the first job's start to the last job's end.
func (m *Manager) Elapsed() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.jobs) == 0 {
		return 0
	}
	first := m.jobs[0].Snapshot()
	last := m.jobs[len(m.jobs)-1].Snapshot()
	return last.StartTime.Add(last.Duration).Sub(first.StartTime)
}

func (j *Job) start(at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = JobRunning
	j.StartTime = at
}

func (j *Job) fail(err error, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Error = err
	j.Status = JobFailed
	j.EndTime = &at
}

func (j *Job) SetStatus(status JobStatus, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	if status == JobCompleted || status == JobFailed || status == JobSkipped {
		j.EndTime = &at
	}
}

func (j *Job) AddLog(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Logs = append(j.Logs, message)
}

func (j *Job) Logf(format string, args ...any) {
	j.AddLog(fmt.Sprintf(format, args...))
}

func (j *Job) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

func (j *Job) Snapshot() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s := Snapshot{
		ID:        j.ID,
		Name:      j.Name,
		Status:    j.Status,
		StartTime: j.StartTime,
		Error:     j.Error,
		Logs:      append([]string(nil), j.Logs...),
	}
	if j.EndTime != nil {
		s.Duration = j.EndTime.Sub(j.StartTime)
	}
	return s
}
