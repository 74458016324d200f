package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeClock advances one second per reading.
func fakeClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestManager_TrackRecordsEveryStage(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := NewManager(zap.New(core))
	m.now = fakeClock()

	require.NoError(t, m.Track("load", func(job *Job) error {
		job.Logf("read %d rows", 7043)
		return nil
	}))
	boom := errors.New("boom")
	err := m.Track("clean", func(*Job) error { return boom })
	assert.Same(t, boom, err)
	m.Skip("charts", "no plot directory")

	jobs := m.ListJobs()
	require.Len(t, jobs, 3)

	assert.Equal(t, "01_load", jobs[0].ID)
	assert.Equal(t, JobCompleted, jobs[0].Status)
	assert.Equal(t, time.Second, jobs[0].Duration)
	assert.Equal(t, []string{"read 7043 rows"}, jobs[0].Logs)

	assert.Equal(t, JobFailed, jobs[1].Status)
	assert.ErrorIs(t, jobs[1].Error, boom)

	assert.Equal(t, JobSkipped, jobs[2].Status)
	assert.Equal(t, time.Duration(0), jobs[2].Duration)

	// load 1s..2s, clean 3s..4s, charts at 5s.
	assert.Equal(t, 4*time.Second, m.Elapsed())

	assert.Equal(t, 1, logs.FilterMessage("stage completed").Len())
	failed := logs.FilterMessage("stage failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "clean", failed[0].ContextMap()["stage"])

	job, ok := m.GetJob("02_clean")
	require.True(t, ok)
	assert.Equal(t, JobFailed, job.GetStatus())
}

func TestManager_Empty(t *testing.T) {
	m := NewManager(nil)
	assert.Empty(t, m.ListJobs())
	assert.Equal(t, time.Duration(0), m.Elapsed())
}
