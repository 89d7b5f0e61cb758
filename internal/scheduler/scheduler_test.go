package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/revcast/pkg/logger"
)

// scriptedJob fails the first failures calls with err
type scriptedJob struct {
	name     string
	schedule string
	failures int
	err      error

	mu    sync.Mutex
	calls int
}

func (j *scriptedJob) Name() string     { return j.name }
func (j *scriptedJob) Schedule() string { return j.schedule }

func (j *scriptedJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	if j.calls <= j.failures {
		return j.err
	}
	return nil
}

func newJob(name string, failures int, err error) *scriptedJob {
	return &scriptedJob{name: name, schedule: "@monthly", failures: failures, err: err}
}

func newScheduler(maxRetries int) *Scheduler {
	return New(Options{MaxRetries: maxRetries, RetryDelay: time.Millisecond}, logger.NewNop())
}

func TestAddJob(t *testing.T) {
	s := newScheduler(0)

	require.NoError(t, s.AddJob(newJob("b", 0, nil)))
	require.NoError(t, s.AddJob(newJob("a", 0, nil)))

	err := s.AddJob(newJob("a", 0, nil))
	assert.EqualError(t, err, "job a already exists")

	bad := newJob("bad", 0, nil)
	bad.schedule = "not a cron"
	assert.Error(t, s.AddJob(bad))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newScheduler(0)
	require.NoError(t, s.AddJob(newJob("a", 0, nil)))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJobSync_Retries(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name         string
		maxRetries   int
		failures     int
		err          error
		wantSuccess  bool
		wantAttempts int
	}{
		{"first try", 2, 0, nil, true, 1},
		{"recovers on retry", 2, 2, boom, true, 3},
		{"retries exhausted", 1, 5, boom, false, 2},
		{"permanent error", 3, 5, Permanent(boom), false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScheduler(tt.maxRetries)
			job := newJob("job", tt.failures, tt.err)
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJobSync(context.Background(), "job")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantAttempts, result.Attempts)
			assert.Equal(t, tt.wantAttempts, job.calls)
			if !tt.wantSuccess {
				assert.Equal(t, "boom", result.Error)
			}

			history, err := s.GetJobHistory("job")
			require.NoError(t, err)
			assert.Len(t, history, 1)
		})
	}
}

func TestRunJobSync_UnknownJob(t *testing.T) {
	s := newScheduler(0)

	_, err := s.RunJobSync(context.Background(), "missing")
	assert.EqualError(t, err, "job missing not found")
	assert.Error(t, s.RunJob("missing"))
}

func TestRunJobSync_CanceledContextStopsRetries(t *testing.T) {
	s := New(Options{MaxRetries: 5, RetryDelay: time.Hour}, logger.NewNop())
	job := newJob("job", 10, errors.New("boom"))
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunJobSync(ctx, "job")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
}

func TestRunJob_StopWaits(t *testing.T) {
	s := newScheduler(0)
	require.NoError(t, s.AddJob(newJob("job", 0, nil)))

	s.Start()
	require.NoError(t, s.RunJob("job"))
	s.Stop()

	history, err := s.GetJobHistory("job")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestGetJobStats(t *testing.T) {
	s := newScheduler(0)
	job := newJob("job", 1, errors.New("boom"))
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunJobSync(context.Background(), "job") // fails
	_, _ = s.RunJobSync(context.Background(), "job") // succeeds

	stats := s.GetJobStats()
	require.Contains(t, stats, "job")
	st := stats["job"]
	assert.Equal(t, "@monthly", st.Schedule)
	assert.Equal(t, 2, st.TotalRuns)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 1, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	assert.NotNil(t, st.LastSuccess)
	assert.Nil(t, st.LastFailure)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{Success: i%4 != 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(10), 10)
	assert.Len(t, h.GetFailedResults(), 25)
	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-9)
}

func TestPermanent(t *testing.T) {
	base := errors.New("missing")
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.NoError(t, Permanent(nil))
}
