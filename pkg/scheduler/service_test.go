package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls   atomic.Int32
	rebuild bool
	err     error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (bool, error) {
	f.calls.Add(1)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return f.rebuild, f.err
}

func TestRunNowRecordsOutcome(t *testing.T) {
	r := &fakeRefresher{rebuild: true}
	s, err := NewService(r, "", time.Second)
	require.NoError(t, err)

	rebuilt, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.True(t, rebuilt)

	st := s.Status()
	assert.False(t, st.Enabled)
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 1, st.Rebuilds)
	assert.NotNil(t, st.LastRun)
	assert.Nil(t, st.NextRun)
	assert.Empty(t, st.LastError)
}

func TestRunNowRecordsError(t *testing.T) {
	r := &fakeRefresher{err: errors.New("source unreadable")}
	s, err := NewService(r, "", 0)
	require.NoError(t, err)

	_, err = s.RunNow(context.Background())
	assert.Error(t, err)

	st := s.Status()
	assert.Equal(t, "source unreadable", st.LastError)
	assert.Equal(t, 0, st.Rebuilds)

	// a later success clears the error
	r.err = nil
	_, err = s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Status().LastError)
	assert.Equal(t, 2, s.Status().Runs)
}

func TestNewServiceRejectsBadSchedule(t *testing.T) {
	_, err := NewService(&fakeRefresher{}, "every minute", 0)
	assert.Error(t, err)
}

func TestScheduledRefreshRuns(t *testing.T) {
	r := &fakeRefresher{}
	s, err := NewService(r, "@every 1s", 0)
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.True(t, s.Status().Enabled)
	assert.NotNil(t, s.Status().NextRun)
	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
}

func TestDisabledSchedulerStartStop(t *testing.T) {
	r := &fakeRefresher{}
	s, err := NewService(r, "", 0)
	require.NoError(t, err)

	s.Start()
	s.Stop()
	assert.Equal(t, int32(0), r.calls.Load())
}
