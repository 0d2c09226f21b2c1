package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
}

func TestReconciler_RunOnceSuccess(t *testing.T) {
	r := NewReconciler(func(ctx context.Context) (*upload.ReconcileResult, error) {
		return &upload.ReconcileResult{Orphans: []string{"a_1"}, Removed: []string{"a_1"}}, nil
	}, Config{Interval: time.Hour, RetryPolicy: fastPolicy()})

	run := r.RunOnce(context.Background())
	assert.Equal(t, "success", run.Status)
	assert.Equal(t, []string{"a_1"}, run.Removed)
	assert.NotEmpty(t, run.ID)

	st := r.Status()
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Runs)
	assert.Zero(t, st.Failures)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, run.ID, st.LastRun.ID)
}

func TestReconciler_RetriesThenGivesUp(t *testing.T) {
	var calls atomic.Int32
	r := NewReconciler(func(ctx context.Context) (*upload.ReconcileResult, error) {
		calls.Add(1)
		return nil, errors.New("disk gone")
	}, Config{RetryPolicy: fastPolicy()})

	run := r.RunOnce(context.Background())
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, "disk gone", run.Error)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, run.RetryCount)
	assert.Equal(t, 1, r.Status().Failures)
}

func TestReconciler_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	r := NewReconciler(func(ctx context.Context) (*upload.ReconcileResult, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("busy")
		}
		return &upload.ReconcileResult{Failed: []string{"b_2"}}, nil
	}, Config{RetryPolicy: fastPolicy()})

	run := r.RunOnce(context.Background())
	assert.Equal(t, "partial", run.Status)
	assert.Empty(t, run.Error)
	assert.Equal(t, 1, run.RetryCount)
}

func TestReconciler_Backoff(t *testing.T) {
	r := NewReconciler(nil, Config{})
	assert.Equal(t, time.Minute, r.backoff(1))
	assert.Equal(t, 2*time.Minute, r.backoff(2))
	assert.Equal(t, 10*time.Minute, r.backoff(10))
}

func TestReconciler_StartStop(t *testing.T) {
	var calls atomic.Int32
	r := NewReconciler(func(ctx context.Context) (*upload.ReconcileResult, error) {
		calls.Add(1)
		return &upload.ReconcileResult{}, nil
	}, Config{Interval: 10 * time.Millisecond, RetryPolicy: fastPolicy()})

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRunning)
	st := r.Status()
	assert.True(t, st.Running)
	assert.NotNil(t, st.NextRun)

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()
	assert.False(t, r.Status().Running)
}
