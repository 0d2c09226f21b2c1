package scheduler

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/upload"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start on a started scheduler
var ErrAlreadyRunning = errors.New("reconcile scheduler is already running")

// RunFunc performs one reconcile pass
type RunFunc func(ctx context.Context) (*upload.ReconcileResult, error)

// RetryPolicy defines how failed passes are retried before the next interval
type RetryPolicy struct {
	MaxRetries    int           `json:"maxRetries"`
	BaseDelay     time.Duration `json:"baseDelay"`
	MaxDelay      time.Duration `json:"maxDelay"`
	BackoffFactor float64       `json:"backoffFactor"`
}

// Run records one reconcile pass
type Run struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
	Duration   time.Duration `json:"duration"`
	RetryCount int           `json:"retryCount"`
	Removed    []string      `json:"removed,omitempty"`
	Failed     []string      `json:"failed,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Status is what the admin endpoint reports
type Status struct {
	Running  bool          `json:"running"`
	Interval time.Duration `json:"interval"`
	NextRun  *time.Time    `json:"nextRun,omitempty"`
	LastRun  *Run          `json:"lastRun,omitempty"`
	Runs     int           `json:"runs"`
	Failures int           `json:"failures"`
}

type Config struct {
	Interval    time.Duration
	RetryPolicy RetryPolicy
	Logger      *zap.Logger
}

// Reconciler periodically removes upload folders no song row references
type Reconciler struct {
	logger   *zap.Logger
	run      RunFunc
	interval time.Duration
	policy   RetryPolicy

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	nextRun  time.Time
	lastRun  *Run
	runs     int
	failures int
}

// NewReconciler builds a stopped scheduler
func NewReconciler(run RunFunc, cfg Config) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.RetryPolicy.MaxRetries == 0 {
		cfg.RetryPolicy = RetryPolicy{
			MaxRetries:    3,
			BaseDelay:     time.Minute,
			MaxDelay:      10 * time.Minute,
			BackoffFactor: 2.0,
		}
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Reconciler{
		logger:   lg.Named("scheduler.reconcile"),
		run:      run,
		interval: cfg.Interval,
		policy:   cfg.RetryPolicy,
	}
}

// Start launches the loop. The first pass runs one interval after start.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.nextRun = time.Now().Add(r.interval)

	r.logger.Info("starting reconcile scheduler", zap.Duration("interval", r.interval))
	go r.loop(ctx, r.done)
	return nil
}

// Stop cancels the loop and waits for a pass in progress to return
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	done := r.done
	r.mu.Unlock()

	<-done
	r.logger.Info("reconcile scheduler stopped")
}

func (r *Reconciler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
			r.mu.Lock()
			r.nextRun = time.Now().Add(r.interval)
			r.mu.Unlock()
		}
	}
}

// RunOnce performs a pass, retrying with backoff on failure
func (r *Reconciler) RunOnce(ctx context.Context) *Run {
	run := &Run{ID: uuid.NewString(), StartTime: time.Now()}
	for attempt := 0; ; attempt++ {
		run.RetryCount = attempt
		res, err := r.run(ctx)
		if err == nil {
			run.Status = "success"
			run.Removed = res.Removed
			run.Failed = res.Failed
			if len(res.Failed) > 0 {
				run.Status = "partial"
			}
			run.Error = ""
			break
		}
		run.Status = "failed"
		run.Error = err.Error()
		if attempt >= r.policy.MaxRetries || ctx.Err() != nil {
			break
		}

		delay := r.backoff(attempt + 1)
		r.logger.Warn("reconcile pass failed, retrying",
			zap.String("run_id", run.ID),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			run.Error = ctx.Err().Error()
		case <-time.After(delay):
			continue
		}
		break
	}
	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(run.StartTime)

	r.mu.Lock()
	r.lastRun = run
	r.runs++
	if run.Status == "failed" {
		r.failures++
	}
	r.mu.Unlock()

	switch run.Status {
	case "failed":
		r.logger.Error("reconcile pass failed",
			zap.String("run_id", run.ID),
			zap.Int("retry_count", run.RetryCount),
			zap.String("error", run.Error))
	default:
		r.logger.Info("reconcile pass finished",
			zap.String("run_id", run.ID),
			zap.String("status", run.Status),
			zap.Int("removed", len(run.Removed)),
			zap.Duration("duration", run.Duration))
	}
	return run
}

func (r *Reconciler) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(r.policy.BaseDelay) * math.Pow(r.policy.BackoffFactor, float64(attempt-1)))
	if delay > r.policy.MaxDelay {
		delay = r.policy.MaxDelay
	}
	return delay
}

// Status returns a snapshot of the scheduler state
func (r *Reconciler) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := Status{
		Running:  r.running,
		Interval: r.interval,
		Runs:     r.runs,
		Failures: r.failures,
	}
	if r.running {
		next := r.nextRun
		st.NextRun = &next
	}
	if r.lastRun != nil {
		last := *r.lastRun
		st.LastRun = &last
	}
	return st
}
