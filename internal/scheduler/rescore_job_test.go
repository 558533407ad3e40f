package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"PredictionLeague/internal/logger"
	"PredictionLeague/internal/service"
)

type countingRescorer struct {
	calls atomic.Int32
	err   error
}

func (c *countingRescorer) RescorePending(context.Context) (*service.RescoreReport, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &service.RescoreReport{Pending: 1, Rescored: 1}, nil
}

func TestRunOnce(t *testing.T) {
	r := &countingRescorer{}
	s := NewRescoreScheduler(r, "@every 1h", logger.Discard())
	s.RunOnce(context.Background())
	r.err = errors.New("db down")
	s.RunOnce(context.Background())
	if got := r.calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewRescoreScheduler(&countingRescorer{}, "every five minutes", logger.Discard())
	if err := s.Start(); err == nil {
		t.Fatal("bad cron spec accepted")
	}
}

func TestStartRunsJob(t *testing.T) {
	r := &countingRescorer{}
	s := NewRescoreScheduler(r, "* * * * * *", logger.Discard())
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for r.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if r.calls.Load() == 0 {
		t.Fatal("job did not run within 3s")
	}
}
