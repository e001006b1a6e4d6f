// Package schedule drives a single repeatable task with a jittered pause
// between runs.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"
)

const (
	MinInterval = 45 * time.Second
	MaxInterval = 120 * time.Second
)

// Task is one iteration of work. An error ends the schedule.
type Task func(ctx context.Context) error

// Delay picks the pause before the next iteration.
type Delay func() time.Duration

// Sleep pauses for d or until ctx is done.
type Sleep func(ctx context.Context, d time.Duration) error

// Jitter returns a Delay that picks a uniformly random whole number of seconds
// in [minD, maxD], both ends included. A nil src uses the global generator.
func Jitter(minD, maxD time.Duration, src rand.Source) Delay {
	lo := int64(minD / time.Second)
	hi := int64(maxD / time.Second)
	if hi < lo {
		lo, hi = hi, lo
	}
	span := hi - lo + 1
	pick := rand.Int64N
	if src != nil {
		pick = rand.New(src).Int64N
	}
	return func() time.Duration {
		return time.Duration(lo+pick(span)) * time.Second
	}
}

// DefaultDelay waits between 45 and 120 seconds.
func DefaultDelay() Delay { return Jitter(MinInterval, MaxInterval, nil) }

// SleepContext is the real Sleep.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Scheduler runs Task, sleeps for Delay, and repeats until the task fails or
// ctx is canceled.
type Scheduler struct {
	Task   Task
	Delay  Delay
	Sleep  Sleep
	Logger *slog.Logger
}

// New returns a Scheduler using the default 45–120s jitter and a real sleep.
func New(task Task, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Scheduler{
		Task:   task,
		Delay:  DefaultDelay(),
		Sleep:  SleepContext,
		Logger: logger,
	}
}

// RunOnce executes the task a single time.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.Task(ctx); err != nil {
		return fmt.Errorf("run iteration: %w", err)
	}
	return nil
}

// Run loops forever. It returns the first task error, which is not retried,
// or ctx.Err() once the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.RunOnce(ctx); err != nil {
			return err
		}
		wait := s.Delay()
		s.Logger.InfoContext(ctx, "waiting before next iteration", "seconds", int(wait/time.Second))
		if err := s.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}
