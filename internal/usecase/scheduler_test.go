package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	results []error
	calls   int
}

func (r *scriptedRunner) RunOnce(context.Context) error {
	var err error
	if r.calls < len(r.results) {
		err = r.results[r.calls]
	}
	r.calls++
	return err
}

func TestSchedulerUsesRetryIntervalAfterFailure(t *testing.T) {
	t.Parallel()

	// Arrange
	runner := &scriptedRunner{results: []error{nil, errors.New("upstream"), nil}}
	s := NewScheduler(runner, time.Hour, 5*time.Minute, nil)

	ctx, cancel := context.WithCancel(t.Context())
	var waits []time.Duration
	s.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		if len(waits) == 3 {
			cancel()
		}
		return ctx.Err()
	}

	// Act
	err := s.Run(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, runner.calls)
	assert.Equal(t, []time.Duration{time.Hour, 5 * time.Minute, time.Hour}, waits)
}

func TestSchedulerStopsPromptlyDuringWait(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{}
	s := NewScheduler(runner, time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 1, runner.calls)
}

func TestSchedulerDefaults(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&scriptedRunner{}, 0, 0, nil)
	assert.Equal(t, time.Hour, s.interval)
	assert.Equal(t, 5*time.Minute, s.retryInterval)
}
