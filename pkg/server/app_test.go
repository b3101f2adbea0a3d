package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"MarketPulse/internal/domain/repository/mock"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/logger"
)

type cancelRunner struct {
	runs   atomic.Int32
	cancel context.CancelFunc
}

func (r *cancelRunner) RunOnce(context.Context) error {
	r.runs.Add(1)
	r.cancel()
	return nil
}

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestRunContextShutsDownInOrder(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	pub := mock.NewMockEventPublisher(ctrl)
	pub.EXPECT().Close().Return(nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &cancelRunner{cancel: cancel}

	cfg := config.Default()
	cfg.Server.ShutdownTimeout = time.Second
	res := &closer{}
	app := New(cfg, logger.Nop(), usecase.NewScheduler(runner, time.Hour, time.Minute, nil), nil, pub, res, nil)

	// Act
	err := app.RunContext(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int32(1), runner.runs.Load())
	assert.True(t, res.closed)
}

func TestShutdownJoinsCloseErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	pub := mock.NewMockEventPublisher(ctrl)
	pub.EXPECT().Close().Return(errors.New("producer"))

	res := &closer{err: errors.New("redis")}
	app := New(config.Default(), logger.Nop(), nil, nil, pub, res)

	err := app.shutdown()

	assert.ErrorContains(t, err, "producer")
	assert.ErrorContains(t, err, "redis")
	assert.True(t, res.closed)
}
