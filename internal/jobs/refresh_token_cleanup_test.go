package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockTokenPurger struct {
	mock.Mock
}

func (m *MockTokenPurger) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestRefreshTokenCleanupJob_RunOnce(t *testing.T) {
	purger := new(MockTokenPurger)
	purger.On("PurgeExpired", mock.Anything).Return(int64(3), nil).Once()

	job := NewRefreshTokenCleanupJob(purger, "@daily", zap.NewNop())
	job.RunOnce()

	purger.AssertExpectations(t)
}

func TestRefreshTokenCleanupJob_RunOnceError(t *testing.T) {
	purger := new(MockTokenPurger)
	purger.On("PurgeExpired", mock.Anything).Return(int64(0), errors.New("db down")).Once()

	job := NewRefreshTokenCleanupJob(purger, "@daily", zap.NewNop())
	assert.NotPanics(t, job.RunOnce)
	purger.AssertExpectations(t)
}

func TestRefreshTokenCleanupJob_Schedule(t *testing.T) {
	purger := new(MockTokenPurger)

	disabled := NewRefreshTokenCleanupJob(purger, "", zap.NewNop())
	assert.NoError(t, disabled.SetupAndStart())
	disabled.Stop()

	invalid := NewRefreshTokenCleanupJob(purger, "not a cron spec", zap.NewNop())
	assert.Error(t, invalid.SetupAndStart())

	valid := NewRefreshTokenCleanupJob(purger, "@every 1h", zap.NewNop())
	assert.NoError(t, valid.SetupAndStart())
	valid.Stop()

	purger.AssertNotCalled(t, "PurgeExpired", mock.Anything)
}
