package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/message-router/internal/config"
	"github.com/spec-kit/message-router/internal/domain"
	"github.com/spec-kit/message-router/internal/repository"
)

type stubMessageRepo struct {
	pending    []domain.Message
	lastCutoff time.Time
	lastLimit  int
}

var _ repository.MessageRepository = (*stubMessageRepo)(nil)

func (r *stubMessageRepo) Create(context.Context, *domain.Message) error { return nil }

func (r *stubMessageRepo) GetByID(context.Context, string) (*domain.Message, error) {
	return nil, nil
}

func (r *stubMessageRepo) MarkInProgress(context.Context, string) error { return nil }

func (r *stubMessageRepo) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]domain.Message, error) {
	r.lastCutoff = cutoff
	r.lastLimit = limit
	return r.pending, nil
}

func routingConfig(schedule string) config.RoutingConfig {
	return config.RoutingConfig{
		RequeueSchedule:      schedule,
		RequeueMinAgeSeconds: 120,
		RequeueBatchSize:     50,
	}
}

func TestRequeueWorkerRejectsInvalidSchedule(t *testing.T) {
	w := NewRequeueWorker(&stubMessageRepo{}, nil, routingConfig("not a schedule"), zap.NewNop())
	assert.Error(t, w.Start())
}

func TestRequeueWorkerStartStop(t *testing.T) {
	w := NewRequeueWorker(&stubMessageRepo{}, nil, routingConfig("@every 1h"), zap.NewNop())
	require.NoError(t, w.Start())
	w.Stop()
}

func TestRequeueSweepHonorsMinAgeAndBatchSize(t *testing.T) {
	repo := &stubMessageRepo{}
	w := NewRequeueWorker(repo, nil, routingConfig("@every 1h"), zap.NewNop())

	before := time.Now().Add(-2 * time.Minute)
	w.sweep()

	assert.Equal(t, 50, repo.lastLimit)
	assert.False(t, repo.lastCutoff.Before(before), "cutoff sits min-age behind now")
	assert.True(t, repo.lastCutoff.Before(time.Now()))
}
