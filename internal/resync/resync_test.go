package resync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) LookupOrder(ctx context.Context, orderId int64) (*entity.Order, error) {
	args := m.Called(ctx, orderId)
	o, _ := args.Get(0).(*entity.Order)
	return o, args.Error(1)
}

func (m *mockSource) ModifiedOrderIds(ctx context.Context, since time.Time) ([]int64, error) {
	args := m.Called(ctx, since)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

type mockIngester struct {
	mock.Mock
}

func (m *mockIngester) Ingest(ctx context.Context, orderId int64) error {
	return m.Called(ctx, orderId).Error(0)
}

func (m *mockIngester) UpdateStatus(ctx context.Context, orderId int64, newStatus string) error {
	return m.Called(ctx, orderId, newStatus).Error(0)
}

func newTestWorker(ing *mockIngester, src *mockSource, now time.Time) *Worker {
	w := New(&Config{WorkerInterval: time.Hour, Lookback: 2 * time.Hour}, ing, src)
	w.now = func() time.Time { return now }
	return w
}

func TestSyncAdvancesHighWaterMark(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	src := &mockSource{}
	ing := &mockIngester{}
	src.On("ModifiedOrderIds", ctx, now.Add(-2*time.Hour)).Return([]int64{1, 2}, nil).Once()
	ing.On("Ingest", ctx, int64(1)).Return(nil).Once()
	ing.On("Ingest", ctx, int64(2)).Return(nil).Once()

	w := newTestWorker(ing, src, now)
	require.NoError(t, w.Sync(ctx))

	later := now.Add(10 * time.Minute)
	w.now = func() time.Time { return later }
	src.On("ModifiedOrderIds", ctx, now).Return([]int64{}, nil).Once()
	require.NoError(t, w.Sync(ctx))

	src.AssertExpectations(t)
	ing.AssertExpectations(t)
}

func TestSyncKeepsMarkOnFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	since := now.Add(-2 * time.Hour)

	src := &mockSource{}
	ing := &mockIngester{}
	src.On("ModifiedOrderIds", ctx, since).Return([]int64{1, 2}, nil).Twice()
	ing.On("Ingest", ctx, int64(1)).Return(errors.New("boom")).Once()
	ing.On("Ingest", ctx, int64(2)).Return(nil).Once()

	w := newTestWorker(ing, src, now)
	err := w.Sync(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	// the next run starts from the same point
	ing.On("Ingest", ctx, int64(1)).Return(nil).Once()
	ing.On("Ingest", ctx, int64(2)).Return(nil).Once()
	w.now = func() time.Time { return now.Add(time.Minute) }
	require.NoError(t, w.Sync(ctx))

	src.AssertExpectations(t)
	ing.AssertExpectations(t)
}

func TestSyncSkipsDeletedOrders(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	src := &mockSource{}
	ing := &mockIngester{}
	src.On("ModifiedOrderIds", ctx, now.Add(-2*time.Hour)).Return([]int64{1, 2}, nil).Once()
	ing.On("Ingest", ctx, int64(1)).Return(fmt.Errorf("can't lookup order 1: %w", gerr.OrderNotFound)).Once()
	ing.On("Ingest", ctx, int64(2)).Return(nil).Once()

	w := newTestWorker(ing, src, now)
	require.NoError(t, w.Sync(ctx))

	// the deleted order does not pin the mark
	later := now.Add(10 * time.Minute)
	w.now = func() time.Time { return later }
	src.On("ModifiedOrderIds", ctx, now).Return([]int64{}, nil).Once()
	require.NoError(t, w.Sync(ctx))

	src.AssertExpectations(t)
	ing.AssertExpectations(t)
}

func TestSyncFirstRunWindowIsFixedUntilSuccess(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	since := now.Add(-2 * time.Hour)

	src := &mockSource{}
	ing := &mockIngester{}
	src.On("ModifiedOrderIds", ctx, since).Return([]int64{3}, nil).Times(3)
	ing.On("Ingest", ctx, int64(3)).Return(errors.New("boom")).Twice()
	ing.On("Ingest", ctx, int64(3)).Return(nil).Once()

	w := newTestWorker(ing, src, now)
	for i := 1; i <= 2; i++ {
		w.now = func() time.Time { return now.Add(time.Duration(i) * time.Hour) }
		require.Error(t, w.Sync(ctx))
	}
	require.NoError(t, w.Sync(ctx))

	src.AssertExpectations(t)
	ing.AssertExpectations(t)
}

func TestSyncSourceError(t *testing.T) {
	ctx := context.Background()
	src := &mockSource{}
	ing := &mockIngester{}
	src.On("ModifiedOrderIds", ctx, mock.Anything).Return(nil, errors.New("timeout"))

	w := newTestWorker(ing, src, time.Now())
	require.Error(t, w.Sync(ctx))
	ing.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestStartStop(t *testing.T) {
	w := New(nil, &mockIngester{}, &mockSource{})
	assert.Equal(t, DefaultConfig(), *w.c)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	assert.Error(t, w.Stop())
}
