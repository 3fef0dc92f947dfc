package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeRepo serves the sub-stores the engine uses; any other call panics.
type fakeRepo struct {
	dependency.Repository
	facts dependency.Facts
	costs dependency.Costs
	cls   dependency.Classification
}

func (r *fakeRepo) Facts() dependency.Facts                   { return r.facts }
func (r *fakeRepo) Costs() dependency.Costs                   { return r.costs }
func (r *fakeRepo) Classification() dependency.Classification { return r.cls }

type memFacts struct {
	mu      sync.Mutex
	rows    map[int64]entity.OrderFact
	upserts int
	updates int
}

func newMemFacts() *memFacts {
	return &memFacts{rows: make(map[int64]entity.OrderFact)}
}

func (m *memFacts) UpsertFact(_ context.Context, f *entity.OrderFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	row := *f
	if old, ok := m.rows[f.OrderId]; ok {
		row.OrderCreatedAt = old.OrderCreatedAt
	}
	m.rows[f.OrderId] = row
	return nil
}

func (m *memFacts) UpdateFactStatus(_ context.Context, upd *entity.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	row, ok := m.rows[upd.OrderId]
	if !ok {
		return nil
	}
	row.RawStatus = upd.RawStatus
	row.IsConverted = upd.IsConverted
	row.CourierOutcome = upd.CourierOutcome
	row.UpdatedAt = upd.UpdatedAt
	m.rows[upd.OrderId] = row
	return nil
}

func (m *memFacts) GetFact(_ context.Context, orderId int64) (*entity.OrderFact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[orderId]
	if !ok {
		return nil, gerr.OrderNotFound
	}
	return &row, nil
}

type staticCosts map[int64]decimal.Decimal

func (c staticCosts) UnitCost(_ context.Context, id int64) (decimal.Decimal, bool, error) {
	v, ok := c[id]
	return v, ok, nil
}

func (c staticCosts) UnitCosts(_ context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal)
	for _, id := range ids {
		if v, ok := c[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (c staticCosts) SetUnitCost(_ context.Context, id int64, cost decimal.Decimal) error {
	c[id] = cost
	return nil
}

type staticClassification struct {
	cfg *entity.ClassificationConfig
}

func (s *staticClassification) ClassificationConfig(context.Context) (*entity.ClassificationConfig, error) {
	return s.cfg, nil
}

func (s *staticClassification) SetClassificationConfig(context.Context, *entity.ClassificationInsert) error {
	return nil
}

type mockSource struct {
	mock.Mock
	onLookup func(ctx context.Context, id int64)
}

func (m *mockSource) LookupOrder(ctx context.Context, id int64) (*entity.Order, error) {
	if m.onLookup != nil {
		m.onLookup(ctx, id)
	}
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*entity.Order)
	return o, args.Error(1)
}

func (m *mockSource) ModifiedOrderIds(ctx context.Context, since time.Time) ([]int64, error) {
	args := m.Called(ctx, since)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

type mockFacts struct {
	mock.Mock
}

func (m *mockFacts) UpsertFact(ctx context.Context, f *entity.OrderFact) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFacts) UpdateFactStatus(ctx context.Context, upd *entity.StatusUpdate) error {
	return m.Called(ctx, upd).Error(0)
}

func (m *mockFacts) GetFact(ctx context.Context, id int64) (*entity.OrderFact, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*entity.OrderFact)
	return f, args.Error(1)
}

func testConfig() *entity.ClassificationConfig {
	return &entity.ClassificationConfig{
		Converted:       entity.NewStatusSet("completed", "delivered"),
		Delivered:       entity.NewStatusSet("delivered"),
		ReturnedFull:    entity.NewStatusSet("returned"),
		ReturnedPartial: entity.NewStatusSet("partial-return"),
		ReturnCharge:    decimal.NewFromInt(60),
	}
}

func testOrder(id int64) *entity.Order {
	return &entity.Order{
		Id:            id,
		CustomerName:  "Rahim",
		CustomerPhone: "8801712345678",
		Status:        "wc-completed",
		Subtotal:      decimal.NewFromInt(300),
		GrandTotal:    decimal.NewFromInt(330),
		DiscountTotal: decimal.NewFromInt(10),
		ShippingTotal: decimal.NewFromInt(40),
		Attribution:   entity.Attribution{UTMSource: "(not set)", SourceType: "typein"},
		CreatedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Lines: []entity.OrderLine{
			{ProductId: 5, VariationId: 51, Name: "Tee - L", Quantity: 2, Subtotal: decimal.NewFromInt(200), Total: decimal.NewFromInt(195), CategoryIds: entity.NewIdSet(3)},
			{ProductId: 7, Name: "Cap", Quantity: 1, Subtotal: decimal.NewFromInt(100), Total: decimal.NewFromInt(95), CategoryIds: entity.NewIdSet(3, 4)},
		},
	}
}

func newTestEngine(facts dependency.Facts, source dependency.OrderSource) *Engine {
	e := New(&fakeRepo{
		facts: facts,
		costs: staticCosts{51: decimal.NewFromInt(40), 7: decimal.NewFromInt(30)},
		cls:   &staticClassification{cfg: testConfig()},
	}, source)
	clock := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return e
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	facts := newMemFacts()
	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(testOrder(1001), nil)
	e := newTestEngine(facts, src)

	require.NoError(t, e.Ingest(ctx, 1001))
	first, err := facts.GetFact(ctx, 1001)
	require.NoError(t, err)

	require.NoError(t, e.Ingest(ctx, 1001))
	second, err := facts.GetFact(ctx, 1001)
	require.NoError(t, err)

	assert.Len(t, facts.rows, 1)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	second.UpdatedAt = first.UpdatedAt
	assert.Equal(t, first, second)
}

func TestIngestDerivesFields(t *testing.T) {
	ctx := context.Background()
	facts := newMemFacts()
	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(testOrder(1001), nil)
	e := newTestEngine(facts, src)

	require.NoError(t, e.Ingest(ctx, 1001))
	f, err := facts.GetFact(ctx, 1001)
	require.NoError(t, err)

	assert.Equal(t, 3, f.TotalItems)
	assert.True(t, f.CogsTotal.Equal(decimal.NewFromInt(110)))
	assert.True(t, f.GrossProfit.Equal(decimal.NewFromInt(190)))
	assert.True(t, f.NetProfit.Equal(decimal.NewFromInt(180)))
	assert.Equal(t, "60", f.ProfitMargin.String())
	assert.Equal(t, entity.NewIdSet(5, 7), f.ProductIds)
	assert.Equal(t, entity.NewIdSet(51), f.VariationIds)
	assert.Equal(t, entity.NewIdSet(3, 4), f.CategoryIds)
	assert.True(t, f.IsConverted)
	assert.Equal(t, entity.CourierUnclassified, f.CourierOutcome)
	assert.Equal(t, "Direct", f.Source)
	assert.False(t, e.InFlight(1001))
}

func TestIngestReentrantCallIsNoop(t *testing.T) {
	ctx := context.Background()
	facts := &mockFacts{}
	facts.On("UpsertFact", mock.Anything, mock.Anything).Return(nil).Once()

	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(testOrder(1001), nil).Once()
	e := newTestEngine(facts, src)

	var nested error
	src.onLookup = func(ctx context.Context, id int64) {
		assert.True(t, e.InFlight(id))
		nested = e.Ingest(ctx, id)
	}

	require.NoError(t, e.Ingest(ctx, 1001))
	assert.NoError(t, nested)
	facts.AssertNumberOfCalls(t, "UpsertFact", 1)
	src.AssertNumberOfCalls(t, "LookupOrder", 1)
	assert.False(t, e.InFlight(1001))
}

func TestIngestOrderNotFound(t *testing.T) {
	ctx := context.Background()
	facts := &mockFacts{}
	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(404)).
		Return(nil, fmt.Errorf("oms: %w", gerr.OrderNotFound))
	e := newTestEngine(facts, src)

	err := e.Ingest(ctx, 404)
	require.Error(t, err)
	assert.ErrorIs(t, err, gerr.OrderNotFound)
	facts.AssertNotCalled(t, "UpsertFact", mock.Anything, mock.Anything)
	assert.False(t, e.InFlight(404))
}

func TestIngestStoreWriteFailed(t *testing.T) {
	ctx := context.Background()
	facts := &mockFacts{}
	facts.On("UpsertFact", mock.Anything, mock.Anything).
		Return(fmt.Errorf("order 1001: %w: %w", gerr.StoreWriteFailed, errors.New("deadline exceeded"))).Once()
	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(testOrder(1001), nil)
	e := newTestEngine(facts, src)

	err := e.Ingest(ctx, 1001)
	assert.ErrorIs(t, err, gerr.StoreWriteFailed)
	facts.AssertNumberOfCalls(t, "UpsertFact", 1)
	assert.False(t, e.InFlight(1001))
}

func TestUpdateStatusWritesClassificationThenIngests(t *testing.T) {
	ctx := context.Background()
	order := testOrder(1001)
	order.Status = "wc-returned"

	facts := &mockFacts{}
	facts.On("UpdateFactStatus", mock.Anything, mock.MatchedBy(func(u *entity.StatusUpdate) bool {
		return u.OrderId == 1001 &&
			u.RawStatus == "wc-returned" &&
			!u.IsConverted &&
			u.CourierOutcome == entity.CourierReturnedFull
	})).Return(nil).Once()
	facts.On("UpsertFact", mock.Anything, mock.MatchedBy(func(f *entity.OrderFact) bool {
		return f.CourierOutcome == entity.CourierReturnedFull
	})).Return(nil).Once()

	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(order, nil)
	e := newTestEngine(facts, src)

	require.NoError(t, e.UpdateStatus(ctx, 1001, "wc-returned"))
	facts.AssertExpectations(t)
}

func TestUpdateStatusDuringIngestRerunsIngest(t *testing.T) {
	ctx := context.Background()
	stale := testOrder(1001)
	fresh := testOrder(1001)
	fresh.Status = "wc-returned"

	facts := newMemFacts()
	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(stale, nil).Once()
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(fresh, nil).Once()
	e := newTestEngine(facts, src)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	lookups := 0
	src.onLookup = func(context.Context, int64) {
		lookups++
		if lookups == 1 {
			close(entered)
			<-proceed
		}
	}

	done := make(chan error, 1)
	go func() { done <- e.Ingest(ctx, 1001) }()

	<-entered
	require.NoError(t, e.UpdateStatus(ctx, 1001, "wc-returned"))
	close(proceed)
	require.NoError(t, <-done)

	assert.Equal(t, 1, facts.updates)
	assert.Equal(t, 2, facts.upserts)
	row := facts.rows[1001]
	assert.Equal(t, "wc-returned", row.RawStatus)
	assert.Equal(t, entity.CourierReturnedFull, row.CourierOutcome)
	src.AssertNumberOfCalls(t, "LookupOrder", 2)
	assert.False(t, e.InFlight(1001))
}

func TestInFlightRerun(t *testing.T) {
	f := newInFlight()
	require.True(t, f.acquire(7))
	assert.False(t, f.acquire(7))
	assert.True(t, f.finish(7), "plain collision must not request a rerun")
	assert.False(t, f.has(7))

	require.True(t, f.acquireOrRerun(7))
	assert.False(t, f.acquireOrRerun(7))
	assert.False(t, f.finish(7))
	assert.True(t, f.has(7))
	assert.True(t, f.finish(7))
	assert.False(t, f.has(7))
}

func TestConcurrentIngestOfOneOrder(t *testing.T) {
	ctx := context.Background()
	facts := newMemFacts()
	src := &mockSource{}
	src.On("LookupOrder", mock.Anything, int64(1001)).Return(testOrder(1001), nil)
	e := newTestEngine(facts, src)
	e.now = func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.Ingest(ctx, 1001))
		}()
	}
	wg.Wait()

	assert.Len(t, facts.rows, 1)
	assert.False(t, e.InFlight(1001))
}
