package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jekabolt/grbpwr-reports/internal/auth/jwt"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/jekabolt/grbpwr-reports/internal/ratelimit"
)

type mockIngester struct {
	mock.Mock
}

func (m *mockIngester) Ingest(ctx context.Context, orderId int64) error {
	return m.Called(orderId).Error(0)
}

func (m *mockIngester) UpdateStatus(ctx context.Context, orderId int64, newStatus string) error {
	return m.Called(orderId, newStatus).Error(0)
}

type mockReporter struct {
	mock.Mock
	dependency.Reporter
}

func (m *mockReporter) KPIBundle(ctx context.Context, spec entity.DateRangeSpec) (*entity.KPIBundle, error) {
	args := m.Called(spec)
	b, _ := args.Get(0).(*entity.KPIBundle)
	return b, args.Error(1)
}

func (m *mockReporter) ProductPerformance(ctx context.Context, spec entity.DateRangeSpec, filter entity.ProductFilter) ([]entity.ProductPerformance, error) {
	args := m.Called(spec, filter)
	p, _ := args.Get(0).([]entity.ProductPerformance)
	return p, args.Error(1)
}

type fakeRepo struct {
	dependency.Repository
	costs   *memCosts
	cls     *memClassification
	pingErr error
}

func (r *fakeRepo) Ping(context.Context) error                { return r.pingErr }
func (r *fakeRepo) Costs() dependency.Costs                   { return r.costs }
func (r *fakeRepo) Classification() dependency.Classification { return r.cls }

type memCosts struct {
	dependency.Costs
	set map[int64]decimal.Decimal
}

func (m *memCosts) SetUnitCost(_ context.Context, id int64, cost decimal.Decimal) error {
	m.set[id] = cost
	return nil
}

type memClassification struct {
	last *entity.ClassificationInsert
}

func (m *memClassification) ClassificationConfig(context.Context) (*entity.ClassificationConfig, error) {
	cfg := &entity.ClassificationConfig{
		Converted:       entity.NewStatusSet(entity.DefaultConvertedStatus),
		Delivered:       entity.NewStatusSet(),
		ReturnedFull:    entity.NewStatusSet(),
		ReturnedPartial: entity.NewStatusSet(),
	}
	if m.last != nil {
		cfg.Converted = entity.NewStatusSet(m.last.Converted...)
		cfg.Delivered = entity.NewStatusSet(m.last.Delivered...)
		cfg.ReturnCharge = m.last.ReturnCharge
	}
	return cfg, nil
}

func (m *memClassification) SetClassificationConfig(_ context.Context, ci *entity.ClassificationInsert) error {
	m.last = ci
	return nil
}

type testServer struct {
	*Server
	ingester *mockIngester
	reporter *mockReporter
	repo     *fakeRepo
	token    string
}

var testNow = time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, c *Config, limits ratelimit.Config) *testServer {
	t.Helper()
	jwtAuth, err := jwt.New(&jwt.Config{Secret: "test-secret"})
	require.NoError(t, err)
	token, err := jwt.NewTokenWithSubject(jwtAuth, time.Hour, "analyst")
	require.NoError(t, err)

	ts := &testServer{
		ingester: &mockIngester{},
		reporter: &mockReporter{},
		repo: &fakeRepo{
			costs: &memCosts{set: map[int64]decimal.Decimal{}},
			cls:   &memClassification{},
		},
		token: token,
	}
	ts.Server = New(c, ts.ingester, ts.reporter, ts.repo, ratelimit.NewCustomMultiKeyLimiter(limits), jwtAuth)
	ts.now = func() time.Time { return testNow }
	return ts
}

func (ts *testServer) do(method, target, body string, auth bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestIngestWebhook(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})
	ts.ingester.On("Ingest", int64(42)).Return(nil).Once()

	rec := ts.do(http.MethodPost, "/api/webhook/orders/42", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OrderResponse
	decode(t, rec, &resp)
	assert.Equal(t, int64(42), resp.OrderId)
	assert.NotEmpty(t, rec.Header().Get(requestIdHeader))
	ts.ingester.AssertExpectations(t)
}

func TestIngestWebhookErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("can't lookup order 7: %w", gerr.OrderNotFound), http.StatusNotFound},
		{"store", fmt.Errorf("order 7: %w: %w", gerr.StoreWriteFailed, errors.New("deadlock")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &Config{}, ratelimit.Config{})
			ts.ingester.On("Ingest", int64(7)).Return(tt.err).Once()

			rec := ts.do(http.MethodPost, "/api/webhook/orders/7", "", false)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.ErrorText)
			assert.NotEmpty(t, resp.RequestId)
		})
	}
}

func TestIngestWebhookInvalidId(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})
	for _, id := range []string{"abc", "0", "-3"} {
		rec := ts.do(http.MethodPost, "/api/webhook/orders/"+id, "", false)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
	}
	ts.ingester.AssertNotCalled(t, "Ingest", mock.Anything)
}

func TestIngestWebhookRateLimited(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{IPPerMinute: 100, OrderPerMinute: 1})
	ts.ingester.On("Ingest", int64(5)).Return(nil).Once()

	assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/webhook/orders/5", "", false).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(http.MethodPost, "/api/webhook/orders/5", "", false).Code)
	ts.ingester.AssertExpectations(t)
}

func TestWebhookSignature(t *testing.T) {
	ts := newTestServer(t, &Config{WebhookSecret: "shh"}, ratelimit.Config{})
	ts.ingester.On("UpdateStatus", int64(9), "wc-delivered").Return(nil).Once()

	body := `{"status":"wc-delivered"}`

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/orders/9/status", strings.NewReader(body))
	req.Header.Set(webhookSignatureHeader, "bogus")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/webhook/orders/9/status", strings.NewReader(body))
	req.Header.Set(webhookSignatureHeader, signBody("shh", []byte(body)))
	rec = httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.ingester.AssertExpectations(t)
}

func TestUpdateStatusWebhook(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})
	ts.ingester.On("UpdateStatus", int64(3), "cancelled").Return(nil).Once()

	rec := ts.do(http.MethodPost, "/api/webhook/orders/3/status", `{"status":" cancelled "}`, false)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/webhook/orders/3/status", `{"status":""}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.ingester.AssertExpectations(t)
}

func TestReportsRequireToken(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})

	rec := ts.do(http.MethodGet, "/api/reports/range", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/reports/range", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRange(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})

	rec := ts.do(http.MethodGet, "/api/reports/range?range=last_7_days", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var spec entity.DateRangeSpec
	decode(t, rec, &spec)
	assert.Equal(t, entity.PresetLast7Days, spec.Preset)
	assert.True(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC).Equal(spec.Start))
	assert.True(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC).Equal(spec.End))
	assert.True(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC).Equal(spec.Previous.Start))
	assert.True(t, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC).Equal(spec.Previous.End))
}

func TestRangeRejectsReversedBounds(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})

	rec := ts.do(http.MethodGet, "/api/reports/range?start=2024-05-10&end=2024-05-01", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/reports/kpi?start=2024-13-01&end=2024-05-01", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.reporter.AssertNotCalled(t, "KPIBundle", mock.Anything)
}

func TestKPI(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})
	ts.reporter.On("KPIBundle", mock.MatchedBy(func(spec entity.DateRangeSpec) bool {
		return spec.Preset == entity.PresetCustom &&
			spec.Start.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) &&
			spec.End.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	})).Return(&entity.KPIBundle{Current: entity.KPIValues{TotalOrders: 10}}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/reports/kpi?start=2024-05-01&end=2024-05-10", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var bundle entity.KPIBundle
	decode(t, rec, &bundle)
	assert.Equal(t, 10, bundle.Current.TotalOrders)
	ts.reporter.AssertExpectations(t)
}

func TestProductsFilter(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})
	ts.reporter.On("ProductPerformance", mock.Anything, entity.ProductFilter{Search: "tee", CategoryId: 3}).
		Return([]entity.ProductPerformance{}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/reports/products?search=tee&category=3", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/reports/products?category=x", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.reporter.AssertExpectations(t)
}

func TestClassificationSettings(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})

	rec := ts.do(http.MethodPut, "/api/settings/classification",
		`{"converted":["completed","processing"],"delivered":["delivered"],"return_charge":"150"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got entity.ClassificationInsert
	decode(t, rec, &got)
	assert.Equal(t, []string{"completed", "processing"}, got.Converted)
	assert.Equal(t, []string{"delivered"}, got.Delivered)
	assert.Equal(t, "150", got.ReturnCharge.String())

	rec = ts.do(http.MethodPut, "/api/settings/classification", `{"return_charge":"-1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnitCostSettings(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})

	rec := ts.do(http.MethodPut, "/api/settings/costs/11", `{"cost":"12.50"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12.5", ts.repo.costs.set[11].String())

	rec = ts.do(http.MethodPut, "/api/settings/costs/nope", `{"cost":"1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &Config{}, ratelimit.Config{})
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", "", false).Code)

	ts.repo.pingErr = errors.New("down")
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/health", "", false).Code)
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"https://reports.grbpwr.com"}
	assert.True(t, isOriginAllowed("http://localhost:3000", allowed))
	assert.True(t, isOriginAllowed("https://reports.grbpwr.com", allowed))
	assert.False(t, isOriginAllowed("https://evil.example", allowed))
}
