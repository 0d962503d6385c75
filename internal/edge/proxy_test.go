package edge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/analytics-dashboard-api/internal/config"
	"github.com/analytics-dashboard-api/internal/domain"
)

// --- mocks ---

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

const validBody = `{"overview":{"success":true,"data":{"totalUsers":5}},"realtime":{"success":true}}`
const invalidBody = `{"overview":{"success":false,"error":"API Error: 500"}}`

func newProxy(originURL string, cache Cache) *Proxy {
	cfg := &config.Config{
		OriginURL:        originURL,
		CacheTTL:         360 * time.Second,
		CacheableActions: []string{"fetchAllDashboardData"},
	}
	return NewProxy(cfg, cache)
}

func forward(p *Proxy, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(body))
	p.Forward(rec, req)
	return rec
}

const dashboardReq = `{"action":"fetchAllDashboardData","token":"tok","params":{"period":"WEEKLY"}}`

// --- cache key ---

func TestCacheKey(t *testing.T) {
	p := newProxy("http://origin", &mockCache{})

	assert.Equal(t, "cache:v1:fetchAllDashboardData:WEEKLY", p.cacheKey([]byte(dashboardReq)))
	assert.Empty(t, p.cacheKey([]byte(`{"action":"fetchAllDashboardData","params":{}}`)), "missing period")
	assert.Empty(t, p.cacheKey([]byte(`{"action":"sendAuthCode","params":{"period":"WEEKLY"}}`)), "non-cacheable action")
	assert.Empty(t, p.cacheKey([]byte(`not json`)))
}

// --- validity predicate ---

func TestValidPayload(t *testing.T) {
	assert.True(t, validPayload([]byte(validBody)))
	assert.False(t, validPayload([]byte(invalidBody)), "overview failed")
	assert.False(t, validPayload([]byte(`{"overview":{"success":true}}`)), "no data")
	assert.False(t, validPayload([]byte(`{"overview":{"success":true,"data":null}}`)), "null data")
	assert.False(t, validPayload([]byte(`{"success":false,"error":"INVALID_SESSION"}`)), "auth error")
	assert.False(t, validPayload([]byte(`garbage`)))
}

// --- Forward ---

func TestForward_CacheHitSkipsOrigin(t *testing.T) {
	originCalled := false
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originCalled = true
	}))
	defer origin.Close()

	cache := &mockCache{}
	cache.On("Get", mock.Anything, "cache:v1:fetchAllDashboardData:WEEKLY").
		Return([]byte(validBody), nil)

	rec := forward(newProxy(origin.URL, cache), dashboardReq)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, validBody, rec.Body.String())
	assert.False(t, originCalled)
}

func TestForward_MissFetchesAndStores(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validBody))
	}))
	defer origin.Close()

	cache := &mockCache{}
	cache.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	cache.On("Set", mock.Anything, "cache:v1:fetchAllDashboardData:WEEKLY",
		[]byte(validBody), 360*time.Second).Return(nil)

	rec := forward(newProxy(origin.URL, cache), dashboardReq)

	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, validBody, rec.Body.String())
	cache.AssertExpectations(t)
}

func TestForward_InvalidOriginResponseNotCached(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(invalidBody))
	}))
	defer origin.Close()

	cache := &mockCache{}
	cache.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	rec := forward(newProxy(origin.URL, cache), dashboardReq)

	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestForward_CorruptedCacheEntryPurgedAndRefetched(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validBody))
	}))
	defer origin.Close()

	cache := &mockCache{}
	cache.On("Get", mock.Anything, mock.Anything).Return([]byte(`garbage`), nil)
	cache.On("Delete", mock.Anything, "cache:v1:fetchAllDashboardData:WEEKLY").Return(nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := forward(newProxy(origin.URL, cache), dashboardReq)

	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	cache.AssertCalled(t, "Delete", mock.Anything, "cache:v1:fetchAllDashboardData:WEEKLY")
}

func TestForward_NonCacheableActionBypasses(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Code sent to ana@example.com"}`))
	}))
	defer origin.Close()

	cache := &mockCache{}

	rec := forward(newProxy(origin.URL, cache), `{"action":"sendAuthCode","params":{"email":"ana@example.com"}}`)

	assert.Equal(t, "BYPASS", rec.Header().Get("X-Cache"))
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestForward_OriginDown(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	rec := forward(newProxy("http://127.0.0.1:1", cache), dashboardReq)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

// --- CORS origins ---

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:8788"}

	assert.True(t, originAllowed(allowed, "http://localhost:8788"))
	assert.True(t, originAllowed(allowed, "https://my-branch.dashboard.pages.dev"))
	assert.False(t, originAllowed(allowed, "https://evil.example.com"))
	assert.True(t, originAllowed([]string{"*"}, "https://anything.example.com"))
}
