package admin_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/cache"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/internal/searchinfra"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/monitor"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/pkg/admin"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/pkg/testsupport"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search"
	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

type item struct {
	ID, StoreID, Name string
}

func itemDescriptor() search.Descriptor[item] {
	return search.Descriptor[item]{
		EntityType:    "item",
		TextFields:    []search.TextField{{Name: "name", Boost: 3}},
		KeywordFields: []string{"color"},
		StoreField:    "storeId",
		SortField:     "name",
		ID:            func(i item) string { return i.ID },
		StoreID:       func(i item) string { return i.StoreID },
		Flatten: func(i item) query.Document {
			return query.Document{"id": i.ID, "storeId": i.StoreID, "name": i.Name}
		},
	}
}

type flakyEngine struct {
	search.Engine
	fail bool
}

func (f *flakyEngine) Search(ctx context.Context, index string, req query.Request) (query.Response, error) {
	if f.fail {
		return query.Response{}, errors.New("cluster unavailable")
	}
	return f.Engine.Search(ctx, index, req)
}

type stubWarmer struct{ calls [][]string }

func (s *stubWarmer) WarmEntries(storeIDs []string) []cache.WarmEntry {
	s.calls = append(s.calls, storeIDs)
	out := make([]cache.WarmEntry, 0, len(storeIDs))
	for _, id := range storeIDs {
		out = append(out, cache.WarmEntry{
			Key:  cache.StoreKey(id, "items"),
			Load: func(context.Context) (any, error) { return []string{"a"}, nil },
		})
	}
	return out
}

type fixture struct {
	server  *httptest.Server
	store   *cache.Store
	monitor *monitor.Monitor
	engine  *flakyEngine
	warmer  *stubWarmer
}

func newFixture(t *testing.T, opts ...admin.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	store := testsupport.NewMemoryStore(t)
	mon, err := monitor.New(store.Metrics(), monitor.DefaultConfig(), nil)
	require.NoError(t, err)

	engine := &flakyEngine{Engine: searchinfra.NewMemoryEngine()}
	rows := search.SourceFunc[item](func(_ context.Context, storeID string) ([]item, error) {
		return []item{{ID: "1", StoreID: storeID, Name: "Widget"}, {ID: "2", StoreID: storeID, Name: "Gadget"}}, nil
	})
	ix, err := search.NewIndex(itemDescriptor(), engine, rows)
	require.NoError(t, err)

	manager := search.NewManager(nil, nil, ix)
	require.NoError(t, manager.EnsureIndexes(ctx))
	ix.IndexEntity(ctx, item{ID: "1", StoreID: "s1", Name: "Widget"})
	ix.IndexEntity(ctx, item{ID: "9", StoreID: "s2", Name: "Widget"})

	f := &fixture{store: store, monitor: mon, engine: engine, warmer: &stubWarmer{}}
	router := admin.NewRouter(store, mon, manager, nil, append([]admin.Option{admin.WithWarmer(f.warmer)}, opts...)...)
	f.server = httptest.NewServer(router.Setup())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return res.StatusCode, out
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_CacheMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var v string
	f.store.Set(ctx, "entity:1", "v", time.Minute)
	f.store.Get(ctx, "entity:1", &v)
	f.store.Get(ctx, "entity:2", &v)

	status, body := f.do(t, http.MethodGet, "/cache/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["hits"])
	assert.EqualValues(t, 1, body["misses"])
	assert.EqualValues(t, 0.5, body["hitRate"])
	assert.Contains(t, body, "errorRate")
}

func TestRouter_KeyAndPatternInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, k := range []string{"entity:1", "store:s1:brands", "store:s1:products", "store:s2:brands", "user:u1:orders"} {
		require.True(t, f.store.Set(ctx, k, 1, time.Minute))
	}

	status, body := f.do(t, http.MethodDelete, "/cache/keys/entity:1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["deleted"])
	assert.False(t, f.store.Exists(ctx, "entity:1"))

	status, _ = f.do(t, http.MethodDelete, "/cache/patterns", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodDelete, "/cache/patterns?pattern=store:*:brands", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["deleted"])

	status, body = f.do(t, http.MethodDelete, "/cache/stores/s1", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["deleted"])

	status, body = f.do(t, http.MethodDelete, "/cache/users/u1", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["deleted"])
}

func TestRouter_Reset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Set(ctx, "entity:1", 1, time.Minute)

	status, _ := f.do(t, http.MethodDelete, "/cache", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.False(t, f.store.Exists(ctx, "entity:1"))
}

func TestRouter_MonitorEndpoints(t *testing.T) {
	f := newFixture(t)
	f.monitor.Check(time.Now().Add(2 * time.Hour))

	status, body := f.do(t, http.MethodGet, "/cache/alerts", "")
	require.Equal(t, http.StatusOK, status)
	alerts, ok := body["alerts"].([]any)
	require.True(t, ok)
	assert.Len(t, alerts, 1)

	status, _ = f.do(t, http.MethodGet, "/cache/alerts?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/cache/performance", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "efficiency")
	assert.Contains(t, body, "recommendations")

	status, body = f.do(t, http.MethodGet, "/cache/trends", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "direction")

	status, body = f.do(t, http.MethodPost, "/cache/optimize", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "actions")

	status, _ = f.do(t, http.MethodDelete, "/cache/alerts", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, f.monitor.Alerts(10))
}

func TestRouter_Warm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/cache/warm", `{"storeIds":["s1","s2"]}`)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["warmed"], 2)
	assert.True(t, f.store.Exists(ctx, "store:s1:items"))
	assert.Equal(t, [][]string{{"s1", "s2"}}, f.warmer.calls)

	status, _ = f.do(t, http.MethodPost, "/cache/warm", `{"storeIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = f.do(t, http.MethodPost, "/cache/warm", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_TypeSearch(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/search/s1/item?q=widget", "")
	require.Equal(t, http.StatusOK, status)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "1", data[0].(map[string]any)["id"])

	status, _ = f.do(t, http.MethodGet, "/search/s1/order?q=widget", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.do(t, http.MethodGet, "/search/s1/item?password=x", "")
	assert.Equal(t, http.StatusBadRequest, status)

	f.engine.fail = true
	status, body = f.do(t, http.MethodGet, "/search/s1/item?q=widget", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Service Unavailable", body["error"])
}

func TestRouter_GlobalSearchAndReindex(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/search/s1?q=widget&limit=3", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "s1", body["storeId"])
	assert.EqualValues(t, 1, body["total"])

	status, _ = f.do(t, http.MethodGet, "/search/s1?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodPost, "/search/s1/reindex", "")
	require.Equal(t, http.StatusOK, status)
	reports := body["reports"].(map[string]any)
	assert.EqualValues(t, 2, reports["item"].(map[string]any)["indexed"])
}

func TestRouter_PrometheusMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var v string
	f.store.Get(ctx, "entity:missing", &v)

	res, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(raw), "shelflink_cache_misses_total 1")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{goerrors.New("missing", goerrors.CategoryNotFound), http.StatusNotFound},
		{goerrors.New("bad", goerrors.CategoryBadInput), http.StatusBadRequest},
		{goerrors.Wrap(errors.New("down"), goerrors.CategoryExternal, "engine"), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, admin.StatusFor(tt.err), tt.err.Error())
	}
}
