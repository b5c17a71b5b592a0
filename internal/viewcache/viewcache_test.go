package viewcache

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"n":%d,"q":%q}`, n, r.URL.RawQuery)
	})
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestMiddleware_HitAndMiss(t *testing.T) {
	var calls int32
	c := New(0)
	h := c.Middleware(countingHandler(&calls, http.StatusOK))

	first := get(h, "/packages/local?page=2")
	second := get(h, "/packages/local?page=2")

	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.EqualValues(t, 1, calls)

	get(h, "/packages/local?page=3")
	assert.EqualValues(t, 2, calls, "query variants are cached separately")
	assert.Equal(t, 2, c.Len())
}

func TestInvalidate_DropsAllVariants(t *testing.T) {
	var calls int32
	c := New(0)
	h := c.Middleware(countingHandler(&calls, http.StatusOK))

	get(h, "/packages/local")
	get(h, "/packages/local?page=2")
	get(h, "/packages/international")
	require.Equal(t, 3, c.Len())

	c.Invalidate("/", "/packages/local")
	assert.Equal(t, 1, c.Len())

	rec := get(h, "/packages/local?page=2")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = get(h, "/packages/international")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
}

func TestMiddleware_SkipsNonOKAndNonGET(t *testing.T) {
	var calls int32
	c := New(0)

	h := c.Middleware(countingHandler(&calls, http.StatusNotFound))
	get(h, "/packages/moon")
	get(h, "/packages/moon")
	assert.EqualValues(t, 2, calls)
	assert.Zero(t, c.Len())

	h = c.Middleware(countingHandler(&calls, http.StatusOK))
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	}
	assert.EqualValues(t, 4, calls)
	assert.Zero(t, c.Len())
}

func TestMiddleware_Bounded(t *testing.T) {
	var calls int32
	c := New(2)
	h := c.Middleware(countingHandler(&calls, http.StatusOK))

	for i := 1; i <= 5; i++ {
		get(h, fmt.Sprintf("/packages/local?page=%d", i))
	}
	assert.Equal(t, 2, c.Len())

	c.Invalidate("/packages/local")
	assert.Zero(t, c.Len())
}

func TestMiddleware_InvalidationDuringRenderIsNotCached(t *testing.T) {
	c := New(0)
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a mutation lands while the document is being built
		c.Invalidate("/")
		_, _ = w.Write([]byte("stale"))
	}))

	get(h, "/")
	assert.Zero(t, c.Len())
}
