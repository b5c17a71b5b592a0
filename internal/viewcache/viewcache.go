// Package viewcache caches rendered GET responses of listing documents and
// drops them when the catalog changes.
package viewcache

import (
	"bytes"
	"net/http"
	"sync"
)

// DefaultMaxEntries bounds the number of cached documents.
const DefaultMaxEntries = 256

type entry struct {
	contentType string
	body        []byte
}

// Cache maps a request path to its cached variants keyed by raw query.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]map[string]entry
	size       int
	maxEntries int
	// gen changes on every invalidation; documents rendered under an older
	// generation are not stored
	gen uint64
}

// New returns an empty Cache holding at most maxEntries documents.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{entries: make(map[string]map[string]entry), maxEntries: maxEntries}
}

// Invalidate drops every cached variant of the given paths.
func (c *Cache) Invalidate(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for _, p := range paths {
		c.size -= len(c.entries[p])
		delete(c.entries, p)
	}
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

func (c *Cache) get(path, query string) (entry, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path][query]
	return e, c.gen, ok
}

func (c *Cache) put(path, query string, gen uint64, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	variants, ok := c.entries[path]
	if !ok {
		variants = make(map[string]entry)
		c.entries[path] = variants
	}
	if _, exists := variants[query]; !exists {
		if c.size >= c.maxEntries {
			return
		}
		c.size++
	}
	variants[query] = e
}

// Middleware serves GET requests from the cache and stores 200 responses.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		path, query := r.URL.Path, r.URL.RawQuery
		e, gen, ok := c.get(path, query)
		if ok {
			w.Header().Set("Content-Type", e.contentType)
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(e.body)
			return
		}

		rw := &recorder{ResponseWriter: w, code: http.StatusOK}
		w.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(rw, r)

		if rw.code == http.StatusOK {
			c.put(path, query, gen, entry{contentType: w.Header().Get("Content-Type"), body: rw.buf.Bytes()})
		}
	})
}

type recorder struct {
	http.ResponseWriter
	code int
	buf  bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}
