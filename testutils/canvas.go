// Package testutils provides a fake Canvas API server and test fixtures
// shared by package tests.
package testutils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"canvas-mcp-server/config"
)

// Logger returns a quiet logger for tests
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// Config returns a client configuration pointed at the given base URL
func Config(baseURL string) *config.Config {
	return &config.Config{
		CanvasAPIURL:    baseURL,
		CanvasAPIToken:  "test-token",
		RequestTimeout:  5 * time.Second,
		DownloadTimeout: 5 * time.Second,
		PageSize:        100,
	}
}

// FakeCanvas is an httptest-backed Canvas API double. Handlers are
// registered per path; every request is counted so tests can assert how
// many network calls an operation issued.
type FakeCanvas struct {
	t      *testing.T
	mux    *http.ServeMux
	Server *httptest.Server

	mu       sync.Mutex
	requests map[string]int
}

// NewFakeCanvas starts a fake Canvas server, closed via t.Cleanup
func NewFakeCanvas(t *testing.T) *FakeCanvas {
	f := &FakeCanvas{
		t:        t,
		mux:      http.NewServeMux(),
		requests: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake server's base URL
func (f *FakeCanvas) URL() string {
	return f.Server.URL
}

// Requests reports how many requests hit the given path
func (f *FakeCanvas) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

// HandleFunc registers a raw handler for a path
func (f *FakeCanvas) HandleFunc(path string, fn http.HandlerFunc) {
	f.mux.HandleFunc(path, fn)
}

// HandleJSON serves a fixed JSON body for a path
func (f *FakeCanvas) HandleJSON(path string, status int, body interface{}) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

// PaginateJSON serves a multi-page listing for a path using the Canvas
// Link header convention: each response carries rel="next" until the
// last page.
func (f *FakeCanvas) PaginateJSON(path string, pages [][]map[string]interface{}) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			if parsed, err := strconv.Atoi(p); err == nil {
				page = parsed
			}
		}
		if page < 1 || page > len(pages) {
			http.Error(w, "page out of range", http.StatusBadRequest)
			return
		}

		if page < len(pages) {
			next := fmt.Sprintf("%s%s?page=%d", f.Server.URL, path, page+1)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pages[page-1])
	})
}
