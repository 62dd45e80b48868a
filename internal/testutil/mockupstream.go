// Package testutil provides testing utilities for the updater.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// Response is one scripted reply from the mock upstream.
type Response struct {
	StatusCode int
	Body       string
}

// MockUpstream is a configurable stand-in for the WFCD and warframe.market
// endpoints. Paths can answer with a fixed response or a scripted sequence
// (one element per request, last element repeating).
type MockUpstream struct {
	server *httptest.Server

	mu        sync.Mutex
	scripts   map[string][]Response
	positions map[string]int
	counts    map[string]int
}

// NewMockUpstream starts the mock server. Unscripted paths answer 404.
func NewMockUpstream() *MockUpstream {
	m := &MockUpstream{
		scripts:   make(map[string][]Response),
		positions: make(map[string]int),
		counts:    make(map[string]int),
	}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.counts[r.URL.Path]++

		script, ok := m.scripts[r.URL.Path]
		if !ok {
			m.mu.Unlock()
			w.WriteHeader(http.StatusNotFound)
			return
		}

		pos := m.positions[r.URL.Path]
		if pos >= len(script) {
			pos = len(script) - 1
		}
		m.positions[r.URL.Path] = pos + 1
		resp := script[pos]
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write([]byte(resp.Body))
	}))

	return m
}

// URL returns the mock server base URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Respond makes path answer every request with one fixed response.
func (m *MockUpstream) Respond(path string, status int, body string) {
	m.Script(path, Response{StatusCode: status, Body: body})
}

// Script makes path answer with the given sequence, repeating the last
// element once the script runs out.
func (m *MockUpstream) Script(path string, responses ...Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[path] = responses
	m.positions[path] = 0
}

// Requests returns how many requests path has received.
func (m *MockUpstream) Requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[path]
}
