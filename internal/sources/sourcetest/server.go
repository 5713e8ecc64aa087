// Package sourcetest provides a fake upstream API for adapter tests.
package sourcetest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"favfetch/internal/apiclient"
	"favfetch/internal/pacer"
)

// Server routes requests by path and counts every hit.
type Server struct {
	*httptest.Server

	Pacer *pacer.Counting

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   atomic.Int32
}

// New starts a server that is closed when the test ends. Unrouted paths
// answer 404.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{Pacer: &pacer.Counting{}, routes: map[string]http.HandlerFunc{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)

	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	s.mu.Lock()
	handler, ok := s.routes[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	handler(w, r)
}

// Handle registers a handler for an exact path.
func (s *Server) Handle(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes[path] = h
}

// JSON registers a fixed JSON body for path.
func (s *Server) JSON(path, body string) {
	s.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

// Status registers a bare status code for path.
func (s *Server) Status(path string, code int) {
	s.Handle(path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

// Hits returns how many requests reached the server.
func (s *Server) Hits() int {
	return int(s.hits.Load())
}

// APIClient returns an API client paced by the server's counting pacer.
func (s *Server) APIClient(name, userAgent string) *apiclient.Client {
	return apiclient.New(apiclient.Options{Name: name, UserAgent: userAgent, Pacer: s.Pacer})
}
