// Package httpserver assembles the API server with the timeout defaults the
// deployment expects.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the router in an http.Server. ReadHeaderTimeout bounds slow
// clients before a handler is even chosen; autosave PATCH bodies are small,
// so a short ReadTimeout is safe too.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
