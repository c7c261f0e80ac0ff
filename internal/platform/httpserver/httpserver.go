package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with defaults sized for audit traffic: requests
// carry whole extracted documents and responses can wait on a live LLM call,
// so write timeouts stay generous while header reads stay tight.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}
}
