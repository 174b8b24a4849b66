package http

import (
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	EnvKeyAddr  = "HTTP_ADDR"
	defaultAddr = ":8080"
)

// AddrFromEnv returns HTTP_ADDR, falling back to PORT (Cloud Run) and then :8080.
func AddrFromEnv() string {
	if addr := strings.TrimSpace(os.Getenv(EnvKeyAddr)); addr != "" {
		return addr
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return ":" + port
	}
	return defaultAddr
}

// NewServer wraps h in an http.Server with explicit timeouts.
//
// Settings:
//   - ReadHeaderTimeout: bounds slow header delivery
//   - ReadTimeout / WriteTimeout: whole request and response, form bodies are small
//   - IdleTimeout: keep-alive connections between requests
//   - MaxHeaderBytes: 64 KiB
//
// http.Server has no timeouts by default, so never serve with the zero value.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10,
	}
}
