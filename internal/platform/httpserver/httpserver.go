package httpserver

import (
	"net/http"
	"time"

	"trialconsent/internal/platform/config"
)

const defaultReadHeaderTimeout = 5 * time.Second

// New builds the HTTP server from the server config.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = defaultReadHeaderTimeout
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
