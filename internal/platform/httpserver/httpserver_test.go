package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trialconsent/internal/platform/config"
)

func TestNew(t *testing.T) {
	h := http.NewServeMux()

	t.Run("uses configured values", func(t *testing.T) {
		srv := New(config.ServerConfig{Addr: ":9090", ReadHeaderTimeout: 2 * time.Second}, h)
		assert.Equal(t, ":9090", srv.Addr)
		assert.Equal(t, 2*time.Second, srv.ReadHeaderTimeout)
		assert.Equal(t, h, srv.Handler)
	})

	t.Run("falls back to default header timeout", func(t *testing.T) {
		srv := New(config.ServerConfig{Addr: ":9090"}, h)
		assert.Equal(t, defaultReadHeaderTimeout, srv.ReadHeaderTimeout)
	})
}
