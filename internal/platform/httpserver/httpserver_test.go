package httpserver

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	h := http.NotFoundHandler()

	srv := New(":0", h, 30*time.Second, slog.New(slog.DiscardHandler))
	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, 45*time.Second, srv.WriteTimeout)
	assert.NotNil(t, srv.ErrorLog)

	bare := New(":0", h, 0, nil)
	assert.Zero(t, bare.WriteTimeout)
	assert.Nil(t, bare.ErrorLog)
}
