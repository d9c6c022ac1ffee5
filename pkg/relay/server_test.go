package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAndServe(t *testing.T) {
	srv := NewServer(Config{Listen: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Empty(t, srv.Clients())
}

func TestListenAndServeBadAddress(t *testing.T) {
	srv := NewServer(Config{Listen: "127.0.0.1:-1"})

	err := srv.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestNewServerDefaults(t *testing.T) {
	srv := NewServer(Config{})
	assert.Equal(t, DefaultReadTimeout, srv.cfg.ReadTimeout)
	assert.Equal(t, DefaultMaxFrameSize, srv.cfg.MaxFrameSize)
	assert.NotNil(t, srv.log)
}
