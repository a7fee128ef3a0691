package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/config"
)

func TestNewServer_ShutdownEndsOpenStreams(t *testing.T) {
	// GIVEN: A request parked until its context ends, like a live stream
	// WHEN: The server shuts down
	// THEN: The request context is cancelled and Shutdown returns promptly
	started := make(chan struct{}, 1)
	ended := make(chan struct{})
	srv := newServer("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-r.Context().Done()
		close(ended)
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/live")
		if err == nil {
			resp.Body.Close()
		}
	}()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	begin := time.Now()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Less(t, time.Since(begin), 5*time.Second)

	select {
	case <-ended:
	default:
		t.Fatal("handler still running after shutdown")
	}
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, closer, err := openStore(config.StoreConfig{Driver: "memory"})
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.NoError(t, closer.Close())
	})

	t.Run("sqlite file", func(t *testing.T) {
		dsn := t.TempDir() + "/taproom.db"
		s, closer, err := openStore(config.StoreConfig{Driver: "sqlite", DSN: dsn})
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.NoError(t, closer.Close())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := openStore(config.StoreConfig{Driver: "mysql"})
		assert.Error(t, err)
	})
}
