package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServer_StartStop(t *testing.T) {
	port := freePort(t)
	server := NewServer(zerolog.New(zerolog.NewTestWriter(t)), port, failingProgress{}, nil, nil)

	require.NoError(t, server.Start())

	client := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	var err error
	require.Eventually(t, func() bool {
		resp, err = client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Stop(context.Background()))
}

func TestServer_StartFailsWhenPortTaken(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	server := NewServer(zerolog.Nop(), port, failingProgress{}, nil, nil)
	err = server.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
}
