package app

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMux(t *testing.T) {
	a, _ := SetupAppTest(t, Config{GridPaths: []string{"unused"}})
	a.metrics.BuildFinished(nil)

	srv := httptest.NewServer(a.healthMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `builds_total{result="ok"} 1`)
}

func TestHealthcheckServer_Lifecycle(t *testing.T) {
	a, logs := SetupAppTest(t, Config{GridPaths: []string{"unused"}})

	require.NoError(t, a.startHealthcheckServer(0))
	assert.Nil(t, a.httpServer, "port 0 disables the server")
	require.NoError(t, a.closeHealthcheckServer())

	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port
	require.Error(t, a.startHealthcheckServer(port), "port already bound")

	free, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port = free.Addr().(*net.TCPAddr).Port
	require.NoError(t, free.Close())

	require.NoError(t, a.startHealthcheckServer(port))
	require.NotNil(t, a.httpServer)
	require.NoError(t, a.closeHealthcheckServer())
	assert.Contains(t, logs.String(), "Shutting down health check server")
}
