package http_client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/registry"
)

func TestFetch_Process(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "hello from %s", r.URL.Path)
	}))
	defer srv.Close()

	f := NewFetch(srv.Client())

	out, err := f.Process(context.Background(), [][]byte{[]byte(srv.URL + "/a\n")})
	require.NoError(t, err)
	assert.Equal(t, "hello from /a", string(out[0]))
	assert.Equal(t, "200", string(out[1]))

	out, err = f.Process(context.Background(), [][]byte{[]byte(srv.URL + "/missing")})
	require.NoError(t, err, "error statuses are passed on")
	assert.Equal(t, "404", string(out[1]))
}

func TestFetch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFetch(newClient(time.Second)).Process(context.Background(), [][]byte{[]byte(url)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}

func TestFetch_Configure(t *testing.T) {
	p, err := NewFetch(nil).Configure("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, p.(*Fetch).client.Timeout)

	p, err = NewFetch(nil).Configure(" 250ms ")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, p.(*Fetch).client.Timeout)

	_, err = NewFetch(nil).Configure("soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestModule_Register(t *testing.T) {
	r := registry.New()
	r.Load(&Module{})
	assert.Equal(t, []string{"http.fetch"}, r.Types())
}
