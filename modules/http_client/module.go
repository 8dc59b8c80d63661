// Package http_client provides "http.fetch", which issues a GET request for
// the URL it receives and passes the response on.
package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
)

// DefaultTimeout is used when the node value is empty.
const DefaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the plugin with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("http.fetch", NewFetch(newClient(DefaultTimeout)))
}

// newClient returns a client shared by every instance of one node.
func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Fetch downloads the body of a URL. A response with an error status is
// still passed on; only transport failures fail the node.
type Fetch struct {
	plugin.Info
	client *http.Client
}

var _ plugin.Configurable = (*Fetch)(nil)

// NewFetch creates the plugin around client.
func NewFetch(client *http.Client) *Fetch {
	return &Fetch{
		Info: plugin.Info{
			Name:        "Fetch",
			Description: "Downloads a URL. The node value is the request timeout.",
			Inputs:      []plugin.SlotInfo{{Name: "url", Type: "text"}},
			Outputs:     []plugin.SlotInfo{{Name: "body", Type: "text"}, {Name: "status", Type: "text"}},
		},
		client: client,
	}
}

// Configure parses the node value as a duration, e.g. "5s".
func (f *Fetch) Configure(value string) (plugin.Process, error) {
	timeout := DefaultTimeout
	if value = strings.TrimSpace(value); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("http.fetch: invalid timeout %q: %w", value, err)
		}
		timeout = d
	}
	return NewFetch(newClient(timeout)), nil
}

// Process implements plugin.Process.
func (f *Fetch) Process(ctx context.Context, inputs [][]byte) ([][]byte, error) {
	url := strings.TrimSpace(string(inputs[0]))
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Making HTTP request", "method", http.MethodGet, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Debug("Received HTTP response", "status", resp.Status, "bytes", len(body))
	return [][]byte{body, []byte(strconv.Itoa(resp.StatusCode))}, nil
}
