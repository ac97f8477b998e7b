package sink

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/iskng/imessage-exporter/internal"
)

const maxErrorBody = 64 << 10

// HTTPStatusError is returned when the peer answers with a non-2xx status
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Body)
}

// HTTPSink posts batches to an HTTP peer. Requests have no timeout; a stalled
// peer blocks the call.
type HTTPSink struct {
	baseURL string
	client  *http.Client
	graph   *internal.GraphStats
}

// NewHTTPSink creates a sink posting to baseURL. When certPath names a PEM
// file it is trusted as a root and the scheme is upgraded to https.
func NewHTTPSink(baseURL, certPath string) (*HTTPSink, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", baseURL, err)
	}

	client := &http.Client{}
	if certPath != "" {
		transport, err := tlsTransport(certPath)
		if err != nil {
			return nil, err
		}
		client.Transport = transport
		u.Scheme = "https"
	}

	internal.LogInfo("Using HTTP API endpoint: %s", u)
	return &HTTPSink{baseURL: u.String(), client: client}, nil
}

func tlsTransport(certPath string) (*http.Transport, error) {
	pem, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", certPath)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
	return transport, nil
}

// Kind implements internal.Sink
func (s *HTTPSink) Kind() string { return KindHTTP }

// BaseURL returns the endpoint requests are sent to
func (s *HTTPSink) BaseURL() string { return s.baseURL }

// SetupSchema implements internal.Sink. The peer owns its schema.
func (s *HTTPSink) SetupSchema(context.Context) error { return nil }

// InsertBatch posts the batch as one JSON array to /insert
func (s *HTTPSink) InsertBatch(ctx context.Context, records []*internal.TransportRecord) error {
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	_, err = s.post(ctx, "/insert", body)
	return err
}

// Flush posts to /flush. The peer materializes its graph and may answer with
// the resulting stats, which MaterializeGraph reports.
func (s *HTTPSink) Flush(ctx context.Context) error {
	resp, err := s.post(ctx, "/flush", nil)
	if err != nil {
		return err
	}

	var graph internal.GraphStats
	if len(resp) > 0 && json.Unmarshal(resp, &graph) == nil {
		s.graph = &graph
	}
	return nil
}

// MaterializeGraph returns the stats reported by the last flush
func (s *HTTPSink) MaterializeGraph(context.Context) (*internal.GraphStats, error) {
	if s.graph == nil {
		return &internal.GraphStats{}, nil
	}
	return s.graph, nil
}

// Close releases idle connections
func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Health checks the peer's /health endpoint
func (s *HTTPSink) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (s *HTTPSink) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
