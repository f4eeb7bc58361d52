package sources

import (
	"context"
	"testing"

	"github.com/bytesip-hq/bytesip-news-curator/pkg/httpclient"
)

type mockResponse struct {
	body       []byte
	statusCode int
	headers    map[string]string
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }
func (r mockResponse) Header(key string) string {
	return r.headers[key]
}

type mockHTTPClient struct {
	t           *testing.T
	expectURL   string
	expectQuery map[string]string
	expectHead  map[string]string
	status      int
	body        string
	headers     map[string]string
	err         error
}

func (m mockHTTPClient) Get(_ context.Context, url string, query map[string]string, headers map[string]string) (httpclient.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.expectURL != "" && url != m.expectURL {
		m.t.Fatalf("expected url %q, got %q", m.expectURL, url)
	}
	for key, want := range m.expectQuery {
		if got := query[key]; got != want {
			m.t.Fatalf("expected query %s=%q, got %q", key, want, got)
		}
	}
	for key, want := range m.expectHead {
		if got := headers[key]; got != want {
			m.t.Fatalf("expected header %s=%q, got %q", key, want, got)
		}
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(m.body), statusCode: status, headers: m.headers}, nil
}

// fastConfig removes the request throttle so tests do not sleep.
func fastConfig(id string) Config {
	return Config{ID: id, RequestDelayMs: 1}
}
