package curator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/go-resty/resty/v2"
)

// RemoteFetcher calls a fetch service over HTTP instead of running the
// orchestrator in-process. The remote endpoint accepts a JSON fetch request
// and answers with the items/errors envelope.
type RemoteFetcher struct {
	client   *resty.Client
	endpoint string
}

// NewRemoteFetcher builds a fetcher for the given endpoint URL.
func NewRemoteFetcher(endpoint string, timeout time.Duration) *RemoteFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteFetcher{
		client:   resty.New().SetTimeout(timeout),
		endpoint: endpoint,
	}
}

func (f *RemoteFetcher) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResponse, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(f.endpoint)
	if err != nil {
		return domain.FetchResponse{}, fmt.Errorf("fetch service request: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return domain.FetchResponse{}, fmt.Errorf("fetch service returned status %d", resp.StatusCode())
	}

	var out domain.FetchResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return domain.FetchResponse{}, fmt.Errorf("decode fetch service response: %w", err)
	}
	return out, nil
}
