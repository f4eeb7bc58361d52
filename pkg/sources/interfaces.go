package sources

import (
	"context"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/httpclient"
)

// Handler retrieves and normalizes news items for one external source.
// Fetch returns items in the provider's natural relevance/recency order and
// applies any tag filter upstream. A failed fetch always surfaces as a typed
// *domain.SourceError so callers never see untyped transport failures.
type Handler interface {
	Source() domain.Source
	Fetch(ctx context.Context, tags []string) ([]domain.NewsItem, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within sources.
type HTTPClient = httpclient.Client

// DefaultHTTPClient returns a tuned HTTP client for source handlers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }
