package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/httpclient"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// zennHandler fetches articles from the Zenn RSS feeds. The trend feed carries
// no topic metadata, so items from this source never have tags.
type zennHandler struct {
	client  HTTPClient
	cfg     Config
	parser  *gofeed.Parser
	limiter *rate.Limiter
}

// NewZennHandler builds a handler for Zenn feed entries. No credentials needed.
func NewZennHandler(client HTTPClient, cfg Config) Handler {
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout())
	}
	return &zennHandler{
		client:  client,
		cfg:     sanitizeConfig(cfg),
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(rate.Every(cfg.RequestDelay()), 1),
	}
}

func (h *zennHandler) Source() domain.Source { return domain.SourceZenn }

func (h *zennHandler) Fetch(ctx context.Context, tags []string) ([]domain.NewsItem, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, domain.NewSourceError(domain.SourceZenn, domain.ErrConnection, err.Error())
	}

	resp, err := h.client.Get(ctx, h.feedURL(tags), nil, nil)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceZenn, domain.ErrConnection, err.Error())
	}

	switch {
	case resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusTooManyRequests:
		return nil, domain.NewSourceError(domain.SourceZenn, domain.ErrRateLimit, "Zenn feed rate limit exceeded")
	case resp.StatusCode() != http.StatusOK:
		msg := fmt.Sprintf("Zenn feed returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
		return nil, domain.NewSourceError(domain.SourceZenn, domain.ErrConnection, msg)
	}

	feed, err := h.parser.ParseString(string(resp.Body()))
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceZenn, domain.ErrParse, fmt.Sprintf("parse Zenn feed: %v", err))
	}

	items := make([]domain.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, domain.NewsItem{
			ID:      domain.NewsID(domain.SourceZenn, zennSlug(entry)),
			Title:   entry.Title,
			URL:     entry.Link,
			Summary: stripHTML(entry.Description),
			Tags:    []string{},
			Source:  domain.SourceZenn,
		})
	}
	return items, nil
}

// feedURL picks the topic feed for the first tag, the trend feed otherwise.
func (h *zennHandler) feedURL(tags []string) string {
	if len(tags) > 0 && strings.TrimSpace(tags[0]) != "" {
		return fmt.Sprintf("%s/topics/%s/feed", h.cfg.BaseURL, strings.TrimSpace(tags[0]))
	}
	return h.cfg.BaseURL + "/feed"
}

// zennSlug extracts the article slug from the entry id (usually the full URL,
// e.g. https://zenn.dev/user/articles/my-article).
func zennSlug(entry *gofeed.Item) string {
	id := entry.GUID
	if id == "" {
		id = entry.Link
	}
	trimmed := strings.TrimRight(id, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
