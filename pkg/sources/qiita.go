package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/httpclient"
	"golang.org/x/time/rate"
)

const qiitaSummaryMaxRunes = 200

// qiitaHandler fetches articles from the Qiita item API.
type qiitaHandler struct {
	client  HTTPClient
	cfg     Config
	token   string
	limiter *rate.Limiter
}

// NewQiitaHandler builds a handler for Qiita articles. The access token is
// required by the API for meaningful quota.
func NewQiitaHandler(client HTTPClient, cfg Config, token string) Handler {
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout())
	}
	return &qiitaHandler{
		client:  client,
		cfg:     sanitizeConfig(cfg),
		token:   token,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestDelay()), 1),
	}
}

func (h *qiitaHandler) Source() domain.Source { return domain.SourceQiita }

func (h *qiitaHandler) Fetch(ctx context.Context, tags []string) ([]domain.NewsItem, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, domain.NewSourceError(domain.SourceQiita, domain.ErrConnection, err.Error())
	}

	query := map[string]string{"per_page": fmt.Sprintf("%d", h.cfg.PerPage)}
	if len(tags) > 0 {
		parts := make([]string, 0, len(tags))
		for _, tag := range tags {
			parts = append(parts, "tag:"+tag)
		}
		query["query"] = strings.Join(parts, " OR ")
	}

	headers := map[string]string{"Authorization": "Bearer " + h.token}

	resp, err := h.client.Get(ctx, h.cfg.BaseURL+"/items", query, headers)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceQiita, domain.ErrConnection, err.Error())
	}

	if resp.StatusCode() == http.StatusForbidden {
		return nil, domain.NewSourceError(domain.SourceQiita, domain.ErrRateLimit, "Qiita API rate limit exceeded")
	}
	if resp.StatusCode() != http.StatusOK {
		msg := fmt.Sprintf("Qiita API returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
		return nil, domain.NewSourceError(domain.SourceQiita, domain.ErrConnection, msg)
	}

	return parseQiitaItems(resp.Body())
}

type qiitaItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Body  string `json:"body"`
	Tags  []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

func parseQiitaItems(body []byte) ([]domain.NewsItem, error) {
	var raw []qiitaItem
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.NewSourceError(domain.SourceQiita, domain.ErrParse, fmt.Sprintf("decode Qiita items: %v", err))
	}

	items := make([]domain.NewsItem, 0, len(raw))
	for _, entry := range raw {
		tags := make([]string, 0, len(entry.Tags))
		for _, tag := range entry.Tags {
			tags = append(tags, tag.Name)
		}

		items = append(items, domain.NewsItem{
			ID:      domain.NewsID(domain.SourceQiita, entry.ID),
			Title:   entry.Title,
			URL:     entry.URL,
			Summary: truncateRunes(stripMarkdown(entry.Body), qiitaSummaryMaxRunes),
			Tags:    tags,
			Source:  domain.SourceQiita,
		})
	}
	return items, nil
}
