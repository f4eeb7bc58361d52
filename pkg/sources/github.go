package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/httpclient"
	"golang.org/x/time/rate"
)

const (
	githubMinStars     = 100
	githubDaysLookback = 7
)

// githubHandler fetches recently pushed, highly starred repositories from the
// GitHub search API as a trending signal.
type githubHandler struct {
	client  HTTPClient
	cfg     Config
	token   string
	limiter *rate.Limiter
	now     func() time.Time
}

// NewGitHubHandler builds a handler for GitHub trending repositories.
func NewGitHubHandler(client HTTPClient, cfg Config, token string) Handler {
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout())
	}
	return &githubHandler{
		client:  client,
		cfg:     sanitizeConfig(cfg),
		token:   token,
		limiter: rate.NewLimiter(rate.Every(cfg.RequestDelay()), 1),
		now:     time.Now,
	}
}

func (h *githubHandler) Source() domain.Source { return domain.SourceGitHub }

func (h *githubHandler) Fetch(ctx context.Context, tags []string) ([]domain.NewsItem, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, domain.NewSourceError(domain.SourceGitHub, domain.ErrConnection, err.Error())
	}

	headers := map[string]string{
		"Authorization": "Bearer " + h.token,
		"Accept":        "application/vnd.github+json",
	}

	resp, err := h.client.Get(ctx, h.cfg.BaseURL+"/search/repositories", h.searchQuery(tags), headers)
	if err != nil {
		return nil, domain.NewSourceError(domain.SourceGitHub, domain.ErrConnection, err.Error())
	}

	if resp.StatusCode() == http.StatusForbidden && resp.Header("X-RateLimit-Remaining") == "0" {
		return nil, domain.NewSourceError(domain.SourceGitHub, domain.ErrRateLimit, "GitHub API rate limit exceeded")
	}
	if resp.StatusCode() != http.StatusOK {
		msg := fmt.Sprintf("GitHub API returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
		return nil, domain.NewSourceError(domain.SourceGitHub, domain.ErrConnection, msg)
	}

	return parseGitHubRepos(resp.Body())
}

// searchQuery asks for repositories pushed within the lookback window with a
// minimum star count, optionally narrowed by topics, sorted by stars.
func (h *githubHandler) searchQuery(tags []string) map[string]string {
	threshold := h.now().AddDate(0, 0, -githubDaysLookback).Format("2006-01-02")

	queryParts := []string{
		fmt.Sprintf("pushed:>%s", threshold),
		fmt.Sprintf("stars:>%d", githubMinStars),
	}
	for _, tag := range tags {
		queryParts = append(queryParts, "topic:"+tag)
	}

	return map[string]string{
		"q":        strings.Join(queryParts, " "),
		"sort":     "stars",
		"order":    "desc",
		"per_page": fmt.Sprintf("%d", h.cfg.PerPage),
	}
}

type githubSearchResponse struct {
	Items []struct {
		FullName    string   `json:"full_name"`
		HTMLURL     string   `json:"html_url"`
		Description string   `json:"description"`
		Topics      []string `json:"topics"`
	} `json:"items"`
}

func parseGitHubRepos(body []byte) ([]domain.NewsItem, error) {
	var raw githubSearchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.NewSourceError(domain.SourceGitHub, domain.ErrParse, fmt.Sprintf("decode GitHub search response: %v", err))
	}

	items := make([]domain.NewsItem, 0, len(raw.Items))
	for _, repo := range raw.Items {
		items = append(items, domain.NewsItem{
			ID:      domain.NewsID(domain.SourceGitHub, repo.FullName),
			Title:   repo.FullName,
			URL:     repo.HTMLURL,
			Summary: repo.Description,
			Tags:    repo.Topics,
			Source:  domain.SourceGitHub,
		})
	}
	return items, nil
}
