package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
)

const sampleZennFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Zenn Trend</title>
    <link>https://zenn.dev</link>
    <item>
      <title>First Article</title>
      <link>https://zenn.dev/alice/articles/first-article</link>
      <guid>https://zenn.dev/alice/articles/first-article</guid>
      <description>&lt;p&gt;Some &lt;b&gt;rich&lt;/b&gt;   summary&lt;/p&gt;</description>
    </item>
    <item>
      <title>Second Article</title>
      <link>https://zenn.dev/bob/articles/second-article/</link>
      <guid>https://zenn.dev/bob/articles/second-article/</guid>
      <description>plain</description>
    </item>
  </channel>
</rss>`

func TestZennFetchTrendFeed(t *testing.T) {
	client := mockHTTPClient{
		t:         t,
		expectURL: "https://zenn.dev/feed",
		body:      sampleZennFeed,
	}

	handler := NewZennHandler(client, fastConfig("zenn"))
	items, err := handler.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if items[0].ID != "zenn_first-article" {
		t.Fatalf("unexpected slug id: %s", items[0].ID)
	}
	if items[0].Summary != "Some rich summary" {
		t.Fatalf("html not stripped: %q", items[0].Summary)
	}
	if len(items[0].Tags) != 0 {
		t.Fatalf("zenn items must carry no tags, got %v", items[0].Tags)
	}
	if items[1].ID != "zenn_second-article" {
		t.Fatalf("trailing slash not handled: %s", items[1].ID)
	}
}

func TestZennFetchTopicFeedUsesFirstTag(t *testing.T) {
	client := mockHTTPClient{
		t:         t,
		expectURL: "https://zenn.dev/topics/rust/feed",
		body:      sampleZennFeed,
	}

	handler := NewZennHandler(client, fastConfig("zenn"))
	if _, err := handler.Fetch(context.Background(), []string{"rust", "go"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestZennFetchParseError(t *testing.T) {
	handler := NewZennHandler(mockHTTPClient{t: t, body: "not an rss feed"}, fastConfig("zenn"))

	_, err := handler.Fetch(context.Background(), nil)
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceError, got %v", err)
	}
	if srcErr.ErrorType != domain.ErrParse || srcErr.Source != domain.SourceZenn {
		t.Fatalf("unexpected error: %+v", srcErr)
	}
}

func TestZennFetchConnectionError(t *testing.T) {
	handler := NewZennHandler(mockHTTPClient{t: t, err: errors.New("no route to host")}, fastConfig("zenn"))

	_, err := handler.Fetch(context.Background(), nil)
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) || srcErr.ErrorType != domain.ErrConnection {
		t.Fatalf("expected connection_error, got %v", err)
	}
}
