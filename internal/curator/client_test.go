package curator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
)

func TestRemoteFetcherRoundTrip(t *testing.T) {
	var gotReq domain.FetchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.FetchResponse{
			Items: []domain.NewsItem{{
				ID:     "zenn_abc",
				Title:  "Generics in practice",
				URL:    "https://zenn.dev/articles/abc",
				Source: domain.SourceZenn,
				Tags:   []string{},
			}},
			Errors: []*domain.SourceError{
				domain.NewSourceError(domain.SourceQiita, domain.ErrConnection, "dial timeout"),
			},
		})
	}))
	defer srv.Close()

	fetcher := NewRemoteFetcher(srv.URL, 5*time.Second)
	resp, err := fetcher.Fetch(context.Background(), domain.FetchRequest{
		Sources: []domain.Source{domain.SourceZenn, domain.SourceQiita},
		Tags:    []string{"go"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(gotReq.Sources) != 2 || gotReq.Sources[0] != domain.SourceZenn {
		t.Fatalf("request sources not forwarded: %+v", gotReq.Sources)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "zenn_abc" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].ErrorType != domain.ErrConnection {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
}

func TestRemoteFetcherNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := NewRemoteFetcher(srv.URL, 5*time.Second)
	if _, err := fetcher.Fetch(context.Background(), domain.FetchRequest{}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestRemoteFetcherBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	fetcher := NewRemoteFetcher(srv.URL, 5*time.Second)
	if _, err := fetcher.Fetch(context.Background(), domain.FetchRequest{}); err == nil {
		t.Fatal("expected error on undecodable body")
	}
}
