package curator

import (
	"context"
	"fmt"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/internal/logger"
	"github.com/bytesip-hq/bytesip-news-curator/internal/session"
)

const (
	// DefaultLimit is applied when a request does not name a limit.
	DefaultLimit = 10
	// MaxPerSource caps how many items one source may contribute per response.
	MaxPerSource = 10
	// MaxTotal is the hard ceiling on items per response regardless of limit.
	MaxTotal = 30

	defaultSessionID = "default"
)

// Fetcher is the fetch boundary the engine operates on. It may be the
// in-process orchestrator or a remote fetch service.
type Fetcher interface {
	Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResponse, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req domain.FetchRequest) (domain.FetchResponse, error)

func (f FetcherFunc) Fetch(ctx context.Context, req domain.FetchRequest) (domain.FetchResponse, error) {
	return f(ctx, req)
}

// Engine curates fetched news for a conversation session: it drops items
// already proposed in the session, applies per-source and global caps, and
// records what it hands back so repeated calls never repeat an item.
type Engine struct {
	fetcher  Fetcher
	sessions session.AttributeStore
}

// NewEngine wires a curation engine with its fetch boundary and session store.
func NewEngine(fetcher Fetcher, sessions session.AttributeStore) *Engine {
	return &Engine{fetcher: fetcher, sessions: sessions}
}

// GetNews returns up to min(limit, MaxTotal) unproposed items and records
// them as proposed. Source errors reported by the fetch boundary are logged
// and swallowed here; callers wanting them must use the fetch boundary
// directly.
func (e *Engine) GetNews(ctx context.Context, req domain.NewsRequest) (domain.CuratedResponse, error) {
	fetched, err := e.fetcher.Fetch(ctx, domain.FetchRequest{
		Sources:      req.Sources,
		Tags:         req.Tags,
		ForceRefresh: false,
	})
	if err != nil {
		return domain.CuratedResponse{}, fmt.Errorf("fetch news: %w", err)
	}
	if len(fetched.Errors) > 0 {
		logger.WarnObj("fetch reported source errors", "source_errors", fetched.Errors)
	}

	memory := session.NewMemory(e.sessions, sessionID(req.SessionID))

	unproposed, err := e.filterUnproposed(memory, fetched.Items)
	if err != nil {
		return domain.CuratedResponse{}, fmt.Errorf("read session memory: %w", err)
	}

	// One ordered pass keeps at most MaxPerSource items per source while
	// preserving each item's original position.
	perSource := make(map[domain.Source]int, 3)
	eligible := make([]domain.NewsItem, 0, len(unproposed))
	for _, item := range unproposed {
		if perSource[item.Source] >= MaxPerSource {
			continue
		}
		perSource[item.Source]++
		eligible = append(eligible, item)
	}

	limit := req.Limit
	if limit > MaxTotal {
		limit = MaxTotal
	}
	if limit < 0 {
		limit = 0
	}
	final := eligible
	if len(final) > limit {
		final = final[:limit]
	}

	if len(final) > 0 {
		ids := make([]string, 0, len(final))
		for _, item := range final {
			ids = append(ids, item.ID)
		}
		if err := memory.Record(ids); err != nil {
			return domain.CuratedResponse{}, fmt.Errorf("record proposed ids: %w", err)
		}
	}

	return domain.CuratedResponse{
		Items:   final,
		HasMore: len(final) < len(eligible),
	}, nil
}

// Reset clears the proposed-id memory for a session.
func (e *Engine) Reset(sessionIDRaw string) error {
	return session.NewMemory(e.sessions, sessionID(sessionIDRaw)).Clear()
}

func (e *Engine) filterUnproposed(memory *session.Memory, items []domain.NewsItem) ([]domain.NewsItem, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	keep, err := memory.FilterUnproposed(ids)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}

	out := make([]domain.NewsItem, 0, len(keep))
	for _, item := range items {
		if keepSet[item.ID] {
			out = append(out, item)
			// Guard against duplicate ids inside one fetch result.
			keepSet[item.ID] = false
		}
	}
	return out, nil
}

func sessionID(raw string) string {
	if raw == "" {
		return defaultSessionID
	}
	return raw
}
