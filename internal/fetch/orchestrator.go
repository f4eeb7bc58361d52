package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bytesip-hq/bytesip-news-curator/internal/cache"
	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/internal/logger"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/sources"
)

const defaultWorkers = 3

// Orchestrator fans out to the registered source handlers with bounded
// concurrency, applying a cache-first policy per source. Failures in one
// source never abort or block the others; they are collected as typed
// SourceError values in the response.
type Orchestrator struct {
	cache    cache.Store
	handlers map[domain.Source]sources.Handler
	order    []domain.Source
	workers  int
}

// NewOrchestrator wires an orchestrator with its cache and handlers. The
// handler slice order becomes the configured source order used for merging.
func NewOrchestrator(store cache.Store, handlers []sources.Handler, workers int) *Orchestrator {
	if workers <= 0 {
		workers = defaultWorkers
	}

	registered := make(map[domain.Source]sources.Handler, len(handlers))
	order := make([]domain.Source, 0, len(handlers))
	for _, h := range handlers {
		if h == nil {
			continue
		}
		if _, exists := registered[h.Source()]; exists {
			continue
		}
		registered[h.Source()] = h
		order = append(order, h.Source())
	}

	return &Orchestrator{
		cache:    store,
		handlers: registered,
		order:    order,
		workers:  workers,
	}
}

// Sources returns the registered sources in configured order.
func (o *Orchestrator) Sources() []domain.Source {
	out := make([]domain.Source, len(o.order))
	copy(out, o.order)
	return out
}

type sourceResult struct {
	source    domain.Source
	items     []domain.NewsItem
	fromCache bool
	err       *domain.SourceError
}

// Fetch runs one fan-out pass. It always returns a response: sources that
// failed contribute a SourceError, sources that succeeded contribute items,
// and a call with zero reachable targets yields empty items and no errors.
func (o *Orchestrator) Fetch(ctx context.Context, req domain.FetchRequest) domain.FetchResponse {
	targets := o.resolveTargets(req.Sources)
	if len(targets) == 0 {
		return domain.FetchResponse{Items: []domain.NewsItem{}}
	}

	jobs := make(chan domain.Source, len(targets))
	results := make(chan sourceResult, len(targets))

	workers := o.workers
	if workers > len(targets) {
		workers = len(targets)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for source := range jobs {
				results <- o.fetchSource(ctx, source, req.Tags, req.ForceRefresh)
			}
		}()
	}

	for _, source := range targets {
		jobs <- source
	}
	close(jobs)

	// Drain results as they complete; a slow source delays only its own slot.
	bySource := make(map[domain.Source]sourceResult, len(targets))
	for range targets {
		res := <-results
		bySource[res.source] = res
	}
	wg.Wait()

	// Merge in configured source order to keep single-call output stable.
	resp := domain.FetchResponse{Items: []domain.NewsItem{}}
	for _, source := range targets {
		res := bySource[source]
		if res.err != nil {
			resp.Errors = append(resp.Errors, res.err)
			continue
		}
		items := res.items
		if res.fromCache {
			// Cached rows are generic, not stored per tag query, so the tag
			// filter must be re-applied here. Handler results arrive already
			// filtered upstream and are not filtered again.
			items = filterByTags(items, req.Tags)
		}
		resp.Items = append(resp.Items, items...)
	}
	return resp
}

// resolveTargets intersects the requested sources with the registered ones,
// falling back to every registered source when the request names none.
func (o *Orchestrator) resolveTargets(requested []domain.Source) []domain.Source {
	if len(requested) == 0 {
		return o.Sources()
	}

	seen := make(map[domain.Source]bool, len(requested))
	out := make([]domain.Source, 0, len(requested))
	for _, source := range requested {
		if seen[source] {
			continue
		}
		seen[source] = true
		if _, ok := o.handlers[source]; ok {
			out = append(out, source)
		}
	}
	return out
}

// fetchSource runs the cache-first policy for one source. Panics and untyped
// handler failures are converted into SourceError values at this boundary so
// concurrency never carries raw failures across goroutines.
func (o *Orchestrator) fetchSource(ctx context.Context, source domain.Source, tags []string, forceRefresh bool) (res sourceResult) {
	res.source = source
	defer func() {
		if r := recover(); r != nil {
			res.items = nil
			res.err = domain.NewSourceError(source, domain.ErrConnection, fmt.Sprintf("handler panic: %v", r))
		}
	}()

	if !forceRefresh {
		cached, err := o.cache.Get(ctx, source)
		if err != nil {
			logger.WarnObj("cache read failed, going live", "cache_error", map[string]any{
				"source": source,
				"error":  err.Error(),
			})
		}
		if len(cached) > 0 {
			res.items = cached
			res.fromCache = true
			return res
		}
	}

	handler := o.handlers[source]
	items, err := handler.Fetch(ctx, tags)
	if err != nil {
		res.err = asSourceError(source, err)
		return res
	}

	if err := o.cache.Set(ctx, source, items); err != nil {
		logger.WarnObj("cache write failed", "cache_error", map[string]any{
			"source": source,
			"error":  err.Error(),
		})
	}

	res.items = items
	return res
}

// asSourceError normalizes any handler failure to the typed taxonomy.
func asSourceError(source domain.Source, err error) *domain.SourceError {
	var srcErr *domain.SourceError
	if errors.As(err, &srcErr) {
		return srcErr
	}
	return domain.NewSourceError(source, domain.ErrConnection, err.Error())
}

// filterByTags keeps items carrying at least one of the requested tags,
// compared case-insensitively. An empty tag list keeps everything.
func filterByTags(items []domain.NewsItem, tags []string) []domain.NewsItem {
	if len(tags) == 0 {
		return items
	}

	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wanted[strings.ToLower(tag)] = true
	}

	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		for _, tag := range item.Tags {
			if wanted[strings.ToLower(tag)] {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
