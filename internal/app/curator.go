package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/api"
	"github.com/bytesip-hq/bytesip-news-curator/internal/cache"
	"github.com/bytesip-hq/bytesip-news-curator/internal/config"
	"github.com/bytesip-hq/bytesip-news-curator/internal/curator"
	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/internal/fetch"
	"github.com/bytesip-hq/bytesip-news-curator/internal/logger"
	"github.com/bytesip-hq/bytesip-news-curator/internal/session"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/notify"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/sources"
)

// Curator represents the digest service runtime. It wires the source
// handlers, cache, fetch orchestrator, session store, curation engine, and
// the HTTP surface, and owns their shutdown.
type Curator struct {
	cfg      *config.Config
	store    cache.Store
	sessions session.Store
	server   *api.Server
}

// NewCurator builds the service runtime from config.
func NewCurator(ctx context.Context, cfg *config.Config) (*Curator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := loadSourceRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}

	handlers := buildHandlers(sourceReg, cfg)
	handlerIDs := make([]string, 0, len(handlers))
	for _, h := range handlers {
		handlerIDs = append(handlerIDs, string(h.Source()))
	}
	logger.InfoObj("source handlers registered", "handlers_meta", map[string]any{
		"count": len(handlerIDs),
		"ids":   handlerIDs,
	})

	store, err := cache.NewStore(ctx, cfg.CacheType, cfg.BBoltPath, cache.DynamoConfig{
		TableName:   cfg.DynamoTableName,
		EndpointURL: cfg.DynamoEndpointURL,
		Region:      cfg.DynamoRegion,
	}, cache.Options{
		TTL:               cfg.CacheTTL,
		MaxItemsPerSource: cfg.CacheMaxItems,
	})
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	logger.InfoObj("cache initialized", "cache_config", map[string]any{
		"type":                 cfg.CacheType,
		"ttl_seconds":          int(cfg.CacheTTL.Seconds()),
		"max_items_per_source": cfg.CacheMaxItems,
	})

	sessions, err := session.NewStore(cfg.SessionType, cfg.SessionBBoltPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}

	orchestrator := fetch.NewOrchestrator(store, handlers, cfg.FetchWorkers)

	// A remote fetch endpoint replaces the in-process orchestrator for
	// curation; the local /v1/fetch surface still serves the orchestrator.
	var fetcher curator.Fetcher = curator.FetcherFunc(
		func(ctx context.Context, req domain.FetchRequest) (domain.FetchResponse, error) {
			return orchestrator.Fetch(ctx, req), nil
		})
	if cfg.FetchEndpointURL != "" {
		fetcher = curator.NewRemoteFetcher(cfg.FetchEndpointURL, 15*time.Second)
		logger.InfoObj("using remote fetch service", "fetch_endpoint", cfg.FetchEndpointURL)
	}

	engine := curator.NewEngine(fetcher, sessions)

	fanout, err := buildFanout(ctx, cfg.NotifiersFile)
	if err != nil {
		sessions.Close()
		store.Close()
		return nil, err
	}

	server := api.NewServer(cfg.ListenAddr, fetcher, engine, fanout)

	return &Curator{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		server:   server,
	}, nil
}

// Run serves HTTP until the context is cancelled, then drains and closes
// the stores.
func (c *Curator) Run(ctx context.Context) error {
	if c == nil || c.server == nil {
		return fmt.Errorf("curator is not initialized")
	}
	defer c.closeStores()

	errCh := make(chan error, 1)
	go func() {
		logger.InfoObj("http server listening", "listen_addr", c.cfg.ListenAddr)
		errCh <- c.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func (c *Curator) closeStores() {
	if c.sessions != nil {
		if err := c.sessions.Close(); err != nil {
			logger.WarnObj("session store close failed", "close_error", err.Error())
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			logger.WarnObj("cache close failed", "close_error", err.Error())
		}
	}
}

// loadSourceRegistry falls back to built-in defaults when no file is
// configured or the file does not exist.
func loadSourceRegistry(path string) (*sources.Registry, error) {
	if path == "" {
		return sources.DefaultRegistry(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.WarnObj("sources file missing, using defaults", "sources_file", path)
		return sources.DefaultRegistry(), nil
	}
	return sources.LoadRegistry(path)
}

// buildHandlers registers a handler per enabled source. Sources whose API
// requires a credential are skipped when the credential is absent.
func buildHandlers(reg *sources.Registry, cfg *config.Config) []sources.Handler {
	var handlers []sources.Handler
	for _, sc := range reg.Enabled() {
		client := sources.DefaultHTTPClient()
		switch sc.ID {
		case string(domain.SourceQiita):
			if cfg.QiitaAccessToken == "" {
				logger.WarnObj("qiita token missing, source disabled", "source", sc.ID)
				continue
			}
			handlers = append(handlers, sources.NewQiitaHandler(client, sc, cfg.QiitaAccessToken))
		case string(domain.SourceZenn):
			handlers = append(handlers, sources.NewZennHandler(client, sc))
		case string(domain.SourceGitHub):
			if cfg.GitHubAccessToken == "" {
				logger.WarnObj("github token missing, source disabled", "source", sc.ID)
				continue
			}
			handlers = append(handlers, sources.NewGitHubHandler(client, sc, cfg.GitHubAccessToken))
		}
	}
	return handlers
}

func buildFanout(ctx context.Context, notifiersFile string) (*notify.Fanout, error) {
	if notifiersFile == "" {
		return nil, nil
	}

	notifierReg, err := notify.LoadRegistry(notifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}

	enabled := notifierReg.Enabled()
	clients, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabled, logHelpers{})
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, nc := range enabled {
		summaries = append(summaries, map[string]string{"id": nc.ID, "type": nc.Type})
	}
	logger.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})

	return notify.NewFanout(clients), nil
}

// logHelpers adapts the package-level logger to the notify.Logger surface.
type logHelpers struct{}

func (logHelpers) InfoObj(msg, key string, obj interface{})  { logger.InfoObj(msg, key, obj) }
func (logHelpers) DebugObj(msg, key string, obj interface{}) { logger.DebugObj(msg, key, obj) }
func (logHelpers) WarnObj(msg, key string, obj interface{})  { logger.WarnObj(msg, key, obj) }
func (logHelpers) ErrorObj(msg, key string, obj interface{}) { logger.ErrorObj(msg, key, obj) }
