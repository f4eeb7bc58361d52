package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/curator"
	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
	"github.com/bytesip-hq/bytesip-news-curator/internal/logger"
	"github.com/bytesip-hq/bytesip-news-curator/pkg/notify"
	"github.com/google/uuid"
)

// Server exposes the fetch and curation operations over HTTP JSON.
type Server struct {
	fetcher curator.Fetcher
	engine  *curator.Engine
	fanout  *notify.Fanout
	httpSrv *http.Server
}

// NewServer wires the HTTP surface. fanout may be nil when no notifiers are
// configured.
func NewServer(addr string, fetcher curator.Fetcher, engine *curator.Engine, fanout *notify.Fanout) *Server {
	s := &Server{
		fetcher: fetcher,
		engine:  engine,
		fanout:  fanout,
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/fetch", s.handleFetch)
	mux.HandleFunc("POST /v1/news", s.handleNews)
	mux.HandleFunc("POST /v1/session/reset", s.handleSessionReset)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.recoverPanics(mux)
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// errorPayload is the single error envelope every failed request gets.
type errorPayload struct {
	ErrorType domain.ErrorType `json:"error_type"`
	Message   string           `json:"message"`
}

type errorResponse struct {
	Items []domain.NewsItem `json:"items"`
	Error errorPayload      `json:"error"`
}

type fetchRequestBody struct {
	Sources      []string `json:"sources"`
	Tags         []string `json:"tags"`
	ForceRefresh bool     `json:"force_refresh"`
}

type newsRequestBody struct {
	SessionID string   `json:"session_id"`
	Sources   []string `json:"sources"`
	Tags      []string `json:"tags"`
	Limit     *int     `json:"limit"`
}

type newsResponseBody struct {
	SessionID string            `json:"session_id"`
	Items     []domain.NewsItem `json:"items"`
	HasMore   bool              `json:"has_more"`
}

type resetRequestBody struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var body fetchRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrParse, err.Error())
		return
	}

	sources, err := parseSources(body.Sources)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrParse, err.Error())
		return
	}

	resp, err := s.fetcher.Fetch(r.Context(), domain.FetchRequest{
		Sources:      sources,
		Tags:         body.Tags,
		ForceRefresh: body.ForceRefresh,
	})
	if err != nil {
		logger.ErrorObj("fetch request failed", "fetch_error", err.Error())
		writeError(w, http.StatusBadGateway, domain.ErrConnection, err.Error())
		return
	}
	if resp.Items == nil {
		resp.Items = []domain.NewsItem{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	var body newsRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrParse, err.Error())
		return
	}

	sources, err := parseSources(body.Sources)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrParse, err.Error())
		return
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	limit := curator.DefaultLimit
	if body.Limit != nil {
		limit = *body.Limit
	}

	resp, err := s.engine.GetNews(r.Context(), domain.NewsRequest{
		SessionID: sessionID,
		Sources:   sources,
		Tags:      body.Tags,
		Limit:     limit,
	})
	if err != nil {
		logger.ErrorObj("news request failed", "news_error", err.Error())
		writeError(w, http.StatusInternalServerError, domain.ErrConnection, err.Error())
		return
	}

	s.notifyDigest(r.Context(), sessionID, resp)

	if resp.Items == nil {
		resp.Items = []domain.NewsItem{}
	}
	writeJSON(w, http.StatusOK, newsResponseBody{
		SessionID: sessionID,
		Items:     resp.Items,
		HasMore:   resp.HasMore,
	})
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	var body resetRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrParse, err.Error())
		return
	}
	if body.SessionID == "" {
		writeError(w, http.StatusBadRequest, domain.ErrParse, "session_id is required")
		return
	}

	if err := s.engine.Reset(body.SessionID); err != nil {
		logger.ErrorObj("session reset failed", "reset_error", err.Error())
		writeError(w, http.StatusInternalServerError, domain.ErrConnection, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// notifyDigest is best effort: delivery failures are logged, never surfaced.
func (s *Server) notifyDigest(ctx context.Context, sessionID string, resp domain.CuratedResponse) {
	if s.fanout == nil || s.fanout.Size() == 0 || len(resp.Items) == 0 {
		return
	}
	if _, err := s.fanout.Send(ctx, notify.NewEvent(sessionID, resp)); err != nil {
		logger.WarnObj("digest notification failed", "notify_error", err.Error())
	}
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorObj("request handler panicked", "panic", rec)
				writeError(w, http.StatusInternalServerError, domain.ErrConnection, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func parseSources(raw []string) ([]domain.Source, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]domain.Source, 0, len(raw))
	for _, r := range raw {
		src := domain.Source(r)
		if !src.Valid() {
			return nil, errors.New("unknown source: " + r)
		}
		out = append(out, src)
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WarnObj("write response failed", "encode_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, typ domain.ErrorType, msg string) {
	writeJSON(w, status, errorResponse{
		Items: []domain.NewsItem{},
		Error: errorPayload{ErrorType: typ, Message: msg},
	})
}
