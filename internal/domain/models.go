package domain

import "fmt"

// Domain contains core models shared across the curator.

// Source identifies one of the supported external providers.
type Source string

const (
	SourceQiita  Source = "qiita"
	SourceZenn   Source = "zenn"
	SourceGitHub Source = "github"
)

// AllSources lists every supported source in configured order.
func AllSources() []Source {
	return []Source{SourceQiita, SourceZenn, SourceGitHub}
}

// Valid reports whether s names a supported source.
func (s Source) Valid() bool {
	switch s {
	case SourceQiita, SourceZenn, SourceGitHub:
		return true
	}
	return false
}

// NewsID derives the canonical item id for a source and the provider's own id.
// The mapping is pure: the same (source, originalID) pair always yields the
// same string, and distinct pairs never collide.
func NewsID(source Source, originalID string) string {
	return fmt.Sprintf("%s_%s", source, originalID)
}

// NewsItem is a single curated piece of content. Items are constructed once by
// a source handler (or rehydrated from cache) and never mutated afterwards.
type NewsItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Source  Source   `json:"source"`
}

// ErrorType categorizes a source failure.
type ErrorType string

const (
	ErrConnection ErrorType = "connection_error"
	ErrRateLimit  ErrorType = "rate_limit"
	ErrParse      ErrorType = "parse_error"
)

// SourceError is the typed failure a handler surfaces for one source. It is a
// value carried alongside successful results, not a control-flow mechanism:
// the orchestrator collects these per source instead of aborting the call.
type SourceError struct {
	Source    Source    `json:"source"`
	ErrorType ErrorType `json:"error_type"`
	Message   string    `json:"message"`
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Source, e.ErrorType, e.Message)
}

// NewSourceError builds a typed source failure.
func NewSourceError(source Source, typ ErrorType, message string) *SourceError {
	return &SourceError{Source: source, ErrorType: typ, Message: message}
}

// FetchRequest carries the orchestrator's input parameters.
type FetchRequest struct {
	Sources      []Source `json:"sources,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ForceRefresh bool     `json:"force_refresh,omitempty"`
}

// FetchResponse is the orchestrator's merged, possibly partial result.
// Errors is nil when every targeted source succeeded.
type FetchResponse struct {
	Items  []NewsItem     `json:"items"`
	Errors []*SourceError `json:"errors,omitempty"`
}

// NewsRequest carries the curation engine's input parameters.
type NewsRequest struct {
	SessionID string   `json:"session_id"`
	Sources   []Source `json:"sources,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Limit     int      `json:"limit"`
}

// CuratedResponse is the curation engine's output. HasMore reports whether
// unproposed, cap-eligible items remain beyond the ones returned.
type CuratedResponse struct {
	Items   []NewsItem `json:"items"`
	HasMore bool       `json:"has_more"`
}
