package notify

import (
	"time"

	"github.com/bytesip-hq/bytesip-news-curator/internal/domain"
)

// Event is the digest payload sent downstream after a curation pass.
type Event struct {
	SessionID string                `json:"session_id"`
	ItemIDs   []string              `json:"item_ids"`
	ItemCount int                   `json:"item_count"`
	PerSource map[domain.Source]int `json:"per_source"`
	HasMore   bool                  `json:"has_more"`
	CuratedAt time.Time             `json:"curated_at"`
}

// NewEvent constructs an Event summarizing one curated response.
func NewEvent(sessionID string, resp domain.CuratedResponse) Event {
	ids := make([]string, 0, len(resp.Items))
	perSource := make(map[domain.Source]int, 3)
	for _, item := range resp.Items {
		ids = append(ids, item.ID)
		perSource[item.Source]++
	}
	return Event{
		SessionID: sessionID,
		ItemIDs:   ids,
		ItemCount: len(ids),
		PerSource: perSource,
		HasMore:   resp.HasMore,
		CuratedAt: time.Now().UTC(),
	}
}
