package session

// Package session tracks which news item ids were already proposed within a
// conversation session.

const proposedIDsKey = "proposed_ids"

// AttributeStore is the session-scoped attribute surface supplied by the
// surrounding runtime. Attributes are namespaced per session id.
type AttributeStore interface {
	Attributes(sessionID string) (map[string]any, error)
	SetAttributes(sessionID string, attrs map[string]any) error
}

// Memory records proposed news ids for one session. Growth is append-only
// within a session; only Clear resets it.
//
// Known limitation: Record is a read-modify-write against a single session
// attribute, so concurrent calls for the same session id can lose updates
// (last write wins). Callers are expected to treat a session as
// single-writer-at-a-time.
type Memory struct {
	store     AttributeStore
	sessionID string
}

// NewMemory scopes a Memory to one session id.
func NewMemory(store AttributeStore, sessionID string) *Memory {
	return &Memory{store: store, sessionID: sessionID}
}

// ProposedIDs returns the ids already proposed in this session, in first-seen order.
func (m *Memory) ProposedIDs() ([]string, error) {
	attrs, err := m.store.Attributes(m.sessionID)
	if err != nil {
		return nil, err
	}
	return idsFromAttr(attrs[proposedIDsKey]), nil
}

// Record appends ids not yet proposed, preserving arrival order for new ids.
// Already-recorded ids are skipped, so recording is idempotent.
func (m *Memory) Record(ids []string) error {
	existing, err := m.ProposedIDs()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}

	updated := existing
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		updated = append(updated, id)
	}

	return m.store.SetAttributes(m.sessionID, map[string]any{proposedIDsKey: updated})
}

// IsProposed reports whether the id was already proposed in this session.
func (m *Memory) IsProposed(id string) (bool, error) {
	existing, err := m.ProposedIDs()
	if err != nil {
		return false, err
	}
	for _, known := range existing {
		if known == id {
			return true, nil
		}
	}
	return false, nil
}

// FilterUnproposed returns the subset of ids not yet proposed, in input order.
func (m *Memory) FilterUnproposed(ids []string) ([]string, error) {
	existing, err := m.ProposedIDs()
	if err != nil {
		return nil, err
	}

	proposed := make(map[string]bool, len(existing))
	for _, id := range existing {
		proposed[id] = true
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !proposed[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// Clear forgets every proposed id for this session.
func (m *Memory) Clear() error {
	return m.store.SetAttributes(m.sessionID, map[string]any{proposedIDsKey: []string{}})
}

// idsFromAttr tolerates both []string and []any shapes, since attribute
// stores that round-trip through JSON lose the concrete slice type.
func idsFromAttr(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
