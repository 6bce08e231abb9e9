package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps histories for the lifetime of the process.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*history
}

type history struct {
	turns          []Turn
	lastActivityAt time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*history)}
}

// GetOrCreate returns a copy of the session's turns. An unseen id reads as an
// empty history; the entry itself is created by the first Append.
func (s *InMemoryStore) GetOrCreate(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.sessions[sessionID]
	if !ok {
		return []Turn{}, nil
	}
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out, nil
}

func (s *InMemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	for _, t := range turns {
		if !t.Role.Valid() {
			return ErrInvalidRole
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[sessionID]
	if !ok {
		h = &history{}
		s.sessions[sessionID] = h
	}
	for _, t := range turns {
		h.turns = append(h.turns, normalize(t))
	}
	h.lastActivityAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) Len(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.sessions[sessionID]
	if !ok {
		return 0, nil
	}
	return len(h.turns), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.sessions))
	for id, h := range s.sessions {
		if len(h.turns) == 0 {
			continue
		}
		out = append(out, Summary{
			SessionID:      id,
			Turns:          len(h.turns),
			LastActivityAt: h.lastActivityAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }

func normalize(t Turn) Turn {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return t
}
