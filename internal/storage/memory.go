package storage

import (
	"context"
	"sync"

	"neuromesh/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	sessions    map[string]model.LearningSession
	order       []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.sessions = make(map[string]model.LearningSession)
	s.order = nil
	return nil
}

func (s *MemoryStore) SaveSession(_ context.Context, session model.LearningSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		s.order = append(s.order, session.ID)
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (model.LearningSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, agentID string, limit int) ([]model.LearningSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.LearningSession, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		session := s.sessions[s.order[i]]
		if agentID != "" && session.AgentID != agentID {
			continue
		}
		out = append(out, session)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}
