package storage

import (
	"context"

	"neuromesh/internal/model"
)

// Store archives completed learning sessions for offline inspection.
// Live agent state is never persisted; the archive only records session
// outcomes after the fact.
type Store interface {
	Init(ctx context.Context) error
	SaveSession(ctx context.Context, session model.LearningSession) error
	GetSession(ctx context.Context, id string) (model.LearningSession, bool, error)
	// ListSessions returns sessions newest first. An empty agentID matches
	// all agents; limit <= 0 means no limit.
	ListSessions(ctx context.Context, agentID string, limit int) ([]model.LearningSession, error)
}

// Resetter is implemented by stores that can drop all archived data.
type Resetter interface {
	Reset(ctx context.Context) error
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
