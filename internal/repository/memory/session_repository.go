package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
)

// SessionRepository keeps sessions in process memory. Suitable for tests and
// single-instance deployments that can lose state on restart.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]chat.Session),
	}
}

func (r *SessionRepository) Insert(_ context.Context, session chat.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("%w: duplicate session id %s", chat.ErrPersistence, session.ID)
	}
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *SessionRepository) List(_ context.Context) ([]chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]chat.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, session.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *SessionRepository) ListByContext(_ context.Context, contextType chat.ContextType, contextRef string) ([]chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]chat.Session, 0)
	for _, session := range r.sessions {
		if session.ContextType == contextType && session.ContextRef == contextRef {
			out = append(out, session.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (chat.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return chat.Session{}, chat.ErrNotFound
	}
	return session.Clone(), nil
}

func (r *SessionRepository) UpdateStatus(_ context.Context, id string, status chat.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return chat.ErrNotFound
	}
	session.Status = status
	r.sessions[id] = session
	return nil
}

func sortNewestFirst(sessions []chat.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}
