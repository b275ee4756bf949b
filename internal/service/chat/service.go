package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/workcity-chat/backend/internal/metrics"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
)

// Repository persists sessions. Implementations return chat.ErrNotFound for
// unknown ids and wrap storage failures in chat.ErrPersistence.
type Repository interface {
	Insert(ctx context.Context, session chat.Session) error
	List(ctx context.Context) ([]chat.Session, error)
	ListByContext(ctx context.Context, contextType chat.ContextType, contextRef string) ([]chat.Session, error)
	Get(ctx context.Context, id string) (chat.Session, error)
	UpdateStatus(ctx context.Context, id string, status chat.Status) error
}

// Service validates session input and delegates storage to a Repository.
type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService wires the session store. m may be nil.
func NewService(repo Repository, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListSessions returns every stored session. Order is not part of the contract.
func (s *Service) ListSessions(ctx context.Context) ([]chat.Session, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		s.metrics.StoreError("list")
		return nil, err
	}
	return sessions, nil
}

// FindSessions returns sessions linked to the given context object.
func (s *Service) FindSessions(ctx context.Context, contextType chat.ContextType, contextRef string) ([]chat.Session, error) {
	contextRef = strings.TrimSpace(contextRef)
	if err := validateContext(contextType, contextRef); err != nil {
		return nil, err
	}

	sessions, err := s.repo.ListByContext(ctx, contextType, contextRef)
	if err != nil {
		s.metrics.StoreError("list")
		return nil, err
	}
	return sessions, nil
}

// CreateSession validates input, assigns id, status and creation time and
// persists the result. Invalid input is rejected before any write.
func (s *Service) CreateSession(ctx context.Context, input chat.NewSession) (chat.Session, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return chat.Session{}, fmt.Errorf("%w: title is required", chat.ErrValidation)
	}

	contextRef := strings.TrimSpace(input.ContextRef)
	if err := validateContext(input.ContextType, contextRef); err != nil {
		return chat.Session{}, err
	}

	session := chat.Session{
		ID:           uuid.NewString(),
		Title:        title,
		Content:      strings.TrimSpace(input.Content),
		Participants: chat.NewParticipants(input.Participants...),
		Status:       chat.StatusActive,
		ContextType:  input.ContextType,
		ContextRef:   contextRef,
		Metadata:     input.Metadata,
		CreatedAt:    s.now(),
	}
	session = session.Clone()

	if err := s.repo.Insert(ctx, session); err != nil {
		s.metrics.StoreError("insert")
		log.Printf("[chat] failed to persist session %q: %v", session.Title, err)
		return chat.Session{}, err
	}

	s.metrics.SessionCreated(string(session.ContextType))
	log.Printf("[chat] session created id=%s context=%s/%s", session.ID, session.ContextType, session.ContextRef)
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(ctx context.Context, id string) (chat.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return chat.Session{}, chat.ErrNotFound
	}

	session, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, chat.ErrNotFound) {
			s.metrics.StoreError("get")
		}
		return chat.Session{}, err
	}
	return session, nil
}

// UpdateSessionStatus moves a session to status. Setting the current status
// again performs no write.
func (s *Service) UpdateSessionStatus(ctx context.Context, id string, status chat.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", chat.ErrValidation, status)
	}

	current, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == status {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, current.ID, status); err != nil {
		if !errors.Is(err, chat.ErrNotFound) {
			s.metrics.StoreError("update")
		}
		return err
	}

	s.metrics.StatusUpdated(string(status))
	log.Printf("[chat] session %s status %s -> %s", current.ID, current.Status, status)
	return nil
}

func validateContext(contextType chat.ContextType, contextRef string) error {
	if !contextType.Valid() {
		return fmt.Errorf("%w: unknown context type %q", chat.ErrValidation, contextType)
	}
	if contextType == chat.ContextNone && contextRef != "" {
		return fmt.Errorf("%w: context ref %q given without a context type", chat.ErrValidation, contextRef)
	}
	if contextType.RequiresRef() && contextRef == "" {
		return fmt.Errorf("%w: context type %q requires a context ref", chat.ErrValidation, contextType)
	}
	return nil
}
