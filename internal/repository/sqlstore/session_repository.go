package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	participants TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	context_type TEXT NOT NULL DEFAULT '',
	context_ref TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL
)`

const createContextIndex = `
CREATE INDEX IF NOT EXISTS idx_chat_sessions_context
	ON chat_sessions (context_type, context_ref)`

const sessionColumns = "id, title, content, participants, status, context_type, context_ref, metadata, created_at"

// SessionRepository stores sessions in a SQL table with the participants and
// metadata fields kept as JSON text.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates the sessions table and context index if needed.
func NewSessionRepository(db *sqlx.DB) (*SessionRepository, error) {
	for _, stmt := range []string{createSessionsTable, createContextIndex} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to prepare chat_sessions schema: %w", err)
		}
	}
	return &SessionRepository{db: db}, nil
}

type sessionRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Content      string    `db:"content"`
	Participants string    `db:"participants"`
	Status       string    `db:"status"`
	ContextType  string    `db:"context_type"`
	ContextRef   string    `db:"context_ref"`
	Metadata     string    `db:"metadata"`
	CreatedAt    time.Time `db:"created_at"`
}

func toRow(session chat.Session) (sessionRow, error) {
	participants, err := json.Marshal(session.Participants)
	if err != nil {
		return sessionRow{}, fmt.Errorf("encode participants: %w", err)
	}

	metadata := session.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return sessionRow{}, fmt.Errorf("encode metadata: %w", err)
	}

	return sessionRow{
		ID:           session.ID,
		Title:        session.Title,
		Content:      session.Content,
		Participants: string(participants),
		Status:       string(session.Status),
		ContextType:  string(session.ContextType),
		ContextRef:   session.ContextRef,
		Metadata:     string(meta),
		CreatedAt:    session.CreatedAt.UTC(),
	}, nil
}

func (r sessionRow) toSession() (chat.Session, error) {
	session := chat.Session{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		Status:      chat.Status(r.Status),
		ContextType: chat.ContextType(r.ContextType),
		ContextRef:  r.ContextRef,
		CreatedAt:   r.CreatedAt.UTC(),
	}

	if err := json.Unmarshal([]byte(r.Participants), &session.Participants); err != nil {
		return chat.Session{}, fmt.Errorf("decode participants of %s: %w", r.ID, err)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil {
		return chat.Session{}, fmt.Errorf("decode metadata of %s: %w", r.ID, err)
	}
	if len(meta) > 0 {
		session.Metadata = meta
	}
	return session, nil
}

func (s *SessionRepository) Insert(ctx context.Context, session chat.Session) error {
	row, err := toRow(session)
	if err != nil {
		return fmt.Errorf("%w: %v", chat.ErrPersistence, err)
	}

	query := s.db.Rebind("INSERT INTO chat_sessions (" + sessionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, query,
		row.ID, row.Title, row.Content, row.Participants, row.Status,
		row.ContextType, row.ContextRef, row.Metadata, row.CreatedAt,
	); err != nil {
		return fmt.Errorf("%w: insert session %s: %v", chat.ErrPersistence, row.ID, err)
	}
	return nil
}

func (s *SessionRepository) List(ctx context.Context) ([]chat.Session, error) {
	var rows []sessionRow
	query := "SELECT " + sessionColumns + " FROM chat_sessions ORDER BY created_at DESC"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", chat.ErrPersistence, err)
	}
	return toSessions(rows)
}

func (s *SessionRepository) ListByContext(ctx context.Context, contextType chat.ContextType, contextRef string) ([]chat.Session, error) {
	var rows []sessionRow
	query := s.db.Rebind("SELECT " + sessionColumns + " FROM chat_sessions WHERE context_type = ? AND context_ref = ? ORDER BY created_at DESC")
	if err := s.db.SelectContext(ctx, &rows, query, string(contextType), contextRef); err != nil {
		return nil, fmt.Errorf("%w: list sessions for %s/%s: %v", chat.ErrPersistence, contextType, contextRef, err)
	}
	return toSessions(rows)
}

func (s *SessionRepository) Get(ctx context.Context, id string) (chat.Session, error) {
	var row sessionRow
	query := s.db.Rebind("SELECT " + sessionColumns + " FROM chat_sessions WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Session{}, chat.ErrNotFound
		}
		return chat.Session{}, fmt.Errorf("%w: get session %s: %v", chat.ErrPersistence, id, err)
	}

	session, err := row.toSession()
	if err != nil {
		return chat.Session{}, fmt.Errorf("%w: %v", chat.ErrPersistence, err)
	}
	return session, nil
}

func (s *SessionRepository) UpdateStatus(ctx context.Context, id string, status chat.Status) error {
	query := s.db.Rebind("UPDATE chat_sessions SET status = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("%w: update session %s: %v", chat.ErrPersistence, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update session %s: %v", chat.ErrPersistence, id, err)
	}
	if affected == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func toSessions(rows []sessionRow) ([]chat.Session, error) {
	sessions := make([]chat.Session, 0, len(rows))
	for _, row := range rows {
		session, err := row.toSession()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chat.ErrPersistence, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
