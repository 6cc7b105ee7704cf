package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/outreach/outreach-chat/internal/models"
	"github.com/outreach/outreach-chat/internal/repository"
)

type sessionRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Title       string         `db:"title"`
	ContextType sql.NullString `db:"context_type"`
	ContextID   sql.NullString `db:"context_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r sessionRow) toModel() models.Session {
	return models.Session{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Messages:    []models.Message{},
		ContextType: r.ContextType.String,
		ContextID:   r.ContextID.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// SessionRepository implements repository.SessionRepository using PostgreSQL
type SessionRepository struct {
	db       *sqlx.DB
	messages *MessageRepository
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db, messages: NewMessageRepository(db)}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.UpdatedAt = session.CreatedAt

	row := sessionRow{
		ID:          session.ID,
		UserID:      session.UserID,
		Title:       session.Title,
		ContextType: nullString(session.ContextType),
		ContextID:   nullString(session.ContextID),
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO chat_sessions (id, user_id, title, context_type, context_id, created_at, updated_at)
		VALUES (:id, :user_id, :title, :context_type, :context_id, :created_at, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	if err := r.messages.insert(ctx, tx, session.ID, 0, session.Messages); err != nil {
		return err
	}
	if session.Messages == nil {
		session.Messages = []models.Message{}
	}

	return tx.Commit()
}

// Get retrieves a session with its transcript
func (r *SessionRepository) Get(ctx context.Context, userID, id string) (*models.Session, error) {
	var row sessionRow
	query := `
		SELECT id, user_id, title, context_type, context_id, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`
	if err := r.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, err
	}

	session := row.toModel()
	messages, err := r.messages.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Messages = messages

	return &session, nil
}

// List retrieves the user's sessions, most recently updated first
func (r *SessionRepository) List(ctx context.Context, userID string) ([]models.Session, error) {
	var rows []sessionRow
	query := `
		SELECT id, user_id, title, context_type, context_id, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC, created_at DESC
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	sessions := make([]models.Session, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		sessions[i] = row.toModel()
		ids[i] = row.ID
	}

	transcripts, err := r.messages.ListBySessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if msgs, ok := transcripts[sessions[i].ID]; ok {
			sessions[i].Messages = msgs
		}
	}

	return sessions, nil
}

// AppendMessages adds messages after the current last position
func (r *SessionRepository) AppendMessages(ctx context.Context, userID, id string, messages ...models.Message) (*models.Session, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var locked string
	err = tx.GetContext(ctx, &locked,
		`SELECT id FROM chat_sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, err
	}

	var next int
	err = tx.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM chat_messages WHERE session_id = $1`, id)
	if err != nil {
		return nil, err
	}

	if err := r.messages.insert(ctx, tx, id, next, messages); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.Get(ctx, userID, id)
}

// Delete deletes a session; its messages go with it through the foreign key
func (r *SessionRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}
