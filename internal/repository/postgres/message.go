package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/outreach/outreach-chat/internal/models"
)

type messageRow struct {
	SessionID string    `db:"session_id"`
	Position  int       `db:"position"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// MessageRepository reads and writes transcript rows. Order is the
// position column, never the timestamp.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListBySession retrieves a session's transcript
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Message, error) {
	var rows []messageRow
	query := `
		SELECT session_id, position, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY position ASC
	`
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, err
	}

	messages := make([]models.Message, len(rows))
	for i, row := range rows {
		messages[i] = row.toModel()
	}
	return messages, nil
}

// ListBySessions retrieves transcripts for several sessions in one query
func (r *MessageRepository) ListBySessions(ctx context.Context, sessionIDs []string) (map[string][]models.Message, error) {
	result := make(map[string][]models.Message, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT session_id, position, role, content, created_at
		FROM chat_messages
		WHERE session_id IN (?)
		ORDER BY session_id, position ASC
	`, sessionIDs)
	if err != nil {
		return nil, err
	}

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.SessionID] = append(result[row.SessionID], row.toModel())
	}
	return result, nil
}

func (r *MessageRepository) insert(ctx context.Context, tx *sqlx.Tx, sessionID string, start int, messages []models.Message) error {
	query := `
		INSERT INTO chat_messages (session_id, position, role, content, created_at)
		VALUES (:session_id, :position, :role, :content, :created_at)
	`
	for i, msg := range messages {
		created := msg.Timestamp
		if created.IsZero() {
			created = time.Now().UTC()
		}
		row := messageRow{
			SessionID: sessionID,
			Position:  start + i,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: created,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("failed to insert message %d: %w", start+i, err)
		}
	}
	return nil
}

func (row messageRow) toModel() models.Message {
	return models.Message{
		Role:      models.Role(row.Role),
		Content:   row.Content,
		Timestamp: row.CreatedAt,
	}
}
