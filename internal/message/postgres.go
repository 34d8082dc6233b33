package message

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/memohai/chatbridge/internal/db"
)

const (
	insertQuery = `INSERT INTO messages (id, bot_id, conversation_id, author_ref, payload, created_at)
 VALUES ($1, $2, $3, $4, $5, $6)
 RETURNING id, bot_id, conversation_id, author_ref, payload, feedback, created_at`

	updateFeedbackQuery = `UPDATE messages SET feedback = $1 WHERE id = $2 AND bot_id = $3`

	listQuery = `SELECT id, bot_id, conversation_id, author_ref, payload, feedback, created_at
 FROM (
   SELECT * FROM messages
   WHERE bot_id = $1 AND conversation_id = $2
   ORDER BY created_at DESC
   LIMIT $3
 ) recent
 ORDER BY created_at ASC`
)

// PostgresStore persists messages in the messages table.
type PostgresStore struct {
	db     dbpkg.DBTX
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(log *slog.Logger, db dbpkg.DBTX) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		logger: log.With(slog.String("service", "message")),
	}
}

func (s *PostgresStore) Create(ctx context.Context, botID string, input CreateInput) (Message, error) {
	conversationID, err := dbpkg.ParseUUID(input.ConversationID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid conversation id: %w", err)
	}
	id := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	payload := []byte(input.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	item, err := scanMessage(s.db.QueryRow(ctx, insertQuery, id, botID, conversationID, input.AuthorRef, payload, time.Now().UTC()))
	if err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpdateFeedback(ctx context.Context, botID, messageID string, feedback int) error {
	if !validFeedback(feedback) {
		return ErrInvalidFeedback
	}
	pgID, err := dbpkg.ParseUUID(messageID)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.db.Exec(ctx, updateFeedbackQuery, int16(feedback), pgID, botID)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Debug("feedback recorded", slog.String("bot_id", botID), slog.String("message_id", messageID), slog.Int("feedback", feedback))
	return nil
}

func (s *PostgresStore) ListByConversation(ctx context.Context, botID, conversationID string, limit int) ([]Message, error) {
	pgConversationID, err := dbpkg.ParseUUID(conversationID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation id: %w", err)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, listQuery, botID, pgConversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	items := make([]Message, 0)
	for rows.Next() {
		item, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		id             pgtype.UUID
		conversationID pgtype.UUID
		feedback       pgtype.Int2
		createdAt      pgtype.Timestamptz
		item           Message
	)
	if err := row.Scan(&id, &item.BotID, &conversationID, &item.AuthorRef, &item.Payload, &feedback, &createdAt); err != nil {
		return Message{}, err
	}
	item.ID = dbpkg.UUIDString(id)
	item.ConversationID = dbpkg.UUIDString(conversationID)
	if feedback.Valid {
		value := int(feedback.Int16)
		item.Feedback = &value
	}
	item.CreatedAt = createdAt.Time
	return item, nil
}
