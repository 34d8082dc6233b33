package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbpkg "github.com/memohai/chatbridge/internal/db"
)

const (
	selectColumns = `SELECT id, bot_id, channel, thread, user_ref, created_at FROM conversations`

	getQuery = selectColumns + ` WHERE id = $1 AND bot_id = $2`

	recentQuery = selectColumns + `
 WHERE bot_id = $1 AND channel = $2 AND thread = $3 AND user_ref = $4
 ORDER BY created_at DESC
 LIMIT 1`

	insertQuery = `INSERT INTO conversations (id, bot_id, channel, thread, user_ref, created_at)
 VALUES ($1, $2, $3, $4, $5, $6)
 RETURNING id, bot_id, channel, thread, user_ref, created_at`

	listQuery = selectColumns + `
 WHERE bot_id = $1
 ORDER BY created_at DESC
 LIMIT $2`
)

// PostgresStore persists conversations in the conversations table.
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
		logger: log.With(slog.String("service", "conversation")),
	}
}

func (s *PostgresStore) Get(ctx context.Context, botID, id string) (Conversation, error) {
	pgID, err := dbpkg.ParseUUID(id)
	if err != nil {
		return Conversation{}, ErrNotFound
	}
	item, err := scanConversation(s.db.QueryRow(ctx, getQuery, pgID, botID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) Recent(ctx context.Context, botID string, key Key) (Conversation, error) {
	key = key.Normalize()
	if key.Channel == "" || key.Thread == "" {
		return Conversation{}, fmt.Errorf("conversation key requires channel and thread")
	}
	item, err := scanConversation(s.db.QueryRow(ctx, recentQuery, botID, key.Channel, key.Thread, key.UserRef))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, fmt.Errorf("find recent conversation: %w", err)
	}
	id := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	item, err = scanConversation(s.db.QueryRow(ctx, insertQuery, id, botID, key.Channel, key.Thread, key.UserRef, time.Now().UTC()))
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Debug("conversation created",
		slog.String("bot_id", botID),
		slog.String("conversation_id", item.ID),
		slog.String("channel", key.Channel),
	)
	return item, nil
}

func (s *PostgresStore) ListByBot(ctx context.Context, botID string, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, listQuery, botID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()
	items := make([]Conversation, 0)
	for rows.Next() {
		item, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var (
		id        pgtype.UUID
		item      Conversation
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &item.BotID, &item.Channel, &item.Thread, &item.UserRef, &createdAt); err != nil {
		return Conversation{}, err
	}
	item.ID = dbpkg.UUIDString(id)
	item.CreatedAt = createdAt.Time
	return item, nil
}
