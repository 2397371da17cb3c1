package postgres

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/s21platform/chat-sync/internal/config"
	"github.com/s21platform/chat-sync/internal/model"
)

type Repository struct {
	connection *sqlx.DB
}

func New(cfg *config.Config) *Repository {
	conStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.Host, cfg.Postgres.Port)

	conn, err := sqlx.Connect("postgres", conStr)
	if err != nil {
		log.Fatal("error connect: ", err)
	}

	return &Repository{
		connection: conn,
	}
}

func (r *Repository) Close() {
	_ = r.connection.Close()
}

func pairCondition(userA, userB string) sq.Or {
	return sq.Or{
		sq.And{sq.Eq{"sender_id": userA}, sq.Eq{"receiver_id": userB}},
		sq.And{sq.Eq{"sender_id": userB}, sq.Eq{"receiver_id": userA}},
	}
}

// GetConversation returns the latest messages exchanged by userA and userB,
// oldest first.
func (r *Repository) GetConversation(ctx context.Context, userA, userB string, limit uint64) (*model.MessageList, error) {
	if limit == 0 {
		limit = model.DefaultConversationLimit
	}

	query, args, err := sq.Select(
		"id",
		"sender_id",
		"receiver_id",
		"content",
		"is_read",
		"created_at",
	).
		From("messages").
		Where(pairCondition(userA, userB)).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var messages model.MessageList
	err = r.connection.SelectContext(ctx, &messages, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %v", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &messages, nil
}

func (r *Repository) SaveMessage(ctx context.Context, message *model.Message) error {
	query := sq.Insert("messages").
		Columns("id", "sender_id", "receiver_id", "content", "is_read", "created_at").
		Values(message.ID, message.SenderID, message.ReceiverID, message.Content, message.IsRead, message.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}

	_, err = r.connection.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}

	return nil
}

// MarkAsRead flags every unread message sent by senderID to receiverID.
func (r *Repository) MarkAsRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	query, args, err := sq.Update("messages").
		Set("is_read", true).
		Where(sq.Eq{
			"sender_id":   senderID,
			"receiver_id": receiverID,
			"is_read":     false,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build sql query: %v", err)
	}

	res, err := r.connection.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %v", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated messages: %v", err)
	}

	return updated, nil
}

type previewRow struct {
	PartnerID  string    `db:"partner_id"`
	ID         uuid.UUID `db:"id"`
	SenderID   string    `db:"sender_id"`
	ReceiverID string    `db:"receiver_id"`
	Content    string    `db:"content"`
	IsRead     bool      `db:"is_read"`
	CreatedAt  time.Time `db:"created_at"`
}

// GetConversationPreviews returns the last message per conversation partner
// of userID, most recent conversation first.
func (r *Repository) GetConversationPreviews(ctx context.Context, userID string) (*model.ConversationPreviewList, error) {
	inner := sq.Select(
		"id",
		"sender_id",
		"receiver_id",
		"content",
		"is_read",
		"created_at",
	).
		Column(sq.Expr("CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id", userID)).
		From("messages").
		Where(sq.Or{sq.Eq{"sender_id": userID}, sq.Eq{"receiver_id": userID}})

	query, args, err := sq.Select(
		"partner_id",
		"id",
		"sender_id",
		"receiver_id",
		"content",
		"is_read",
		"created_at",
	).
		Options("DISTINCT ON (partner_id)").
		FromSelect(inner, "m").
		OrderBy("partner_id", "created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}

	var rows []previewRow
	err = r.connection.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %v", err)
	}

	previews := make(model.ConversationPreviewList, 0, len(rows))
	for _, row := range rows {
		previews = append(previews, model.ConversationPreview{
			PartnerID: row.PartnerID,
			LastMessage: model.Message{
				ID:         row.ID,
				SenderID:   row.SenderID,
				ReceiverID: row.ReceiverID,
				Content:    row.Content,
				IsRead:     row.IsRead,
				CreatedAt:  row.CreatedAt,
			},
		})
	}

	sort.SliceStable(previews, func(i, j int) bool {
		return previews[i].LastMessage.CreatedAt.After(previews[j].LastMessage.CreatedAt)
	})

	return &previews, nil
}
