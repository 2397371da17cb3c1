package model

import (
	"time"

	"github.com/google/uuid"
)

const DefaultConversationLimit = 100

type MessageList []Message

type Message struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID string    `db:"receiver_id" json:"receiver_id"`
	Content    string    `db:"content" json:"content"`
	IsRead     bool      `db:"is_read" json:"read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
