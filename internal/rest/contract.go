//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package rest

import (
	"context"

	"github.com/s21platform/chat-sync/internal/api"
	"github.com/s21platform/chat-sync/internal/model"
)

type DBRepo interface {
	GetConversation(ctx context.Context, userA, userB string, limit uint64) (*model.MessageList, error)
	SaveMessage(ctx context.Context, message *model.Message) error
	MarkAsRead(ctx context.Context, senderID, receiverID string) (int64, error)
	GetConversationPreviews(ctx context.Context, userID string) (*model.ConversationPreviewList, error)
}

type CetrifugeClient interface {
	Publish(ctx context.Context, channel string, data interface{}) error
}

type Validator interface {
	ValidateSendMessage(req *api.SendMessageRequest, senderID string) error
}

type JWTGenerator interface {
	GenerateConnectToken(userID string) (string, int64, error)
	GenerateSubscribeToken(userID, partnerID string) (string, int64, error)
}
