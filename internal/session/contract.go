//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package session

import (
	"context"

	"github.com/s21platform/chat-sync/internal/conversation"
	"github.com/s21platform/chat-sync/internal/reconcile"
)

type Transport interface {
	FetchConversation(ctx context.Context, otherID string) ([]conversation.Message, error)
	SendMessage(ctx context.Context, otherID, content string) error
}

type Subscription interface {
	Unsubscribe()
	Done() <-chan struct{}
}

type Subscriber interface {
	Subscribe(ctx context.Context, meID, otherID string, onMessage func(conversation.Message)) (Subscription, error)
}

type Reconciler interface {
	ApplySnapshot(messages []conversation.Message) reconcile.Outcome
	ApplyPush(message conversation.Message) bool
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, meID, otherID string, onMessage func(conversation.Message)) (Subscription, error)

func (f SubscriberFunc) Subscribe(ctx context.Context, meID, otherID string, onMessage func(conversation.Message)) (Subscription, error) {
	return f(ctx, meID, otherID, onMessage)
}
