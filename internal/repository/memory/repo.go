// Package memory keeps conversations in process memory. It backs local
// development and tests when no postgres instance is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/s21platform/chat-sync/internal/model"
)

type pairKey [2]string

func keyFor(userA, userB string) pairKey {
	if userA > userB {
		userA, userB = userB, userA
	}
	return pairKey{userA, userB}
}

type Repository struct {
	mu            sync.RWMutex
	conversations map[pairKey]model.MessageList
}

func New() *Repository {
	return &Repository{
		conversations: make(map[pairKey]model.MessageList),
	}
}

func (r *Repository) Close() {}

func (r *Repository) GetConversation(_ context.Context, userA, userB string, limit uint64) (*model.MessageList, error) {
	if limit == 0 {
		limit = model.DefaultConversationLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.conversations[keyFor(userA, userB)]
	start := 0
	if uint64(len(stored)) > limit {
		start = len(stored) - int(limit)
	}

	messages := make(model.MessageList, len(stored)-start)
	copy(messages, stored[start:])

	return &messages, nil
}

func (r *Repository) SaveMessage(_ context.Context, message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyFor(message.SenderID, message.ReceiverID)
	messages := append(r.conversations[key], *message)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	r.conversations[key] = messages

	return nil
}

func (r *Repository) MarkAsRead(_ context.Context, senderID, receiverID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var updated int64
	messages := r.conversations[keyFor(senderID, receiverID)]
	for i := range messages {
		if messages[i].SenderID == senderID && messages[i].ReceiverID == receiverID && !messages[i].IsRead {
			messages[i].IsRead = true
			updated++
		}
	}

	return updated, nil
}

func (r *Repository) GetConversationPreviews(_ context.Context, userID string) (*model.ConversationPreviewList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	previews := model.ConversationPreviewList{}
	for key, messages := range r.conversations {
		if len(messages) == 0 || (key[0] != userID && key[1] != userID) {
			continue
		}
		last := messages[len(messages)-1]
		previews = append(previews, model.ConversationPreview{
			PartnerID:   last.Partner(userID),
			LastMessage: last,
		})
	}

	sort.SliceStable(previews, func(i, j int) bool {
		return previews[i].LastMessage.CreatedAt.After(previews[j].LastMessage.CreatedAt)
	})

	return &previews, nil
}
