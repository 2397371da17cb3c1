package validator

import (
	"fmt"
	"strings"

	"github.com/s21platform/chat-sync/internal/api"
)

const maxContentLength = 2000

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateSendMessage(req *api.SendMessageRequest, senderID string) error {
	if strings.TrimSpace(req.ReceiverId) == "" || strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("receiver_id and content are required")
	}

	if req.ReceiverId == senderID {
		return fmt.Errorf("cannot send a message to yourself")
	}

	if len([]rune(req.Content)) > maxContentLength {
		return fmt.Errorf("content exceeds maximum length of %d characters", maxContentLength)
	}

	return nil
}
