//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package reconcile

import "github.com/s21platform/chat-sync/internal/conversation"

// Sink receives the visible consequences of reconciliation.
type Sink interface {
	Render(messages []conversation.Message)
	Append(message conversation.Message)
}
