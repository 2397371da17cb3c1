package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MessageID is the opaque server-assigned id. Servers may encode it as a
// JSON string or number; both decode to the same textual form.
type MessageID string

func (id *MessageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("message id must be a string or a number: %w", err)
	}
	*id = MessageID(n.String())
	return nil
}

// Message is a conversation entry as delivered by the server, either in a
// snapshot or in a realtime publication.
type Message struct {
	ID         MessageID `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  string    `json:"created_at"`
}

// Belongs reports whether m was exchanged between me and other, in either direction.
func (m Message) Belongs(me, other string) bool {
	return (m.SenderID == me && m.ReceiverID == other) ||
		(m.SenderID == other && m.ReceiverID == me)
}

// Validate checks the fields the sync core relies on. Content and
// created_at may be empty.
func (m Message) Validate(me, other string) error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: missing id", ErrMalformed)
	case m.SenderID == "" || m.ReceiverID == "":
		return fmt.Errorf("%w: message %s has no sender or receiver", ErrMalformed, m.ID)
	case !m.Belongs(me, other):
		return fmt.Errorf("%w: message %s does not belong to %s/%s", ErrMalformed, m.ID, me, other)
	}
	return nil
}
