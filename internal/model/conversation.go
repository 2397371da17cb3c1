package model

import "sort"

const conversationChannelPrefix = "chat:"

type ConversationPreviewList []ConversationPreview

type ConversationPreview struct {
	PartnerID   string
	LastMessage Message
}

// ConversationChannel names the realtime channel of a two-party conversation.
// Both participants derive the same name regardless of argument order.
func ConversationChannel(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return conversationChannelPrefix + ids[0] + "_" + ids[1]
}

// Partner returns the other participant of m from the point of view of userID.
func (m Message) Partner(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Between reports whether m was exchanged by userA and userB, in either direction.
func (m Message) Between(userA, userB string) bool {
	return (m.SenderID == userA && m.ReceiverID == userB) ||
		(m.SenderID == userB && m.ReceiverID == userA)
}
