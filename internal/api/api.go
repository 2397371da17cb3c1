// Package api holds the JSON bodies exchanged with the conversation endpoints.
package api

type Error struct {
	Error string `json:"error"`
}

type Message struct {
	Id         string `json:"id"`
	SenderId   string `json:"sender_id"`
	ReceiverId string `json:"receiver_id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
	Read       bool   `json:"read"`
}

type GetConversationResponse struct {
	Messages []Message `json:"messages"`
}

type SendMessageRequest struct {
	ReceiverId string `json:"receiver_id"`
	Content    string `json:"content"`
}

type SendMessageResponse struct {
	Ok      bool    `json:"ok"`
	Message Message `json:"message"`
}

type ConversationPreview struct {
	PartnerId   string  `json:"partner_id"`
	LastMessage Message `json:"last_message"`
}

type GetConversationsResponse struct {
	Conversations []ConversationPreview `json:"conversations"`
}

type MarkAsReadResponse struct {
	Updated int64 `json:"updated"`
}

type GetConnectAccessTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type GetSubscribeTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Channel   string `json:"channel"`
}
