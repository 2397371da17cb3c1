package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/s21platform/chat-sync/internal/api"
	"github.com/s21platform/chat-sync/internal/config"
	"github.com/s21platform/chat-sync/internal/metrics"
	"github.com/s21platform/chat-sync/internal/model"
)

const paramOtherID = "otherId"

type Handler struct {
	repository       DBRepo
	centrifugeClient CetrifugeClient
	validator        Validator
	jwtGenerator     JWTGenerator
}

func New(
	repo DBRepo,
	centrifugeClient CetrifugeClient,
	validator Validator,
	jwtGenerator JWTGenerator,
) *Handler {
	return &Handler{
		repository:       repo,
		centrifugeClient: centrifugeClient,
		validator:        validator,
		jwtGenerator:     jwtGenerator,
	}
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversation")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusUnauthorized)
		return
	}

	otherID := strings.TrimSpace(chi.URLParam(r, paramOtherID))
	if otherID == "" {
		logger.Error("empty conversation partner")
		h.writeError(w, "conversation partner is required", http.StatusBadRequest)
		return
	}

	messages, err := h.repository.GetConversation(r.Context(), userUUID, otherID, model.DefaultConversationLimit)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to fetch conversation: %v", err))
		h.writeError(w, fmt.Sprintf("failed to fetch conversation: %v", err), http.StatusInternalServerError)
		return
	}

	apiMessages := make([]api.Message, len(*messages))
	for i, msg := range *messages {
		apiMessages[i] = toAPIMessage(msg)
	}

	response := api.GetConversationResponse{
		Messages: apiMessages,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("SendMessage")

	var req api.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	senderID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get sender ID")
		h.writeError(w, "failed to get sender ID", http.StatusUnauthorized)
		return
	}

	if err := h.validator.ValidateSendMessage(&req, senderID); err != nil {
		logger.Error(fmt.Sprintf("message validation failed: %v", err))
		h.writeError(w, fmt.Sprintf("message validation failed: %v", err), http.StatusBadRequest)
		return
	}

	message := model.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: req.ReceiverId,
		Content:    req.Content,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.repository.SaveMessage(r.Context(), &message); err != nil {
		logger.Error(fmt.Sprintf("failed to save message: %v", err))
		h.writeError(w, fmt.Sprintf("failed to send message: %v", err), http.StatusInternalServerError)
		return
	}
	metrics.MessagesSent.Inc()

	apiMessage := toAPIMessage(message)

	channel := model.ConversationChannel(message.SenderID, message.ReceiverID)
	if err := h.centrifugeClient.Publish(r.Context(), channel, apiMessage); err != nil {
		metrics.PublishFailures.Inc()
		logger.Error(fmt.Sprintf("failed to publish message to conversation: %v", err))
	}

	response := api.SendMessageResponse{
		Ok:      true,
		Message: apiMessage,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConversations")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusUnauthorized)
		return
	}

	previews, err := h.repository.GetConversationPreviews(r.Context(), userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to get conversations: %v", err))
		h.writeError(w, fmt.Sprintf("failed to get conversations: %v", err), http.StatusInternalServerError)
		return
	}

	conversations := make([]api.ConversationPreview, len(*previews))
	for i, preview := range *previews {
		conversations[i] = api.ConversationPreview{
			PartnerId:   preview.PartnerID,
			LastMessage: toAPIMessage(preview.LastMessage),
		}
	}

	response := api.GetConversationsResponse{
		Conversations: conversations,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("MarkAsRead")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusUnauthorized)
		return
	}

	otherID := strings.TrimSpace(chi.URLParam(r, paramOtherID))
	if otherID == "" {
		logger.Error("empty conversation partner")
		h.writeError(w, "conversation partner is required", http.StatusBadRequest)
		return
	}

	updated, err := h.repository.MarkAsRead(r.Context(), otherID, userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to mark messages as read: %v", err))
		h.writeError(w, fmt.Sprintf("failed to mark messages as read: %v", err), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, api.MarkAsReadResponse{Updated: updated}, http.StatusOK)
}

func (h *Handler) GetConnectAccessToken(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConnectAccessToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateConnectToken(userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate access token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate access token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated access token for user %s", userUUID))

	response := api.GetConnectAccessTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetSubscribeToken(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetSubscribeToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusUnauthorized)
		return
	}

	otherID := strings.TrimSpace(chi.URLParam(r, paramOtherID))
	if otherID == "" {
		logger.Error("empty conversation partner")
		h.writeError(w, "conversation partner is required", http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateSubscribeToken(userUUID, otherID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate subscribe token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate subscribe token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated subscribe token for user %s, partner %s", userUUID, otherID))

	response := api.GetSubscribeTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Channel:   model.ConversationChannel(userUUID, otherID),
	}

	h.writeJSON(w, response, http.StatusOK)
}

// ----------------------------- helpers -----------------------------

func toAPIMessage(msg model.Message) api.Message {
	return api.Message{
		Id:         msg.ID.String(),
		SenderId:   msg.SenderID,
		ReceiverId: msg.ReceiverID,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt.Format(time.RFC3339Nano),
		Read:       msg.IsRead,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.Error{Error: message})
}
