package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-backend/models"
	"chat-backend/services"
)

// ConversationHandler handles conversation and message HTTP requests
type ConversationHandler struct {
	svc *services.ConversationService
	log zerolog.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(svc *services.ConversationService, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		svc: svc,
		log: log.With().Str("component", "conversation-handler").Logger(),
	}
}

func parseConversationID(c *gin.Context) (models.ConversationID, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, services.Validation(services.MsgInvalidID)
	}
	return models.ConversationID(id), nil
}

// ownerAndID reads firebaseUid from the query string, then the path id
func ownerAndID(c *gin.Context) (string, models.ConversationID, error) {
	owner := ownerFromQuery(c)
	if owner == "" {
		return "", 0, services.Validation(services.MsgOwnerRequired)
	}
	id, err := parseConversationID(c)
	if err != nil {
		return "", 0, err
	}
	return owner, id, nil
}

// ListConversations lists the caller's conversations
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	conversations, err := h.svc.List(c.Request.Context(), ownerFromQuery(c))
	if err != nil {
		respondError(c, h.log, err, "Erreur récupération des conversations")
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// CreateConversation creates a conversation and returns its id
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	const storeMsg = "Erreur création conversation"

	var req models.CreateConversationRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	conv, err := h.svc.Create(c.Request.Context(), req.FirebaseUID, req.Title)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	c.JSON(http.StatusCreated, models.CreateConversationResponse{ConversationID: conv.ID})
}

// GetConversation returns a conversation with its messages
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	const storeMsg = "Erreur récupération"

	owner, id, err := ownerAndID(c)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	conv, err := h.svc.Get(c.Request.Context(), id, owner)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// AppendMessage adds a message to a conversation
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	const storeMsg = "Erreur ajout message"

	var req models.AppendMessageRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	id, err := parseConversationID(c)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	isFromUser := req.IsFromUser != nil && *req.IsFromUser
	msg, err := h.svc.AppendMessage(c.Request.Context(), id, req.FirebaseUID, req.Content, isFromUser)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// UpdateSummary rewrites the summary text of a conversation
func (h *ConversationHandler) UpdateSummary(c *gin.Context) {
	const storeMsg = "Erreur mise à jour summary"

	var req models.UpdateConversationSummaryRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	id, err := parseConversationID(c)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	conv, err := h.svc.UpdateSummary(c.Request.Context(), id, req.FirebaseUID, req.Summary)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// DeleteConversation deletes a conversation and its messages
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	const storeMsg = "Erreur suppression"

	owner, id, err := ownerAndID(c)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, owner); err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
