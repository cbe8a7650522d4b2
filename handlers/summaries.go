package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-backend/models"
	"chat-backend/services"
)

// SummaryHandler handles summary HTTP requests
type SummaryHandler struct {
	svc *services.SummaryService
	log zerolog.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(svc *services.SummaryService, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{
		svc: svc,
		log: log.With().Str("component", "summary-handler").Logger(),
	}
}

func summaryID(c *gin.Context) models.SummaryID {
	return models.SummaryID(c.Param("id"))
}

// ListSummaries lists the caller's summaries
func (h *SummaryHandler) ListSummaries(c *gin.Context) {
	summaries, err := h.svc.List(c.Request.Context(), ownerFromQuery(c))
	if err != nil {
		respondError(c, h.log, err, "Erreur récupération des summaries")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// UpsertSummary creates a summary, or updates the caller's summary of the same conversation
func (h *SummaryHandler) UpsertSummary(c *gin.Context) {
	const storeMsg = "Erreur création summary"

	var req models.UpsertSummaryRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	summary, created, err := h.svc.Upsert(c.Request.Context(), services.UpsertSummaryInput{
		OwnerID:        req.FirebaseUID,
		ConversationID: req.ConversationID,
		Context:        req.Context,
		Summary:        req.Summary,
	})
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, summary)
}

// GetSummary returns a summary with its linked conversation
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	summary, err := h.svc.Get(c.Request.Context(), summaryID(c), ownerFromQuery(c))
	if err != nil {
		respondError(c, h.log, err, "Erreur récupération summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// UpdateSummary patches the summary text and context
func (h *SummaryHandler) UpdateSummary(c *gin.Context) {
	const storeMsg = "Erreur mise à jour summary"

	var req models.UpdateSummaryRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}

	summary, err := h.svc.Update(c.Request.Context(), summaryID(c), req.FirebaseUID, req.Summary, req.Context)
	if err != nil {
		respondError(c, h.log, err, storeMsg)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DeleteSummary deletes a summary
func (h *SummaryHandler) DeleteSummary(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), summaryID(c), ownerFromQuery(c)); err != nil {
		respondError(c, h.log, err, "Erreur suppression summary")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
