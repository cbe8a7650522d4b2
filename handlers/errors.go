package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-backend/metrics"
	"chat-backend/models"
	"chat-backend/services"
)

const msgPayloadTooLarge = "Requête trop volumineuse"

// respondError writes the JSON error body for err. Store failures and
// unexpected errors answer 500 with storeMsg; their cause is only logged.
func respondError(c *gin.Context, log zerolog.Logger, err error, storeMsg string) {
	_ = c.Error(err)

	if errors.Is(err, errBodyTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: msgPayloadTooLarge})
		return
	}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case services.KindValidation:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: svcErr.Message})
			return
		case services.KindNotFound:
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: svcErr.Message})
			return
		case services.KindForbidden:
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: svcErr.Message})
			return
		}
	}

	route := c.Request.Method + " " + c.FullPath()
	log.Error().Err(err).Str("route", route).Msg(storeMsg)
	metrics.StoreErrorsTotal.WithLabelValues(route).Inc()
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: storeMsg})
}
