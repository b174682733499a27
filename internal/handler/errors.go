package handler

import (
	"errors"
	"net/http"

	"flatmate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors to HTTP statuses. Unknown errors are logged and hidden.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrEmptyLease),
		errors.Is(err, service.ErrInvalidEmbedding),
		errors.Is(err, service.ErrAppointmentInPast),
		errors.Is(err, service.ErrInvalidStatus):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConversationNotFound):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrListingNotFound),
		errors.Is(err, service.ErrAppointmentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAppointmentLimit):
		status = http.StatusConflict
	case errors.Is(err, service.ErrLeaseAnalysisUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrLeaseAnalysisUnavailable.Error()})
		return
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("request_id", c.GetString(ctxRequestID)).Error("Unhandled error")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// badRequest reports a binding failure
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}
