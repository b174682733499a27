package handler

import (
	"net/http"

	"flatmate/internal/model"
	"flatmate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LeaseHandler handles lease analysis requests
type LeaseHandler struct {
	lease *service.LeaseService
	log   logrus.FieldLogger
}

// NewLeaseHandler creates a new lease handler
func NewLeaseHandler(lease *service.LeaseService, log logrus.FieldLogger) *LeaseHandler {
	return &LeaseHandler{lease: lease, log: log}
}

// Analyze handles POST /api/v1/lease/analyze
func (h *LeaseHandler) Analyze(c *gin.Context) {
	var req model.LeaseAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	analysis, err := h.lease.AnalyzeLease(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}
