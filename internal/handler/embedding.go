package handler

import (
	"net/http"

	"flatmate/internal/model"
	"flatmate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EmbeddingHandler handles embedding-related HTTP requests
type EmbeddingHandler struct {
	listings *service.ListingService
	log      logrus.FieldLogger
}

// NewEmbeddingHandler creates a new embedding handler
func NewEmbeddingHandler(listings *service.ListingService, log logrus.FieldLogger) *EmbeddingHandler {
	return &EmbeddingHandler{listings: listings, log: log}
}

// BatchUpdate handles POST /api/v1/listings/embeddings/batch
func (h *EmbeddingHandler) BatchUpdate(c *gin.Context) {
	var req model.EmbeddingBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	success, errs, err := h.listings.UpdateEmbeddings(c.Request.Context(), req.Embeddings)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response := model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(req.Embeddings) - success,
		Errors:  errs,
	}

	if len(errs) > 0 {
		c.JSON(http.StatusPartialContent, response)
	} else {
		c.JSON(http.StatusOK, response)
	}
}
