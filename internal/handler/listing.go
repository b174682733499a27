package handler

import (
	"net/http"
	"strconv"

	"flatmate/internal/model"
	"flatmate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ListingHandler handles listing-related HTTP requests
type ListingHandler struct {
	listings *service.ListingService
	log      logrus.FieldLogger
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings *service.ListingService, log logrus.FieldLogger) *ListingHandler {
	return &ListingHandler{listings: listings, log: log}
}

// List handles GET /api/v1/listings
func (h *ListingHandler) List(c *gin.Context) {
	var filters model.SearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequest(c, err)
		return
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minPrice cannot be greater than maxPrice"})
		return
	}

	listings, err := h.listings.ListListings(c.Request.Context(), &filters)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings, "total": len(listings)})
}

// Get handles GET /api/v1/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}

	listing, err := h.listings.GetListing(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Create handles POST /api/v1/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var req model.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	listing, err := h.listings.CreateListing(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}
