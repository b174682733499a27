package model

import "time"

// Listing represents a rental property listing
type Listing struct {
	ID                int64     `json:"id" db:"id"`
	Title             string    `json:"title" db:"title"`
	Description       string    `json:"description" db:"description"`
	Price             float64   `json:"price" db:"price"` // EUR per month
	Location          string    `json:"location" db:"location"`
	Bedrooms          int       `json:"bedrooms" db:"bedrooms"`
	Bathrooms         int       `json:"bathrooms" db:"bathrooms"`
	Size              *int      `json:"size,omitempty" db:"size"` // square meters
	ImageURL          *string   `json:"imageUrl,omitempty" db:"image_url"`
	ContactInfo       string    `json:"contactInfo" db:"contact_info"`
	NearestTransport  *string   `json:"nearestTransport,omitempty" db:"nearest_transport"`
	TransportDistance *string   `json:"transportDistance,omitempty" db:"transport_distance"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// ListingMatch is a listing scored against the filters of a chat turn
type ListingMatch struct {
	Listing
	Score          float64  `json:"score"`
	MatchedReasons []string `json:"matchedReasons"`
}

// CreateListingRequest is the payload for adding a listing
type CreateListingRequest struct {
	Title             string  `json:"title" binding:"required"`
	Description       string  `json:"description" binding:"required"`
	Price             float64 `json:"price" binding:"required,gt=0"`
	Location          string  `json:"location" binding:"required"`
	Bedrooms          int     `json:"bedrooms" binding:"gte=0"`
	Bathrooms         int     `json:"bathrooms" binding:"gte=0"`
	Size              *int    `json:"size,omitempty" binding:"omitempty,gt=0"`
	ImageURL          *string `json:"imageUrl,omitempty" binding:"omitempty,url"`
	ContactInfo       string  `json:"contactInfo" binding:"required"`
	NearestTransport  *string `json:"nearestTransport,omitempty"`
	TransportDistance *string `json:"transportDistance,omitempty"`
}

// ToListing converts the request into an unsaved listing
func (r *CreateListingRequest) ToListing() *Listing {
	return &Listing{
		Title:             r.Title,
		Description:       r.Description,
		Price:             r.Price,
		Location:          r.Location,
		Bedrooms:          r.Bedrooms,
		Bathrooms:         r.Bathrooms,
		Size:              r.Size,
		ImageURL:          r.ImageURL,
		ContactInfo:       r.ContactInfo,
		NearestTransport:  r.NearestTransport,
		TransportDistance: r.TransportDistance,
	}
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required,min=1,dive"`
}

// EmbeddingItem represents a single embedding for a listing
type EmbeddingItem struct {
	ListingID int64     `json:"listingId" binding:"required"`
	Embedding []float32 `json:"embedding" binding:"required"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
