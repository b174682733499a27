package service

import (
	"context"
	"errors"
	"fmt"

	"flatmate/internal/model"
	"flatmate/internal/repository"
)

var (
	// ErrListingNotFound is returned when a listing id does not exist
	ErrListingNotFound = errors.New("listing not found")
	// ErrInvalidEmbedding is returned when an embedding has the wrong dimension
	ErrInvalidEmbedding = errors.New("invalid embedding")
)

// ListingService exposes listing queries and maintenance
type ListingService struct {
	store               repository.ListingStore
	embeddingDimensions int
}

// NewListingService creates a listing service. Embeddings must have embeddingDimensions values.
func NewListingService(store repository.ListingStore, embeddingDimensions int) *ListingService {
	return &ListingService{store: store, embeddingDimensions: embeddingDimensions}
}

// ListListings returns every listing matching filters
func (s *ListingService) ListListings(ctx context.Context, filters *model.SearchFilters) ([]model.Listing, error) {
	return s.store.ListListings(ctx, filters)
}

// GetListing retrieves a listing by id
func (s *ListingService) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	listing, err := s.store.GetListing(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrListingNotFound
	}
	return listing, err
}

// CreateListing stores a new listing
func (s *ListingService) CreateListing(ctx context.Context, req *model.CreateListingRequest) (*model.Listing, error) {
	listing := req.ToListing()
	if err := s.store.CreateListing(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// UpdateEmbeddings stores listing embeddings. The whole batch is rejected if any vector has the wrong size.
func (s *ListingService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string, error) {
	for i, item := range items {
		if len(item.Embedding) != s.embeddingDimensions {
			return 0, nil, fmt.Errorf("%w: item %d has %d dimensions, expected %d",
				ErrInvalidEmbedding, i, len(item.Embedding), s.embeddingDimensions)
		}
	}
	success, errs := s.store.BatchUpdateEmbeddings(ctx, items)
	return success, errs, nil
}
