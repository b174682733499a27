package service

import (
	"context"
	"testing"

	"flatmate/internal/model"
	"flatmate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingService(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewListingService(repo, 3)
	ctx := context.Background()

	created, err := svc.CreateListing(ctx, &model.CreateListingRequest{
		Title: "Canal flat", Description: "Bright", Price: 1300, Location: "Berlin Neukölln",
		Bedrooms: 2, Bathrooms: 1, ContactInfo: "owner@example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.GetListing(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Canal flat", got.Title)

	_, err = svc.GetListing(ctx, 404)
	assert.ErrorIs(t, err, ErrListingNotFound)

	list, err := svc.ListListings(ctx, &model.SearchFilters{Location: strPtr("neukölln")})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListingService_UpdateEmbeddings(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewListingService(repo, 3)
	ctx := context.Background()

	listing := &model.Listing{Title: "x", Location: "Berlin", Price: 1}
	require.NoError(t, repo.CreateListing(ctx, listing))

	_, _, err := svc.UpdateEmbeddings(ctx, []model.EmbeddingItem{
		{ListingID: listing.ID, Embedding: []float32{1, 2, 3}},
		{ListingID: listing.ID, Embedding: []float32{1, 2}},
	})
	assert.ErrorIs(t, err, ErrInvalidEmbedding)
	assert.Contains(t, err.Error(), "item 1 has 2 dimensions")

	success, errs, err := svc.UpdateEmbeddings(ctx, []model.EmbeddingItem{
		{ListingID: listing.ID, Embedding: []float32{1, 2, 3}},
		{ListingID: 999, Embedding: []float32{1, 2, 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, success)
	assert.Len(t, errs, 1)
}
