package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"flatmate/internal/model"
)

// Match reason constants
const (
	ReasonLocationMatch = "Location match"
	ReasonBedroomsMatch = "Enough bedrooms"
	ReasonPriceMatch    = "Price within budget"
	ReasonNearTransport = "Near public transport"
	ReasonNewlyListed   = "Newly listed"
	ReasonGeneralMatch  = "General match"
)

// Ranker orders listings by how well they fit the requested filters
type Ranker struct {
	weightPrice   float64
	weightRecency float64
	now           func() time.Time
}

// NewRanker creates a new ranker with specified weights
func NewRanker(weightPrice, weightRecency float64) *Ranker {
	return &Ranker{
		weightPrice:   weightPrice,
		weightRecency: weightRecency,
		now:           time.Now,
	}
}

// Rank scores listings and returns them best first. Ties keep the lower id first.
func (r *Ranker) Rank(listings []model.Listing, filters *model.SearchFilters) []model.ListingMatch {
	results := make([]model.ListingMatch, 0, len(listings))

	for _, listing := range listings {
		priceScore := r.calculatePriceScore(listing.Price, filters)
		recencyScore := r.calculateRecencyScore(listing.CreatedAt)

		results = append(results, model.ListingMatch{
			Listing:        listing,
			Score:          r.weightPrice*priceScore + r.weightRecency*recencyScore,
			MatchedReasons: r.generateMatchedReasons(listing, filters, priceScore),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	return results
}

// calculatePriceScore calculates how well the price matches the user's budget
func (r *Ranker) calculatePriceScore(price float64, filters *model.SearchFilters) float64 {
	if filters == nil || (filters.MinPrice == nil && filters.MaxPrice == nil) {
		return 1.0
	}

	if filters.MinPrice != nil && filters.MaxPrice != nil {
		minPrice, maxPrice := *filters.MinPrice, *filters.MaxPrice
		if price < minPrice || price > maxPrice {
			return 0.0
		}
		priceRange := maxPrice - minPrice
		if priceRange == 0 {
			return 1.0
		}
		// closest to the middle of the range wins
		midpoint := (minPrice + maxPrice) / 2
		return math.Max(0, 1.0-math.Abs(price-midpoint)/(priceRange/2))
	}

	if filters.MinPrice != nil {
		if price < *filters.MinPrice {
			return 0.0
		}
		return 1.0
	}

	if price > *filters.MaxPrice {
		return 0.0
	}
	if *filters.MaxPrice == 0 {
		return 1.0
	}
	// use as much of the budget as possible
	return math.Min(1.0, price / *filters.MaxPrice)
}

// calculateRecencyScore decays exponentially with listing age: ~0.74 after 30 days
func (r *Ranker) calculateRecencyScore(createdAt time.Time) float64 {
	if createdAt.IsZero() {
		return 0.5
	}
	days := r.now().Sub(createdAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-0.01 * days)
}

// generateMatchedReasons generates human-readable reasons for why this listing matched
func (r *Ranker) generateMatchedReasons(listing model.Listing, filters *model.SearchFilters, priceScore float64) []string {
	reasons := []string{}

	if !filters.IsEmpty() {
		if filters.Location != nil && strings.Contains(strings.ToLower(listing.Location), strings.ToLower(*filters.Location)) {
			reasons = append(reasons, ReasonLocationMatch)
		}
		if filters.Bedrooms != nil && listing.Bedrooms >= *filters.Bedrooms {
			reasons = append(reasons, ReasonBedroomsMatch)
		}
		if (filters.MinPrice != nil || filters.MaxPrice != nil) && priceScore > 0.8 {
			reasons = append(reasons, ReasonPriceMatch)
		}
	}

	if listing.NearestTransport != nil {
		reasons = append(reasons, ReasonNearTransport)
	}

	if !listing.CreatedAt.IsZero() && r.now().Sub(listing.CreatedAt) < 7*24*time.Hour {
		reasons = append(reasons, ReasonNewlyListed)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}

	return reasons
}
