package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"flatmate/internal/model"
	"flatmate/internal/utils"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const maxBedrooms = 20

const extractionPrompt = `Extract property search parameters from this user message. Return ONLY a JSON object with these fields:
- location (string): The city or neighborhood
- minPrice (number, optional): Minimum monthly rent in EUR
- maxPrice (number, optional): Maximum monthly rent in EUR
- bedrooms (number, optional): Minimum number of bedrooms

Use null for anything the user did not mention.

User message: %q`

var (
	locationPattern     = regexp.MustCompile(`(?i)\bin\s+([\p{L}\p{N}_]+)`)
	priceSuffixPattern  = regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})+|\d+)\s*(?:€|eur(?:os?)?\b)`)
	pricePrefixPattern  = regexp.MustCompile(`(?i)(?:€|\beur)\s*(\d{1,3}(?:[.,]\d{3})+|\d+)`)
	bedroomsPattern     = regexp.MustCompile(`(?i)(\d+)[\s-]*(?:bedrooms?|beds?|br)\b`)
	whitespaceCollapser = regexp.MustCompile(`\s+`)
)

// prices are whole euros, so "1.200" and "1,200" both mean 1200
var thousandsSeparators = strings.NewReplacer(".", "", ",", "")

// ParameterExtractor turns a chat message into search filters
type ParameterExtractor struct {
	llm   LLMClient
	cache *gocache.Cache
	log   logrus.FieldLogger
}

// NewParameterExtractor creates an extractor. A non-positive cacheTTL disables caching.
func NewParameterExtractor(llm LLMClient, cacheTTL time.Duration, log logrus.FieldLogger) *ParameterExtractor {
	e := &ParameterExtractor{llm: llm, log: log}
	if cacheTTL > 0 {
		e.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return e
}

// Extract returns filters for text. It never fails: when the language model is
// unavailable or answers with something unusable, the regex heuristic is used
// and fellBack is true.
func (e *ParameterExtractor) Extract(ctx context.Context, text string) (filters *model.SearchFilters, fellBack bool) {
	key := cacheKey(text)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cloneFilters(cached.(*model.SearchFilters)), false
		}
	}

	if e.llm == nil || !e.llm.IsEnabled() {
		e.log.Debug("LLM disabled, using basic parameter extraction")
		return BasicParameterExtraction(text), true
	}

	filters, err := e.extractWithLLM(ctx, text)
	if err != nil {
		e.log.WithError(err).Warn("LLM parameter extraction failed, using basic parameter extraction")
		return BasicParameterExtraction(text), true
	}

	if e.cache != nil {
		e.cache.SetDefault(key, cloneFilters(filters))
	}
	return filters, false
}

func (e *ParameterExtractor) extractWithLLM(ctx context.Context, text string) (*model.SearchFilters, error) {
	raw, err := e.llm.CompleteJSON(ctx, fmt.Sprintf(extractionPrompt, text))
	if err != nil {
		return nil, err
	}

	var payload extractionPayload
	if err := utils.ParseAIJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	filters, err := payload.toFilters()
	if err != nil {
		return nil, fmt.Errorf("extraction response validation failed: %w", err)
	}
	return filters, nil
}

// extractionPayload mirrors the JSON requested from the model
type extractionPayload struct {
	Location *string     `json:"location"`
	MinPrice *flexNumber `json:"minPrice"`
	MaxPrice *flexNumber `json:"maxPrice"`
	Bedrooms *flexNumber `json:"bedrooms"`
}

func (p *extractionPayload) toFilters() (*model.SearchFilters, error) {
	filters := &model.SearchFilters{}

	if p.Location != nil {
		if loc := strings.TrimSpace(*p.Location); loc != "" {
			filters.Location = &loc
		}
	}
	if p.MinPrice != nil {
		v := float64(*p.MinPrice)
		if v < 0 {
			return nil, fmt.Errorf("minPrice must not be negative, got %v", v)
		}
		filters.MinPrice = &v
	}
	if p.MaxPrice != nil {
		v := float64(*p.MaxPrice)
		if v < 0 {
			return nil, fmt.Errorf("maxPrice must not be negative, got %v", v)
		}
		filters.MaxPrice = &v
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		return nil, fmt.Errorf("minPrice (%v) cannot be greater than maxPrice (%v)", *filters.MinPrice, *filters.MaxPrice)
	}
	if p.Bedrooms != nil {
		v := float64(*p.Bedrooms)
		if v != math.Trunc(v) || v < 0 || v > maxBedrooms {
			return nil, fmt.Errorf("bedrooms must be an integer between 0 and %d, got %v", maxBedrooms, v)
		}
		n := int(v)
		filters.Bedrooms = &n
	}
	return filters, nil
}

// flexNumber accepts 1200, 1200.5 and "1200" alike
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "€"))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("expected a number, got " + strconv.Quote(s))
		}
		*n = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexNumber(v)
	return nil
}

// BasicParameterExtraction pulls filters out of text with regular expressions:
// the word after "in" is the location, an amount next to a euro sign is the
// maximum price, and a number before "bedroom", "bed" or "br" is the bedroom count.
func BasicParameterExtraction(text string) *model.SearchFilters {
	filters := &model.SearchFilters{}

	if m := locationPattern.FindStringSubmatch(text); m != nil {
		loc := m[1]
		filters.Location = &loc
	}

	m := priceSuffixPattern.FindStringSubmatch(text)
	if m == nil {
		m = pricePrefixPattern.FindStringSubmatch(text)
	}
	if m != nil {
		if v, err := strconv.ParseFloat(thousandsSeparators.Replace(m[1]), 64); err == nil {
			filters.MaxPrice = &v
		}
	}

	if m := bedroomsPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			filters.Bedrooms = &v
		}
	}

	return filters
}

func cacheKey(text string) string {
	return whitespaceCollapser.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

func cloneFilters(f *model.SearchFilters) *model.SearchFilters {
	if f == nil {
		return nil
	}
	out := &model.SearchFilters{}
	if f.Location != nil {
		v := *f.Location
		out.Location = &v
	}
	if f.MinPrice != nil {
		v := *f.MinPrice
		out.MinPrice = &v
	}
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		out.MaxPrice = &v
	}
	if f.Bedrooms != nil {
		v := *f.Bedrooms
		out.Bedrooms = &v
	}
	return out
}
